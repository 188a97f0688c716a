package classifier

import (
	"math/rand"
	"sort"
)

// HistBoost hyperparameter defaults.
const (
	hbRounds       = 80
	hbLearningRate = 0.08
	hbMaxDepth     = 2
	hbMinLeaf      = 10
	hbMaxBins      = 32
	hbSubsample    = 0.8
)

// HistBoost is the second gradient-boosting variant: features are
// quantile-binned before tree growth, and each round fits on a random
// subsample of rows. Splits land on bin boundaries, which makes the
// trees coarser and the variant decorrelated from GradBoost.
type HistBoost struct {
	state histBoostState
	seed  int64
	rng   *rand.Rand
}

type histBoostState struct {
	Rounds       int         `json:"rounds"`
	LearningRate float64     `json:"learning_rate"`
	MaxDepth     int         `json:"max_depth"`
	MinLeaf      int         `json:"min_leaf"`
	MaxBins      int         `json:"max_bins"`
	Subsample    float64     `json:"subsample"`
	BinEdges     [][]float64 `json:"bin_edges"` // per feature
	BaseScores   []float64   `json:"base_scores"`
	Trees        [][]*Tree   `json:"trees"` // [round][class]
	Importance   []float64   `json:"importance,omitempty"`
	Trained      bool        `json:"trained"`
}

// NewHistBoost creates an untrained histogram-boosting model.
func NewHistBoost(seed int64) *HistBoost {
	return &HistBoost{
		state: histBoostState{
			Rounds:       hbRounds,
			LearningRate: hbLearningRate,
			MaxDepth:     hbMaxDepth,
			MinLeaf:      hbMinLeaf,
			MaxBins:      hbMaxBins,
			Subsample:    hbSubsample,
		},
		seed: seed,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

func (h *HistBoost) Name() string    { return NameHistBoost }
func (h *HistBoost) IsTrained() bool { return h.state.Trained }

// FeatureImportance returns accumulated split gain per feature index,
// normalized to sum to 1. Nil before training.
func (h *HistBoost) FeatureImportance() []float64 {
	return normalizeImportance(h.state.Importance)
}

func (h *HistBoost) Train(X [][]float64, y []int) error {
	if err := checkTrainInput(h.Name(), X, y); err != nil {
		return err
	}

	n := len(X)
	nFeat := len(X[0])

	h.state.BinEdges = quantileEdges(X, h.state.MaxBins)
	binned := make([][]float64, n)
	for i, x := range X {
		binned[i] = h.binRow(x)
	}

	base := logPriors(y)
	scores := make([][]float64, n)
	for i := range scores {
		scores[i] = make([]float64, NumLevels)
		copy(scores[i], base)
	}

	importance := make([]float64, nFeat)
	trees := make([][]*Tree, h.state.Rounds)
	residual := make([]float64, n)
	sampleSize := int(float64(n) * h.state.Subsample)
	if sampleSize < 1 {
		sampleSize = n
	}

	for round := 0; round < h.state.Rounds; round++ {
		idx := h.rng.Perm(n)[:sampleSize]

		trees[round] = make([]*Tree, NumLevels)
		for k := 0; k < NumLevels; k++ {
			for i := 0; i < n; i++ {
				p := softmax(scores[i])[k]
				target := 0.0
				if y[i] == k {
					target = 1.0
				}
				residual[i] = target - p
			}

			tree := &Tree{}
			builder := &treeBuilder{
				X:    binned,
				cfg:  treeConfig{maxDepth: h.state.MaxDepth, minLeaf: h.state.MinLeaf},
				rng:  h.rng,
				tree: tree,
				gain: importance,
			}
			builder.growRegression(residual, idx, 0)
			trees[round][k] = tree

			for i := 0; i < n; i++ {
				scores[i][k] += h.state.LearningRate * tree.PredictValue(binned[i])
			}
		}
	}

	h.state.BaseScores = base
	h.state.Trees = trees
	h.state.Importance = importance
	h.state.Trained = true
	return nil
}

func (h *HistBoost) PredictProba(X [][]float64) ([][]float64, error) {
	if !h.state.Trained {
		return nil, &ErrNotTrained{Model: h.Name()}
	}
	out := make([][]float64, len(X))
	for i, x := range X {
		bx := h.binRow(x)
		scores := make([]float64, NumLevels)
		copy(scores, h.state.BaseScores)
		for _, round := range h.state.Trees {
			for k, tree := range round {
				scores[k] += h.state.LearningRate * tree.PredictValue(bx)
			}
		}
		out[i] = softmax(scores)
	}
	return out, nil
}

func (h *HistBoost) Predict(X [][]float64) ([]int, error) {
	probas, err := h.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return argmaxRows(probas), nil
}

func (h *HistBoost) Save(path string) error {
	return saveJSON(path, &h.state)
}

func (h *HistBoost) Load(path string) error {
	return loadJSON(path, &h.state)
}

// binRow maps a raw feature row to bin indexes under the stored edges.
func (h *HistBoost) binRow(x []float64) []float64 {
	out := make([]float64, len(x))
	for f, v := range x {
		edges := h.state.BinEdges[f]
		out[f] = float64(sort.SearchFloat64s(edges, v))
	}
	return out
}

// quantileEdges computes up to maxBins-1 quantile cut points per feature.
func quantileEdges(X [][]float64, maxBins int) [][]float64 {
	nFeat := len(X[0])
	edges := make([][]float64, nFeat)
	values := make([]float64, len(X))
	for f := 0; f < nFeat; f++ {
		for i, x := range X {
			values[i] = x[f]
		}
		sort.Float64s(values)

		var cuts []float64
		for b := 1; b < maxBins; b++ {
			pos := b * len(values) / maxBins
			if pos >= len(values) {
				break
			}
			v := values[pos]
			if len(cuts) == 0 || v > cuts[len(cuts)-1] {
				cuts = append(cuts, v)
			}
		}
		edges[f] = cuts
	}
	return edges
}
