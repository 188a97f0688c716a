package classifier

import (
	"math"
	"math/rand"
)

// GradBoost hyperparameter defaults.
const (
	gbRounds       = 50
	gbLearningRate = 0.1
	gbMaxDepth     = 3
	gbMinLeaf      = 5
)

// GradBoost is a multiclass gradient-boosted tree model: one regression
// tree per class per round, fit to softmax residuals, on top of
// log-prior base scores.
type GradBoost struct {
	state gradBoostState
	seed  int64
	rng   *rand.Rand
}

type gradBoostState struct {
	Rounds       int       `json:"rounds"`
	LearningRate float64   `json:"learning_rate"`
	MaxDepth     int       `json:"max_depth"`
	MinLeaf      int       `json:"min_leaf"`
	BaseScores   []float64 `json:"base_scores"`
	Trees        [][]*Tree `json:"trees"` // [round][class]
	Importance   []float64 `json:"importance,omitempty"`
	Trained      bool      `json:"trained"`
}

// NewGradBoost creates an untrained gradient-boosting model.
func NewGradBoost(seed int64) *GradBoost {
	return &GradBoost{
		state: gradBoostState{
			Rounds:       gbRounds,
			LearningRate: gbLearningRate,
			MaxDepth:     gbMaxDepth,
			MinLeaf:      gbMinLeaf,
		},
		seed: seed,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

func (g *GradBoost) Name() string    { return NameGradBoost }
func (g *GradBoost) IsTrained() bool { return g.state.Trained }

// FeatureImportance returns accumulated split gain per feature index,
// normalized to sum to 1. Nil before training.
func (g *GradBoost) FeatureImportance() []float64 {
	return normalizeImportance(g.state.Importance)
}

func (g *GradBoost) Train(X [][]float64, y []int) error {
	if err := checkTrainInput(g.Name(), X, y); err != nil {
		return err
	}

	n := len(X)
	nFeat := len(X[0])

	base := logPriors(y)
	scores := make([][]float64, n)
	for i := range scores {
		scores[i] = make([]float64, NumLevels)
		copy(scores[i], base)
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	importance := make([]float64, nFeat)
	trees := make([][]*Tree, g.state.Rounds)
	residual := make([]float64, n)

	for round := 0; round < g.state.Rounds; round++ {
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
				X:    X,
				cfg:  treeConfig{maxDepth: g.state.MaxDepth, minLeaf: g.state.MinLeaf},
				rng:  g.rng,
				tree: tree,
				gain: importance,
			}
			builder.growRegression(residual, idx, 0)
			trees[round][k] = tree

			for i := 0; i < n; i++ {
				scores[i][k] += g.state.LearningRate * tree.PredictValue(X[i])
			}
		}
	}

	g.state.BaseScores = base
	g.state.Trees = trees
	g.state.Importance = importance
	g.state.Trained = true
	return nil
}

func (g *GradBoost) PredictProba(X [][]float64) ([][]float64, error) {
	if !g.state.Trained {
		return nil, &ErrNotTrained{Model: g.Name()}
	}
	out := make([][]float64, len(X))
	for i, x := range X {
		scores := make([]float64, NumLevels)
		copy(scores, g.state.BaseScores)
		for _, round := range g.state.Trees {
			for k, tree := range round {
				scores[k] += g.state.LearningRate * tree.PredictValue(x)
			}
		}
		out[i] = softmax(scores)
	}
	return out, nil
}

func (g *GradBoost) Predict(X [][]float64) ([]int, error) {
	probas, err := g.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return argmaxRows(probas), nil
}

func (g *GradBoost) Save(path string) error {
	return saveJSON(path, &g.state)
}

func (g *GradBoost) Load(path string) error {
	return loadJSON(path, &g.state)
}

// logPriors returns log class frequencies, the usual boosting base score.
func logPriors(y []int) []float64 {
	priors := classPriors(y)
	out := make([]float64, NumLevels)
	for i, p := range priors {
		if p <= 0 {
			p = 1e-9
		}
		out[i] = math.Log(p)
	}
	return out
}

func normalizeImportance(gains []float64) []float64 {
	if gains == nil {
		return nil
	}
	sum := 0.0
	for _, g := range gains {
		sum += g
	}
	out := make([]float64, len(gains))
	if sum <= 0 {
		return out
	}
	for i, g := range gains {
		out[i] = g / sum
	}
	return out
}
