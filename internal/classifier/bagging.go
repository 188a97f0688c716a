package classifier

import "math/rand"

// Bagging hyperparameter defaults.
const (
	bagTrees       = 40
	bagMaxDepth    = 8
	bagMinLeaf     = 3
	bagMaxFeatures = 6
)

// Bagging is a bootstrap-aggregated ensemble of CART classification
// trees with per-split feature subsampling. Probabilities are the mean
// of per-tree leaf distributions.
type Bagging struct {
	state baggingState
	seed  int64
	rng   *rand.Rand
}

type baggingState struct {
	NTrees      int     `json:"n_trees"`
	MaxDepth    int     `json:"max_depth"`
	MinLeaf     int     `json:"min_leaf"`
	MaxFeatures int     `json:"max_features"`
	Trees       []*Tree `json:"trees"`
	Trained     bool    `json:"trained"`
}

// NewBagging creates an untrained bagging ensemble.
func NewBagging(seed int64) *Bagging {
	return &Bagging{
		state: baggingState{
			NTrees:      bagTrees,
			MaxDepth:    bagMaxDepth,
			MinLeaf:     bagMinLeaf,
			MaxFeatures: bagMaxFeatures,
		},
		seed: seed,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

func (b *Bagging) Name() string    { return NameBagging }
func (b *Bagging) IsTrained() bool { return b.state.Trained }

func (b *Bagging) Train(X [][]float64, y []int) error {
	if err := checkTrainInput(b.Name(), X, y); err != nil {
		return err
	}

	n := len(X)
	trees := make([]*Tree, b.state.NTrees)
	for t := range trees {
		// Bootstrap sample with replacement.
		idx := make([]int, n)
		for i := range idx {
			idx[i] = b.rng.Intn(n)
		}

		tree := &Tree{}
		builder := &treeBuilder{
			X: X,
			cfg: treeConfig{
				maxDepth:    b.state.MaxDepth,
				minLeaf:     b.state.MinLeaf,
				maxFeatures: b.state.MaxFeatures,
			},
			rng:  b.rng,
			tree: tree,
		}
		builder.growClassification(y, idx, 0)
		trees[t] = tree
	}

	b.state.Trees = trees
	b.state.Trained = true
	return nil
}

func (b *Bagging) PredictProba(X [][]float64) ([][]float64, error) {
	if !b.state.Trained {
		return nil, &ErrNotTrained{Model: b.Name()}
	}
	out := make([][]float64, len(X))
	for i, x := range X {
		mean := make([]float64, NumLevels)
		for _, tree := range b.state.Trees {
			dist := tree.PredictDist(x)
			for k, p := range dist {
				mean[k] += p
			}
		}
		for k := range mean {
			mean[k] /= float64(len(b.state.Trees))
		}
		out[i] = mean
	}
	return out, nil
}

func (b *Bagging) Predict(X [][]float64) ([]int, error) {
	probas, err := b.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return argmaxRows(probas), nil
}

func (b *Bagging) Save(path string) error {
	return saveJSON(path, &b.state)
}

func (b *Bagging) Load(path string) error {
	return loadJSON(path, &b.state)
}
