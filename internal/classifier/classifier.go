// Package classifier implements the six level classifiers behind one
// contract: five statistical models trained on the numeric feature
// matrix, plus the K-Map rule engine trained on 4-bit patterns.
package classifier

import (
	"fmt"
	"math"
)

// NumLevels is the fixed number of output classes. Every probability
// vector in this package has exactly this width, and every probability
// matrix is [n_samples][NumLevels] even for a single sample; the class
// count is never inferred from array shapes.
const NumLevels = 3

// Model names, used as map keys in ensemble weights and as artifact
// file names.
const (
	NameGradBoost = "grad_boost"
	NameBagging   = "bagging"
	NameMLP       = "mlp"
	NameSVC       = "svc"
	NameHistBoost = "hist_boost"
	NameKMap      = "kmap"
)

// Model is the shared contract for the five statistical classifiers.
// Labels are 0-based class indexes (level-1). Implementations own
// their trained/untrained flag; Train fully replaces prior state.
type Model interface {
	Name() string
	Train(X [][]float64, y []int) error
	Predict(X [][]float64) ([]int, error)
	// PredictProba returns one probability vector of width NumLevels
	// per input row.
	PredictProba(X [][]float64) ([][]float64, error)
	Save(path string) error
	Load(path string) error
	IsTrained() bool
}

// ErrNotTrained reports a model used before training.
type ErrNotTrained struct {
	Model string
}

func (e *ErrNotTrained) Error() string {
	return fmt.Sprintf("model %s is not trained", e.Model)
}

// NewBank returns the five statistical models, keyed by name, each
// seeded deterministically from the given seed.
func NewBank(seed int64) map[string]Model {
	return map[string]Model{
		NameGradBoost: NewGradBoost(seed),
		NameBagging:   NewBagging(seed + 1),
		NameMLP:       NewMLP(seed + 2),
		NameSVC:       NewSVC(seed + 3),
		NameHistBoost: NewHistBoost(seed + 4),
	}
}

// BankOrder is the canonical iteration order for the statistical models.
var BankOrder = []string{NameGradBoost, NameBagging, NameMLP, NameSVC, NameHistBoost}

func checkTrainInput(name string, X [][]float64, y []int) error {
	if len(X) == 0 {
		return fmt.Errorf("%s: empty training set", name)
	}
	if len(X) != len(y) {
		return fmt.Errorf("%s: %d rows but %d labels", name, len(X), len(y))
	}
	for _, label := range y {
		if label < 0 || label >= NumLevels {
			return fmt.Errorf("%s: label %d out of range [0,%d)", name, label, NumLevels)
		}
	}
	return nil
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

// softmax converts raw scores to a probability vector in place-safe form.
func softmax(scores []float64) []float64 {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	out := make([]float64, len(scores))
	sum := 0.0
	for i, s := range scores {
		out[i] = math.Exp(s - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// uniformProba returns an even probability vector.
func uniformProba() []float64 {
	p := make([]float64, NumLevels)
	for i := range p {
		p[i] = 1.0 / NumLevels
	}
	return p
}

// argmaxRows maps a probability matrix to class predictions.
func argmaxRows(probas [][]float64) []int {
	out := make([]int, len(probas))
	for i, p := range probas {
		out[i] = argmax(p)
	}
	return out
}

// classPriors returns the label distribution of y.
func classPriors(y []int) []float64 {
	counts := make([]float64, NumLevels)
	for _, label := range y {
		counts[label]++
	}
	for i := range counts {
		counts[i] /= float64(len(y))
	}
	return counts
}
