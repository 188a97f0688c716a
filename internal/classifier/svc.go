package classifier

import (
	"math"
	"math/rand"
)

// SVC hyperparameter defaults.
const (
	svcLambda = 0.001
	svcPasses = 5
)

// SVC is an RBF-kernel support-vector classifier trained one-vs-rest
// with kernelized Pegasos (stochastic subgradient on the hinge loss).
// Probabilities are a softmax over the three decision values rather
// than Platt-scaled, which keeps the model self-contained.
type SVC struct {
	state svcState
	seed  int64
	rng   *rand.Rand
}

type svcState struct {
	Lambda  float64     `json:"lambda"`
	Passes  int         `json:"passes"`
	Gamma   float64     `json:"gamma"`
	Mean    []float64   `json:"mean"`
	Std     []float64   `json:"std"`
	Support [][]float64 `json:"support"` // standardized support vectors
	// Coef holds one dual coefficient per class per support vector.
	Coef    [][]float64 `json:"coef"` // [class][support]
	Trained bool        `json:"trained"`
}

// NewSVC creates an untrained support-vector classifier.
func NewSVC(seed int64) *SVC {
	return &SVC{
		state: svcState{
			Lambda: svcLambda,
			Passes: svcPasses,
		},
		seed: seed,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

func (s *SVC) Name() string    { return NameSVC }
func (s *SVC) IsTrained() bool { return s.state.Trained }

func (s *SVC) Train(X [][]float64, y []int) error {
	if err := checkTrainInput(s.Name(), X, y); err != nil {
		return err
	}

	n := len(X)
	s.state.Mean, s.state.Std = standardizeStats(X)
	Xs := make([][]float64, n)
	for i, x := range X {
		Xs[i] = s.standardize(x)
	}

	// The "scale" gamma heuristic; inputs are standardized, so the
	// average feature variance is 1.
	s.state.Gamma = 1.0 / float64(len(X[0]))

	// A shared kernel matrix keeps the three one-vs-rest problems from
	// recomputing pairwise kernels.
	K := make([][]float64, n)
	for i := range K {
		K[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		K[i][i] = 1
		for j := i + 1; j < n; j++ {
			v := rbf(Xs[i], Xs[j], s.state.Gamma)
			K[i][j] = v
			K[j][i] = v
		}
	}

	steps := s.state.Passes * n
	alphas := make([][]float64, NumLevels)
	for k := 0; k < NumLevels; k++ {
		alphas[k] = s.trainBinary(K, y, k, steps)
	}

	// Keep only rows that are a support vector for at least one class.
	finalScale := 1.0 / (s.state.Lambda * float64(steps))
	var support [][]float64
	coef := make([][]float64, NumLevels)
	for i := 0; i < n; i++ {
		used := false
		for k := 0; k < NumLevels; k++ {
			if alphas[k][i] != 0 {
				used = true
			}
		}
		if !used {
			continue
		}
		support = append(support, Xs[i])
		for k := 0; k < NumLevels; k++ {
			sign := -1.0
			if y[i] == k {
				sign = 1.0
			}
			coef[k] = append(coef[k], alphas[k][i]*sign*finalScale)
		}
	}

	s.state.Support = support
	s.state.Coef = coef
	s.state.Trained = true
	return nil
}

// trainBinary runs kernelized Pegasos for one one-vs-rest problem and
// returns the (unscaled) dual coefficients.
func (s *SVC) trainBinary(K [][]float64, y []int, class, steps int) []float64 {
	n := len(K)
	alpha := make([]float64, n)
	for t := 1; t <= steps; t++ {
		i := s.rng.Intn(n)
		f := 0.0
		for j := 0; j < n; j++ {
			if alpha[j] == 0 {
				continue
			}
			sign := -1.0
			if y[j] == class {
				sign = 1.0
			}
			f += alpha[j] * sign * K[j][i]
		}
		f /= s.state.Lambda * float64(t)

		yi := -1.0
		if y[i] == class {
			yi = 1.0
		}
		if yi*f < 1 {
			alpha[i]++
		}
	}
	return alpha
}

// decision returns the three one-vs-rest margins for one raw row.
func (s *SVC) decision(x []float64) []float64 {
	xs := s.standardize(x)
	out := make([]float64, NumLevels)
	for j, sv := range s.state.Support {
		k := rbf(sv, xs, s.state.Gamma)
		for c := 0; c < NumLevels; c++ {
			out[c] += s.state.Coef[c][j] * k
		}
	}
	return out
}

func (s *SVC) PredictProba(X [][]float64) ([][]float64, error) {
	if !s.state.Trained {
		return nil, &ErrNotTrained{Model: s.Name()}
	}
	out := make([][]float64, len(X))
	for i, x := range X {
		out[i] = softmax(s.decision(x))
	}
	return out, nil
}

func (s *SVC) Predict(X [][]float64) ([]int, error) {
	probas, err := s.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return argmaxRows(probas), nil
}

func (s *SVC) Save(path string) error {
	return saveJSON(path, &s.state)
}

func (s *SVC) Load(path string) error {
	return loadJSON(path, &s.state)
}

func (s *SVC) standardize(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - s.state.Mean[i]) / s.state.Std[i]
	}
	return out
}

func rbf(a, b []float64, gamma float64) float64 {
	d := 0.0
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return math.Exp(-gamma * d)
}
