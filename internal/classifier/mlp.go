package classifier

import (
	"math"
	"math/rand"
)

// MLP hyperparameter defaults.
const (
	mlpEpochs    = 120
	mlpBatchSize = 32
	mlpLearnRate = 0.001
	mlpHidden1   = 32
	mlpHidden2   = 16

	adamBeta1 = 0.9
	adamBeta2 = 0.999
	adamEps   = 1e-8
)

// MLP is a multilayer perceptron with two ReLU hidden layers and a
// softmax output, trained with minibatch Adam on cross-entropy loss.
// Inputs are standardized with the training set's mean and std.
type MLP struct {
	state mlpState
	seed  int64
	rng   *rand.Rand
}

type mlpState struct {
	Epochs    int           `json:"epochs"`
	BatchSize int           `json:"batch_size"`
	LearnRate float64       `json:"learn_rate"`
	Layers    []int         `json:"layers"`
	Weights   [][][]float64 `json:"weights"` // [layer][out][in]
	Biases    [][]float64   `json:"biases"`  // [layer][out]
	Mean      []float64     `json:"mean"`
	Std       []float64     `json:"std"`
	Trained   bool          `json:"trained"`
}

// NewMLP creates an untrained perceptron.
func NewMLP(seed int64) *MLP {
	return &MLP{
		state: mlpState{
			Epochs:    mlpEpochs,
			BatchSize: mlpBatchSize,
			LearnRate: mlpLearnRate,
		},
		seed: seed,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

func (m *MLP) Name() string    { return NameMLP }
func (m *MLP) IsTrained() bool { return m.state.Trained }

func (m *MLP) Train(X [][]float64, y []int) error {
	if err := checkTrainInput(m.Name(), X, y); err != nil {
		return err
	}

	n := len(X)
	nFeat := len(X[0])
	m.state.Mean, m.state.Std = standardizeStats(X)
	Xs := make([][]float64, n)
	for i, x := range X {
		Xs[i] = m.standardize(x)
	}

	m.state.Layers = []int{nFeat, mlpHidden1, mlpHidden2, NumLevels}
	m.initWeights()

	// Adam moment buffers, shaped like the weights and biases.
	mw, vw := zeroLike(m.state.Weights), zeroLike(m.state.Weights)
	mb, vb := zeroLikeBias(m.state.Biases), zeroLikeBias(m.state.Biases)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	step := 0
	for epoch := 0; epoch < m.state.Epochs; epoch++ {
		m.rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

		for start := 0; start < n; start += m.state.BatchSize {
			end := start + m.state.BatchSize
			if end > n {
				end = n
			}
			batch := order[start:end]

			gw := zeroLike(m.state.Weights)
			gb := zeroLikeBias(m.state.Biases)

			for _, i := range batch {
				m.backprop(Xs[i], y[i], gw, gb)
			}

			scale := 1.0 / float64(len(batch))
			step++
			m.adamUpdate(gw, mw, vw, gb, mb, vb, scale, step)
		}
	}

	m.state.Trained = true
	return nil
}

func (m *MLP) PredictProba(X [][]float64) ([][]float64, error) {
	if !m.state.Trained {
		return nil, &ErrNotTrained{Model: m.Name()}
	}
	out := make([][]float64, len(X))
	for i, x := range X {
		acts := m.forward(m.standardize(x))
		out[i] = acts[len(acts)-1]
	}
	return out, nil
}

func (m *MLP) Predict(X [][]float64) ([]int, error) {
	probas, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return argmaxRows(probas), nil
}

func (m *MLP) Save(path string) error {
	return saveJSON(path, &m.state)
}

func (m *MLP) Load(path string) error {
	return loadJSON(path, &m.state)
}

func (m *MLP) initWeights() {
	layers := m.state.Layers
	m.state.Weights = make([][][]float64, len(layers)-1)
	m.state.Biases = make([][]float64, len(layers)-1)
	for l := 0; l < len(layers)-1; l++ {
		in, out := layers[l], layers[l+1]
		// He initialization for the ReLU layers.
		scale := math.Sqrt(2.0 / float64(in))
		m.state.Weights[l] = make([][]float64, out)
		m.state.Biases[l] = make([]float64, out)
		for o := 0; o < out; o++ {
			m.state.Weights[l][o] = make([]float64, in)
			for i := 0; i < in; i++ {
				m.state.Weights[l][o][i] = m.rng.NormFloat64() * scale
			}
		}
	}
}

// forward returns the activations of every layer; the last entry is
// the softmax output.
func (m *MLP) forward(x []float64) [][]float64 {
	acts := make([][]float64, len(m.state.Weights)+1)
	acts[0] = x
	for l, W := range m.state.Weights {
		z := make([]float64, len(W))
		for o, row := range W {
			sum := m.state.Biases[l][o]
			for i, w := range row {
				sum += w * acts[l][i]
			}
			z[o] = sum
		}
		if l == len(m.state.Weights)-1 {
			acts[l+1] = softmax(z)
		} else {
			for o, v := range z {
				if v < 0 {
					z[o] = 0
				}
			}
			acts[l+1] = z
		}
	}
	return acts
}

// backprop accumulates gradients for one sample into gw/gb.
func (m *MLP) backprop(x []float64, label int, gw [][][]float64, gb [][]float64) {
	acts := m.forward(x)
	nLayers := len(m.state.Weights)

	// Softmax + cross-entropy output delta.
	delta := make([]float64, NumLevels)
	copy(delta, acts[nLayers])
	delta[label] -= 1

	for l := nLayers - 1; l >= 0; l-- {
		for o, row := range m.state.Weights[l] {
			gb[l][o] += delta[o]
			for i := range row {
				gw[l][o][i] += delta[o] * acts[l][i]
			}
		}
		if l == 0 {
			break
		}
		prev := make([]float64, len(acts[l]))
		for i := range prev {
			if acts[l][i] <= 0 { // ReLU gradient
				continue
			}
			sum := 0.0
			for o := range m.state.Weights[l] {
				sum += m.state.Weights[l][o][i] * delta[o]
			}
			prev[i] = sum
		}
		delta = prev
	}
}

func (m *MLP) adamUpdate(gw, mw, vw [][][]float64, gb, mb, vb [][]float64, scale float64, step int) {
	lr := m.state.LearnRate
	c1 := 1 - math.Pow(adamBeta1, float64(step))
	c2 := 1 - math.Pow(adamBeta2, float64(step))

	for l := range m.state.Weights {
		for o := range m.state.Weights[l] {
			for i := range m.state.Weights[l][o] {
				g := gw[l][o][i] * scale
				mw[l][o][i] = adamBeta1*mw[l][o][i] + (1-adamBeta1)*g
				vw[l][o][i] = adamBeta2*vw[l][o][i] + (1-adamBeta2)*g*g
				m.state.Weights[l][o][i] -= lr * (mw[l][o][i] / c1) / (math.Sqrt(vw[l][o][i]/c2) + adamEps)
			}
			g := gb[l][o] * scale
			mb[l][o] = adamBeta1*mb[l][o] + (1-adamBeta1)*g
			vb[l][o] = adamBeta2*vb[l][o] + (1-adamBeta2)*g*g
			m.state.Biases[l][o] -= lr * (mb[l][o] / c1) / (math.Sqrt(vb[l][o]/c2) + adamEps)
		}
	}
}

func (m *MLP) standardize(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - m.state.Mean[i]) / m.state.Std[i]
	}
	return out
}

// standardizeStats computes per-feature mean and std; std floors at a
// small epsilon so constant features don't divide by zero.
func standardizeStats(X [][]float64) ([]float64, []float64) {
	nFeat := len(X[0])
	mean := make([]float64, nFeat)
	std := make([]float64, nFeat)
	for _, x := range X {
		for i, v := range x {
			mean[i] += v
		}
	}
	for i := range mean {
		mean[i] /= float64(len(X))
	}
	for _, x := range X {
		for i, v := range x {
			d := v - mean[i]
			std[i] += d * d
		}
	}
	for i := range std {
		std[i] = math.Sqrt(std[i] / float64(len(X)))
		if std[i] < 1e-9 {
			std[i] = 1
		}
	}
	return mean, std
}

func zeroLike(w [][][]float64) [][][]float64 {
	out := make([][][]float64, len(w))
	for l := range w {
		out[l] = make([][]float64, len(w[l]))
		for o := range w[l] {
			out[l][o] = make([]float64, len(w[l][o]))
		}
	}
	return out
}

func zeroLikeBias(b [][]float64) [][]float64 {
	out := make([][]float64, len(b))
	for l := range b {
		out[l] = make([]float64, len(b[l]))
	}
	return out
}
