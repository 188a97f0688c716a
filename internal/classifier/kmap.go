package classifier

import "fmt"

// KMap is the deterministic rule-lookup classifier over the 4-bit
// binary pattern. Only 16 distinct patterns exist, so it is a fixed
// table rather than a trainable model: each pattern maps to the
// majority label seen for it in training, with an empirical
// confidence. Unseen patterns fall back to the globally most common
// label with a uniform probability vector.
type KMap struct {
	state kmapState
}

type kmapEntry struct {
	Label      int     `json:"label"`
	Confidence float64 `json:"confidence"`
}

type kmapState struct {
	Table         map[string]kmapEntry `json:"table"`
	FallbackLabel int                  `json:"fallback_label"`
	Trained       bool                 `json:"trained"`
}

// NewKMap creates an untrained pattern table.
func NewKMap() *KMap {
	return &KMap{state: kmapState{Table: make(map[string]kmapEntry)}}
}

func (k *KMap) Name() string    { return NameKMap }
func (k *KMap) IsTrained() bool { return k.state.Trained }

// TrainPatterns builds the lookup table from parallel pattern/label
// pairs. Labels are 0-based class indexes.
func (k *KMap) TrainPatterns(patterns []string, y []int) error {
	if len(patterns) == 0 {
		return fmt.Errorf("%s: empty training set", k.Name())
	}
	if len(patterns) != len(y) {
		return fmt.Errorf("%s: %d patterns but %d labels", k.Name(), len(patterns), len(y))
	}

	counts := make(map[string][]int)
	global := make([]int, NumLevels)
	for i, p := range patterns {
		if len(p) != 4 {
			return fmt.Errorf("%s: pattern %q is not 4 bits", k.Name(), p)
		}
		label := y[i]
		if label < 0 || label >= NumLevels {
			return fmt.Errorf("%s: label %d out of range [0,%d)", k.Name(), label, NumLevels)
		}
		if counts[p] == nil {
			counts[p] = make([]int, NumLevels)
		}
		counts[p][label]++
		global[label]++
	}

	table := make(map[string]kmapEntry, len(counts))
	for p, c := range counts {
		best, total := 0, 0
		for label, n := range c {
			total += n
			if n > c[best] {
				best = label
			}
		}
		table[p] = kmapEntry{
			Label:      best,
			Confidence: float64(c[best]) / float64(total),
		}
	}

	fallback := 0
	for label, n := range global {
		if n > global[fallback] {
			fallback = label
		}
	}

	k.state.Table = table
	k.state.FallbackLabel = fallback
	k.state.Trained = true
	return nil
}

// PredictPattern returns the label for one pattern.
func (k *KMap) PredictPattern(pattern string) (int, error) {
	if !k.state.Trained {
		return 0, &ErrNotTrained{Model: k.Name()}
	}
	if entry, ok := k.state.Table[pattern]; ok {
		return entry.Label, nil
	}
	return k.state.FallbackLabel, nil
}

// ProbaPattern returns the probability vector for one pattern: the
// table confidence on the majority label with the remainder spread
// evenly, or a uniform vector for unseen patterns.
func (k *KMap) ProbaPattern(pattern string) ([]float64, error) {
	if !k.state.Trained {
		return nil, &ErrNotTrained{Model: k.Name()}
	}
	entry, ok := k.state.Table[pattern]
	if !ok {
		return uniformProba(), nil
	}
	p := make([]float64, NumLevels)
	rest := (1 - entry.Confidence) / float64(NumLevels-1)
	for i := range p {
		if i == entry.Label {
			p[i] = entry.Confidence
		} else {
			p[i] = rest
		}
	}
	return p, nil
}

func (k *KMap) Save(path string) error {
	return saveJSON(path, &k.state)
}

func (k *KMap) Load(path string) error {
	return loadJSON(path, &k.state)
}
