package ensemble

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/abhisek/leveliz/internal/classifier"
)

func TestWeightScenarios_SumToOne(t *testing.T) {
	for _, name := range ScenarioNames() {
		weights, err := GetModelWeights(name)
		if err != nil {
			t.Fatalf("GetModelWeights(%s) = %v", name, err)
		}
		if len(weights) != 6 {
			t.Errorf("%s: %d weights, want 6", name, len(weights))
		}
		sum := 0.0
		for _, w := range weights {
			sum += w
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("%s: weights sum to %.12f, want 1.0", name, sum)
		}
	}
}

func TestGetModelWeights_Unknown(t *testing.T) {
	if _, err := GetModelWeights("aggressive"); err == nil {
		t.Error("unknown scenario accepted")
	}
}

// trainingSet builds a linearly separated toy problem with patterns
// correlated to the label.
func trainingSet(n int, seed int64) ([][]float64, []int, []string) {
	rng := rand.New(rand.NewSource(seed))
	patterns := []string{"0000", "0011", "1111"}
	var X [][]float64
	var y []int
	var pats []string
	for i := 0; i < n; i++ {
		class := i % 3
		X = append(X, []float64{
			float64(class)*5 + rng.NormFloat64(),
			float64(class)*-4 + rng.NormFloat64(),
		})
		y = append(y, class)
		pats = append(pats, patterns[class])
	}
	return X, y, pats
}

func TestTrainAll_AndPredictEnsemble(t *testing.T) {
	X, y, patterns := trainingSet(120, 5)
	c := NewCoordinator(42)
	if err := c.TrainAll(X, y, patterns); err != nil {
		t.Fatalf("TrainAll = %v", err)
	}

	if got := len(c.TrainedModels()); got != 6 {
		t.Fatalf("trained models = %d (%v), want 6", got, c.TrainedModels())
	}

	preds, err := c.PredictEnsemble([]float64{10.1, -8.2}, "1111")
	if err != nil {
		t.Fatalf("PredictEnsemble = %v", err)
	}
	if len(preds) != 6 {
		t.Fatalf("ensemble returned %d vectors, want 6", len(preds))
	}
	for name, p := range preds {
		if len(p) != classifier.NumLevels {
			t.Errorf("%s: vector width %d, want %d", name, len(p), classifier.NumLevels)
		}
	}
}

func TestPredictEnsemble_Untrained(t *testing.T) {
	c := NewCoordinator(42)
	_, err := c.PredictEnsemble([]float64{0, 0}, "0000")
	var noModels *ErrNoModels
	if !errors.As(err, &noModels) {
		t.Errorf("PredictEnsemble on untrained = %v, want ErrNoModels", err)
	}
}

func TestTrainAll_AllModelsFail(t *testing.T) {
	c := NewCoordinator(42)
	// Labels out of range fail every statistical model, and the bad
	// pattern fails the K-Map too.
	err := c.TrainAll([][]float64{{1, 2}}, []int{7}, []string{"xx"})
	var noModels *ErrNoModels
	if !errors.As(err, &noModels) {
		t.Errorf("TrainAll with universally bad input = %v, want ErrNoModels", err)
	}
	if c.IsTrained() {
		t.Error("coordinator marked trained after total failure")
	}
}

func TestTrainAll_PartialFailureTolerated(t *testing.T) {
	X, y, _ := trainingSet(90, 9)
	c := NewCoordinator(42)
	// Bad patterns knock out only the K-Map; the five statistical
	// models must survive.
	badPatterns := make([]string, len(y))
	for i := range badPatterns {
		badPatterns[i] = "toolong"
	}
	if err := c.TrainAll(X, y, badPatterns); err != nil {
		t.Fatalf("TrainAll = %v, want partial success", err)
	}
	if got := len(c.TrainedModels()); got != 5 {
		t.Fatalf("trained models = %d (%v), want 5 without kmap", got, c.TrainedModels())
	}

	preds, err := c.PredictEnsemble([]float64{0.1, 0.2}, "0000")
	if err != nil {
		t.Fatalf("PredictEnsemble = %v", err)
	}
	if _, ok := preds[classifier.NameKMap]; ok {
		t.Error("kmap present in ensemble despite failed training")
	}
}

func TestSaveAll_LoadAll_Roundtrip(t *testing.T) {
	X, y, patterns := trainingSet(120, 13)
	c := NewCoordinator(42)
	if err := c.TrainAll(X, y, patterns); err != nil {
		t.Fatalf("TrainAll = %v", err)
	}

	probe := []float64{5.2, -3.9}
	before, err := c.PredictEnsemble(probe, "0011")
	if err != nil {
		t.Fatalf("PredictEnsemble = %v", err)
	}

	dir := t.TempDir()
	if err := c.SaveAll(dir); err != nil {
		t.Fatalf("SaveAll = %v", err)
	}

	meta, err := readMetadata(dir)
	if err != nil {
		t.Fatalf("readMetadata = %v", err)
	}
	if meta.RunID == "" || meta.Samples != 120 || len(meta.Models) != 6 {
		t.Errorf("metadata = %+v, want run id, 120 samples, 6 models", meta)
	}

	restored := NewCoordinator(42)
	if err := restored.LoadAll(dir); err != nil {
		t.Fatalf("LoadAll = %v", err)
	}
	after, err := restored.PredictEnsemble(probe, "0011")
	if err != nil {
		t.Fatalf("restored PredictEnsemble = %v", err)
	}

	for name, b := range before {
		a, ok := after[name]
		if !ok {
			t.Errorf("%s missing after reload", name)
			continue
		}
		for k := range b {
			if math.Abs(a[k]-b[k]) > 1e-9 {
				t.Errorf("%s: proba[%d] drifted after reload: %f vs %f", name, k, b[k], a[k])
			}
		}
	}
}

func TestLoadAll_EmptyDir(t *testing.T) {
	c := NewCoordinator(42)
	err := c.LoadAll(t.TempDir())
	var noModels *ErrNoModels
	if !errors.As(err, &noModels) {
		t.Errorf("LoadAll on empty dir = %v, want ErrNoModels", err)
	}
}

func TestSaveAll_Untrained(t *testing.T) {
	c := NewCoordinator(42)
	if err := c.SaveAll(t.TempDir()); err == nil {
		t.Error("SaveAll on untrained coordinator accepted")
	}
}
