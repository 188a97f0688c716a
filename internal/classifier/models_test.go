package classifier

import (
	"errors"
	"math"
	"math/rand"
	"path/filepath"
	"testing"
)

// blobs generates three well-separated 2D clusters, one per class.
func blobs(perClass int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	centers := [][]float64{{0, 0}, {6, 6}, {-6, 6}}
	var X [][]float64
	var y []int
	for class, c := range centers {
		for i := 0; i < perClass; i++ {
			X = append(X, []float64{
				c[0] + rng.NormFloat64(),
				c[1] + rng.NormFloat64(),
			})
			y = append(y, class)
		}
	}
	return X, y
}

func trainedModels(t *testing.T) map[string]Model {
	t.Helper()
	X, y := blobs(60, 7)
	bank := NewBank(42)
	for name, m := range bank {
		if err := m.Train(X, y); err != nil {
			t.Fatalf("train %s: %v", name, err)
		}
	}
	return bank
}

func TestModels_SeparableBlobs(t *testing.T) {
	bank := trainedModels(t)
	probes := [][]float64{{0, 0}, {6, 6}, {-6, 6}}

	for name, m := range bank {
		preds, err := m.Predict(probes)
		if err != nil {
			t.Fatalf("%s Predict = %v", name, err)
		}
		for class, pred := range preds {
			if pred != class {
				t.Errorf("%s: cluster center %d predicted as %d", name, class, pred)
			}
		}
	}
}

func TestModels_ProbaShapeAndMass(t *testing.T) {
	bank := trainedModels(t)
	probes := [][]float64{{5.5, 6.2}}

	for name, m := range bank {
		probas, err := m.PredictProba(probes)
		if err != nil {
			t.Fatalf("%s PredictProba = %v", name, err)
		}
		if len(probas) != 1 {
			t.Fatalf("%s: %d rows for 1 sample, want 1", name, len(probas))
		}
		if len(probas[0]) != NumLevels {
			t.Fatalf("%s: proba width %d, want %d", name, len(probas[0]), NumLevels)
		}
		sum := 0.0
		for _, p := range probas[0] {
			if p < 0 || p > 1 {
				t.Errorf("%s: probability %f outside [0,1]", name, p)
			}
			sum += p
		}
		if math.Abs(sum-1) > 1e-6 {
			t.Errorf("%s: probabilities sum to %f, want 1", name, sum)
		}
	}
}

func TestModels_UntrainedError(t *testing.T) {
	for name, m := range NewBank(1) {
		_, err := m.PredictProba([][]float64{{0, 0}})
		var nt *ErrNotTrained
		if !errors.As(err, &nt) {
			t.Errorf("%s: untrained PredictProba = %v, want ErrNotTrained", name, err)
		}
		if m.IsTrained() {
			t.Errorf("%s: IsTrained true before Train", name)
		}
	}
}

func TestModels_RejectBadTrainInput(t *testing.T) {
	for name, m := range NewBank(1) {
		if err := m.Train(nil, nil); err == nil {
			t.Errorf("%s: empty training set accepted", name)
		}
		if err := m.Train([][]float64{{1, 2}}, []int{9}); err == nil {
			t.Errorf("%s: out-of-range label accepted", name)
		}
	}
}

func TestModels_SaveLoadRoundtrip(t *testing.T) {
	X, y := blobs(40, 11)
	probes := [][]float64{{0.2, -0.3}, {5.8, 6.1}, {-6.2, 5.7}}
	dir := t.TempDir()

	for name, m := range NewBank(42) {
		if err := m.Train(X, y); err != nil {
			t.Fatalf("train %s: %v", name, err)
		}
		before, err := m.PredictProba(probes)
		if err != nil {
			t.Fatalf("%s PredictProba = %v", name, err)
		}

		path := filepath.Join(dir, name+".json")
		if err := m.Save(path); err != nil {
			t.Fatalf("%s Save = %v", name, err)
		}

		var restored Model
		switch name {
		case NameGradBoost:
			restored = NewGradBoost(0)
		case NameBagging:
			restored = NewBagging(0)
		case NameMLP:
			restored = NewMLP(0)
		case NameSVC:
			restored = NewSVC(0)
		case NameHistBoost:
			restored = NewHistBoost(0)
		}
		if err := restored.Load(path); err != nil {
			t.Fatalf("%s Load = %v", name, err)
		}
		if !restored.IsTrained() {
			t.Fatalf("%s: restored model not marked trained", name)
		}

		after, err := restored.PredictProba(probes)
		if err != nil {
			t.Fatalf("%s restored PredictProba = %v", name, err)
		}
		for i := range before {
			for k := range before[i] {
				if math.Abs(before[i][k]-after[i][k]) > 1e-9 {
					t.Errorf("%s: proba[%d][%d] drifted after reload: %f vs %f",
						name, i, k, before[i][k], after[i][k])
				}
			}
		}
	}
}

func TestGradBoost_FeatureImportance(t *testing.T) {
	X, y := blobs(50, 3)
	g := NewGradBoost(42)
	if err := g.Train(X, y); err != nil {
		t.Fatalf("Train = %v", err)
	}
	imp := g.FeatureImportance()
	if len(imp) != 2 {
		t.Fatalf("importance length = %d, want 2", len(imp))
	}
	sum := imp[0] + imp[1]
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("importance sums to %f, want 1", sum)
	}
}

func TestTree_WalkRespectsSplits(t *testing.T) {
	// One manual split: feature 0 <= 1.5 goes left.
	tr := &Tree{Nodes: []Node{
		{Feature: 0, Threshold: 1.5, Left: 1, Right: 2},
		{Left: -1, Right: -1, Dist: []float64{1, 0, 0}},
		{Left: -1, Right: -1, Dist: []float64{0, 0, 1}},
	}}
	if d := tr.PredictDist([]float64{1.0}); d[0] != 1 {
		t.Errorf("left leaf dist = %v, want class 0", d)
	}
	if d := tr.PredictDist([]float64{2.0}); d[2] != 1 {
		t.Errorf("right leaf dist = %v, want class 2", d)
	}
}
