// Package ensemble trains and queries the six classifiers as a group,
// tolerating individual model failures.
package ensemble

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/leveliz/internal/classifier"
)

// ErrNoModels reports an ensemble query with zero usable models.
type ErrNoModels struct {
	Op string
}

func (e *ErrNoModels) Error() string {
	return fmt.Sprintf("%s: no models available", e.Op)
}

// Metadata describes one persisted training run.
type Metadata struct {
	RunID     string   `json:"run_id"`
	TrainedAt string   `json:"trained_at"`
	Samples   int      `json:"samples"`
	Models    []string `json:"models"`
}

const metadataFile = "metadata.json"

// Coordinator owns the five statistical models and the K-Map table.
// Each TrainAll call fully replaces all model state.
type Coordinator struct {
	models map[string]classifier.Model
	kmap   *classifier.KMap
	seed   int64

	// trained holds the names of models whose last training succeeded;
	// only these participate in prediction.
	trained map[string]bool
	samples int
}

// NewCoordinator creates a coordinator with untrained models.
func NewCoordinator(seed int64) *Coordinator {
	return &Coordinator{
		models:  classifier.NewBank(seed),
		kmap:    classifier.NewKMap(),
		seed:    seed,
		trained: make(map[string]bool),
	}
}

// TrainAll trains every model on the feature matrix and the K-Map on
// the parallel binary patterns. A single model's failure is logged and
// excluded; TrainAll errors only when no model trained.
func (c *Coordinator) TrainAll(X [][]float64, y []int, patterns []string) error {
	// Replace, never merge: a fresh bank drops all previous state.
	c.models = classifier.NewBank(c.seed)
	c.kmap = classifier.NewKMap()
	c.trained = make(map[string]bool)

	for _, name := range classifier.BankOrder {
		m := c.models[name]
		if err := m.Train(X, y); err != nil {
			slog.Warn("model training failed, excluding from ensemble", "model", name, "error", err)
			continue
		}
		c.trained[name] = true
		slog.Debug("model trained", "model", name, "samples", len(X))
	}

	if err := c.kmap.TrainPatterns(patterns, y); err != nil {
		slog.Warn("model training failed, excluding from ensemble", "model", c.kmap.Name(), "error", err)
	} else {
		c.trained[c.kmap.Name()] = true
	}

	if len(c.trained) == 0 {
		return &ErrNoModels{Op: "train"}
	}
	c.samples = len(X)
	return nil
}

// PredictEnsemble fans one feature row out to every trained model and
// returns per-model probability vectors. Models that fail at inference
// are logged and skipped; the call errors only when no model produced a
// vector.
func (c *Coordinator) PredictEnsemble(x []float64, pattern string) (map[string][]float64, error) {
	out := make(map[string][]float64)

	for _, name := range classifier.BankOrder {
		if !c.trained[name] {
			continue
		}
		probas, err := c.models[name].PredictProba([][]float64{x})
		if err != nil {
			slog.Warn("model prediction failed, excluding from vote", "model", name, "error", err)
			continue
		}
		out[name] = probas[0]
	}

	if c.trained[c.kmap.Name()] {
		proba, err := c.kmap.ProbaPattern(pattern)
		if err != nil {
			slog.Warn("model prediction failed, excluding from vote", "model", c.kmap.Name(), "error", err)
		} else {
			out[c.kmap.Name()] = proba
		}
	}

	if len(out) == 0 {
		return nil, &ErrNoModels{Op: "predict"}
	}
	return out, nil
}

// TrainedModels returns the names of models currently in the ensemble.
func (c *Coordinator) TrainedModels() []string {
	var names []string
	for _, name := range classifier.BankOrder {
		if c.trained[name] {
			names = append(names, name)
		}
	}
	if c.trained[c.kmap.Name()] {
		names = append(names, c.kmap.Name())
	}
	return names
}

// IsTrained reports whether at least one model is usable.
func (c *Coordinator) IsTrained() bool {
	return len(c.trained) > 0
}

// GradBoostImportance exposes the primary booster's feature-importance
// map, keyed by feature name. Nil when grad_boost isn't trained.
func (c *Coordinator) GradBoostImportance(featureNames []string) map[string]float64 {
	g, ok := c.models[classifier.NameGradBoost].(*classifier.GradBoost)
	if !ok || !c.trained[classifier.NameGradBoost] {
		return nil
	}
	gains := g.FeatureImportance()
	if gains == nil {
		return nil
	}
	out := make(map[string]float64, len(gains))
	for i, gain := range gains {
		if i < len(featureNames) {
			out[featureNames[i]] = gain
		}
	}
	return out
}

// SaveAll persists each trained model as one artifact under dir, plus
// a metadata file with a fresh run ID.
func (c *Coordinator) SaveAll(dir string) error {
	if !c.IsTrained() {
		return &ErrNoModels{Op: "save"}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	for _, name := range classifier.BankOrder {
		if !c.trained[name] {
			continue
		}
		if err := c.models[name].Save(filepath.Join(dir, name+".json")); err != nil {
			return fmt.Errorf("save %s: %w", name, err)
		}
	}
	if c.trained[c.kmap.Name()] {
		if err := c.kmap.Save(filepath.Join(dir, c.kmap.Name()+".json")); err != nil {
			return fmt.Errorf("save %s: %w", c.kmap.Name(), err)
		}
	}

	meta := Metadata{
		RunID:     uuid.NewString(),
		TrainedAt: time.Now().UTC().Format(time.RFC3339),
		Samples:   c.samples,
		Models:    c.TrainedModels(),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metadataFile), data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// LoadAll restores every model artifact found under dir. Missing
// artifacts leave that model untrained; LoadAll errors only when no
// artifact restored.
func (c *Coordinator) LoadAll(dir string) error {
	c.models = classifier.NewBank(c.seed)
	c.kmap = classifier.NewKMap()
	c.trained = make(map[string]bool)

	for _, name := range classifier.BankOrder {
		path := filepath.Join(dir, name+".json")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := c.models[name].Load(path); err != nil {
			slog.Warn("model artifact unreadable, skipping", "model", name, "error", err)
			continue
		}
		if c.models[name].IsTrained() {
			c.trained[name] = true
		}
	}

	kmapPath := filepath.Join(dir, c.kmap.Name()+".json")
	if _, err := os.Stat(kmapPath); err == nil {
		if err := c.kmap.Load(kmapPath); err != nil {
			slog.Warn("model artifact unreadable, skipping", "model", c.kmap.Name(), "error", err)
		} else if c.kmap.IsTrained() {
			c.trained[c.kmap.Name()] = true
		}
	}

	if len(c.trained) == 0 {
		return &ErrNoModels{Op: "load"}
	}

	if meta, err := readMetadata(dir); err == nil {
		c.samples = meta.Samples
		slog.Info("models restored", "run_id", meta.RunID, "models", len(c.trained))
	}
	return nil
}

func readMetadata(dir string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}
