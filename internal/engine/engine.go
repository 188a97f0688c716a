// Package engine is the orchestrator: it owns one feature engine and
// one ensemble coordinator and drives train, predict, and evaluate.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/abhisek/leveliz/internal/ensemble"
	"github.com/abhisek/leveliz/internal/features"
	"github.com/abhisek/leveliz/internal/fusion"
)

// ErrNotTrained reports a prediction or evaluation attempt before
// training or loading models.
type ErrNotTrained struct{}

func (e *ErrNotTrained) Error() string { return "engine is not trained" }

// Engine classifies student proficiency from raw performance signals.
//
// The only mutable shared state is the feature engine's thresholds and
// cohorts; the engine is not safe for callers that update those
// concurrently with prediction.
type Engine struct {
	features *features.Engine
	coord    *ensemble.Coordinator
	trained  bool
}

// New creates an untrained engine with the given model seed.
func New(seed int64) *Engine {
	return &Engine{
		features: features.NewEngine(),
		coord:    ensemble.NewCoordinator(seed),
	}
}

// Features exposes the feature engine for threshold/cohort updates.
func (e *Engine) Features() *features.Engine {
	return e.features
}

// IsTrained reports whether the engine can serve predictions.
func (e *Engine) IsTrained() bool {
	return e.trained
}

// Train builds the feature matrix from labelled records and trains the
// whole ensemble, replacing any prior model state. Rows that fail
// validation or lack a label are skipped with a warning.
func (e *Engine) Train(records []features.RawRecord) error {
	var (
		X        [][]float64
		y        []int
		patterns []string
	)

	for i := range records {
		rec := &records[i]
		if rec.Level < 1 || rec.Level > 3 {
			slog.Warn("training row skipped: bad level", "row", i, "user_id", rec.UserID, "level", rec.Level)
			continue
		}
		vec, err := e.features.Process(rec)
		if err != nil {
			slog.Warn("training row skipped", "row", i, "user_id", rec.UserID, "error", err)
			continue
		}
		X = append(X, vec.Values())
		y = append(y, rec.Level-1)
		patterns = append(patterns, vec.BinaryPattern)
	}

	if len(X) == 0 {
		return fmt.Errorf("train: no usable rows in dataset")
	}

	if err := e.coord.TrainAll(X, y, patterns); err != nil {
		return fmt.Errorf("train: %w", err)
	}
	e.trained = true
	slog.Info("ensemble trained", "rows", len(X), "models", len(e.coord.TrainedModels()))
	return nil
}

// Predict classifies one record under the named weight scenario.
func (e *Engine) Predict(rec *features.RawRecord, scenario string) (*fusion.Prediction, error) {
	start := time.Now()

	if !e.trained {
		return nil, &ErrNotTrained{}
	}

	vec, err := e.features.Process(rec)
	if err != nil {
		return nil, err
	}

	predictions, err := e.coord.PredictEnsemble(vec.Values(), vec.BinaryPattern)
	if err != nil {
		return nil, err
	}

	weights, err := ensemble.GetModelWeights(scenario)
	if err != nil {
		return nil, err
	}

	combined, level, levelConf, err := fusion.Fuse(predictions, weights)
	if err != nil {
		return nil, err
	}

	conf := fusion.AssessConfidence(predictions, combined)
	sublevel, sublevelConf := fusion.PredictSublevel(level, vec)
	warnings := fusion.Validate(level, sublevel, vec)
	recommendation := fusion.Recommend(level, sublevel, vec)

	out := fusion.Assemble(vec, level, levelConf, combined, conf,
		sublevel, sublevelConf, warnings, recommendation)
	out.PredictionLatencyMS = float64(time.Since(start).Microseconds()) / 1000.0
	return out, nil
}

// BatchResult is one record's outcome in a batch prediction. Failed
// records carry Error and keep UserID; successful ones embed the full
// prediction.
type BatchResult struct {
	*fusion.Prediction
	UserID string `json:"user_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// PredictBatch classifies records sequentially. One record's failure
// becomes that record's error entry and never aborts the rest.
func (e *Engine) PredictBatch(records []features.RawRecord, scenario string) []BatchResult {
	out := make([]BatchResult, len(records))
	for i := range records {
		pred, err := e.Predict(&records[i], scenario)
		if err != nil {
			out[i] = BatchResult{UserID: records[i].UserID, Error: err.Error()}
			continue
		}
		out[i] = BatchResult{Prediction: pred, UserID: pred.UserID}
	}
	return out
}

// LevelStats is per-level evaluation accuracy.
type LevelStats struct {
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	Accuracy float64 `json:"accuracy"`
}

// Evaluation is the result of scoring the engine against labelled data.
type Evaluation struct {
	NumSamples int                `json:"num_samples"`
	Accuracy   float64            `json:"accuracy"`
	PerLevel   map[int]LevelStats `json:"per_level"`
	// Confusion[actual-1][predicted-1] counts evaluated rows.
	Confusion [3][3]int `json:"confusion"`
}

// Evaluate predicts every labelled record and reports accuracy. Rows
// whose prediction fails are skipped with a warning; zero successful
// rows reports NumSamples 0 rather than failing.
func (e *Engine) Evaluate(records []features.RawRecord) (*Evaluation, error) {
	if !e.trained {
		return nil, &ErrNotTrained{}
	}

	eval := &Evaluation{PerLevel: make(map[int]LevelStats)}
	correct := 0

	for i := range records {
		rec := &records[i]
		if rec.Level < 1 || rec.Level > 3 {
			slog.Warn("evaluation row skipped: bad level", "row", i, "user_id", rec.UserID)
			continue
		}
		pred, err := e.Predict(rec, ensemble.ScenarioDefault)
		if err != nil {
			slog.Warn("evaluation row skipped", "row", i, "user_id", rec.UserID, "error", err)
			continue
		}

		eval.NumSamples++
		eval.Confusion[rec.Level-1][pred.Level-1]++

		stats := eval.PerLevel[rec.Level]
		stats.Total++
		if pred.Level == rec.Level {
			stats.Correct++
			correct++
		}
		stats.Accuracy = float64(stats.Correct) / float64(stats.Total)
		eval.PerLevel[rec.Level] = stats
	}

	if eval.NumSamples > 0 {
		eval.Accuracy = float64(correct) / float64(eval.NumSamples)
	}
	return eval, nil
}

// Save persists all trained models under dir.
func (e *Engine) Save(dir string) error {
	if !e.trained {
		return &ErrNotTrained{}
	}
	return e.coord.SaveAll(dir)
}

// Load restores models from dir and marks the engine trained. Models
// are trusted as persisted; no re-verification happens here.
func (e *Engine) Load(dir string) error {
	if err := e.coord.LoadAll(dir); err != nil {
		return err
	}
	e.trained = true
	return nil
}

// FeatureImportance returns the primary booster's per-feature split
// gains, keyed by feature name.
func (e *Engine) FeatureImportance() map[string]float64 {
	return e.coord.GradBoostImportance(features.FeatureNames)
}
