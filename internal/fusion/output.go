package fusion

import (
	"fmt"
	"strings"

	"github.com/abhisek/leveliz/internal/features"
)

// Prediction is the final classification result for one record. It is
// built fresh per prediction and never persisted by the engine.
type Prediction struct {
	UserID       string `json:"user_id"`
	Level        int    `json:"level"`
	LevelName    string `json:"level_name"`
	Sublevel     int    `json:"sublevel"`
	SublevelName string `json:"sublevel_name"`

	LevelConfidence    float64 `json:"level_confidence"`
	SublevelConfidence float64 `json:"sublevel_confidence"`
	OverallConfidence  float64 `json:"overall_confidence"`
	ConfidenceCategory string  `json:"confidence_category"`

	LevelProbabilities map[string]float64 `json:"level_probabilities"`

	Recommendation     string           `json:"recommendation"`
	ValidationWarnings *string          `json:"validation_warnings"`
	FeaturesSummary    features.Summary `json:"features_summary"`

	PredictionLatencyMS float64 `json:"prediction_latency_ms"`
}

// Assemble builds the prediction output from the fusion stages.
// Warnings collapse into one "; "-joined string, or null when there
// are none.
func Assemble(
	f *features.Vector,
	level int,
	levelConfidence float64,
	combined []float64,
	conf Confidence,
	sublevel int,
	sublevelConfidence float64,
	warnings []string,
	recommendation string,
) *Prediction {
	probs := make(map[string]float64, len(combined))
	for k, p := range combined {
		probs[fmt.Sprintf("Level %d", k+1)] = p
	}

	var warningText *string
	if len(warnings) > 0 {
		joined := strings.Join(warnings, "; ")
		warningText = &joined
	}

	return &Prediction{
		UserID:             f.UserID,
		Level:              level,
		LevelName:          LevelName(level),
		Sublevel:           sublevel,
		SublevelName:       SublevelName(sublevel),
		LevelConfidence:    levelConfidence,
		SublevelConfidence: sublevelConfidence,
		OverallConfidence:  conf.Score,
		ConfidenceCategory: conf.Category,
		LevelProbabilities: probs,
		Recommendation:     recommendation,
		ValidationWarnings: warningText,
		FeaturesSummary:    f.Summarize(),
	}
}
