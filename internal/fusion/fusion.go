// Package fusion combines per-model probability vectors into the final
// level/sublevel classification with confidence and a recommendation.
package fusion

import (
	"fmt"

	"github.com/abhisek/leveliz/internal/classifier"
)

// Confidence category cut points.
const (
	HighConfidence   = 0.80
	MediumConfidence = 0.60
)

// Level display names, 1-indexed.
var levelNames = map[int]string{
	1: "Beginner",
	2: "Intermediate",
	3: "Advanced",
}

// LevelName returns the display name for a level.
func LevelName(level int) string {
	return levelNames[level]
}

// Fuse computes the weighted mean of the probability vectors present
// in both predictions and weights, and returns the combined vector,
// the 1-indexed predicted level, and the combined probability of that
// level.
func Fuse(predictions map[string][]float64, weights map[string]float64) ([]float64, int, float64, error) {
	combined := make([]float64, classifier.NumLevels)
	totalWeight := 0.0

	for name, proba := range predictions {
		w, ok := weights[name]
		if !ok {
			continue
		}
		for k, p := range proba {
			combined[k] += w * p
		}
		totalWeight += w
	}

	if totalWeight <= 0 {
		return nil, 0, 0, fmt.Errorf("fuse: no overlap between predictions and weights")
	}
	for k := range combined {
		combined[k] /= totalWeight
	}

	best := 0
	for k := 1; k < len(combined); k++ {
		if combined[k] > combined[best] {
			best = k
		}
	}
	return combined, best + 1, combined[best], nil
}

// Confidence is the inter-model agreement assessment.
type Confidence struct {
	Score     float64
	Category  string
	Agreement float64
}

// AssessConfidence scores how strongly the ensemble agrees: half the
// fraction of models voting with the majority, half the combined
// probability mass behind the winner.
func AssessConfidence(predictions map[string][]float64, combined []float64) Confidence {
	votes := make([]int, classifier.NumLevels)
	for _, proba := range predictions {
		best := 0
		for k := 1; k < len(proba); k++ {
			if proba[k] > proba[best] {
				best = k
			}
		}
		votes[best]++
	}

	majority := 0
	for k := 1; k < len(votes); k++ {
		if votes[k] > votes[majority] {
			majority = k
		}
	}
	agreement := 0.0
	if len(predictions) > 0 {
		agreement = float64(votes[majority]) / float64(len(predictions))
	}

	maxCombined := 0.0
	for _, p := range combined {
		if p > maxCombined {
			maxCombined = p
		}
	}

	score := 0.5*agreement + 0.5*maxCombined

	category := "Low"
	switch {
	case score >= HighConfidence:
		category = "High"
	case score >= MediumConfidence:
		category = "Medium"
	}

	return Confidence{Score: score, Category: category, Agreement: agreement}
}
