package fusion

import (
	"strings"

	"github.com/abhisek/leveliz/internal/features"
)

var levelAdvice = map[int]string{
	1: "Focus on core concepts with guided practice",
	2: "Work through mixed problem sets to consolidate skills",
	3: "Add advanced challenges to keep growth going",
}

var speedAdvice = map[float64]string{
	0: "Build pacing with short timed drills",
	1: "Keep sharpening speed on familiar problems",
	2: "Pace is strong; hold it on harder material",
}

var sublevelAdvice = map[int]string{
	SublevelStarter:  "Start with confidence-building fundamentals",
	SublevelExplorer: "Explore varied problem types to find strengths",
	SublevelSolver:   "Take on multi-step problems regularly",
	SublevelChampion: "Try competition-level problems",
}

// Recommend assembles the advice string for a classification. It is a
// pure function of level, sublevel, and the engineered features.
func Recommend(level, sublevel int, f *features.Vector) string {
	parts := []string{levelAdvice[level], speedAdvice[f.SpeedCategory]}

	if f.EfficiencyRatio < 1.0 {
		parts = append(parts, "Review solution strategies to raise efficiency")
	} else {
		parts = append(parts, "Efficiency is on track")
	}

	parts = append(parts, sublevelAdvice[sublevel])
	return strings.Join(parts, "; ")
}
