package fusion

import "github.com/abhisek/leveliz/internal/features"

// Sublevels, finest to coarsest proficiency within a level.
const (
	SublevelStarter  = 0
	SublevelExplorer = 1
	SublevelSolver   = 2
	SublevelChampion = 3
)

var sublevelNames = map[int]string{
	SublevelStarter:  "Starter",
	SublevelExplorer: "Explorer",
	SublevelSolver:   "Solver",
	SublevelChampion: "Champion",
}

// SublevelName returns the display name for a sublevel.
func SublevelName(sublevel int) string {
	return sublevelNames[sublevel]
}

// PredictSublevel applies the fixed sublevel rule table to the
// predicted level and engineered features. The confidence constants
// are hand-tuned and load-bearing for downstream consumers; they are
// not derived from the trained ensemble.
func PredictSublevel(level int, f *features.Vector) (sublevel int, confidence float64) {
	switch level {
	case 1:
		if f.AvgScore < 50 || f.ScorePercentile < 30 {
			return SublevelStarter, 0.85
		}
		return SublevelExplorer, 0.80
	case 2:
		if f.ScorePercentile >= 60 && f.EfficiencyRatio >= 1.0 {
			return SublevelSolver, 0.82
		}
		return SublevelExplorer, 0.78
	case 3:
		if f.AvgScore >= 90 && f.ScorePercentile >= 80 && f.PerformanceZone >= 3 {
			return SublevelChampion, 0.90
		}
		return SublevelSolver, 0.85
	}
	return SublevelStarter, 0.0
}
