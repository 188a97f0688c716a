package fusion

import (
	"fmt"

	"github.com/abhisek/leveliz/internal/features"
)

// Validate runs advisory consistency checks on a classification.
// Warnings never block output; they flag combinations worth a human
// look.
func Validate(level, sublevel int, f *features.Vector) []string {
	var warnings []string

	if level == 1 && sublevel >= SublevelSolver {
		warnings = append(warnings,
			fmt.Sprintf("Level 1 with sublevel %s is inconsistent", SublevelName(sublevel)))
	}
	if level == 3 && sublevel == SublevelStarter {
		warnings = append(warnings, "Level 3 with sublevel Starter is inconsistent")
	}
	if level == 3 && f.AvgScore < 70 {
		warnings = append(warnings,
			fmt.Sprintf("Unusual: level 3 with avg_score %.1f", f.AvgScore))
	}
	if level == 1 && f.AvgScore > 85 {
		warnings = append(warnings,
			fmt.Sprintf("Unusual: level 1 with avg_score %.1f", f.AvgScore))
	}
	if f.AvgTime > 200 {
		warnings = append(warnings,
			fmt.Sprintf("Edge case: avg_time %.1f is very slow", f.AvgTime))
	}
	if f.AvgTime < 10 {
		warnings = append(warnings,
			fmt.Sprintf("Edge case: avg_time %.1f is very fast", f.AvgTime))
	}

	return warnings
}
