package ensemble

import (
	"fmt"

	"github.com/abhisek/leveliz/internal/classifier"
)

// Weight scenario names.
const (
	ScenarioDefault        = "default"
	ScenarioHighConfidence = "high_confidence"
	ScenarioExploratory    = "exploratory"
)

// scenarios are the three fixed weighting presets. Each sums to
// exactly 1.0; the decimal values are chosen so the float64 sum is
// exact. "default" balances the ensemble, "high_confidence" leans on
// the tree ensembles, "exploratory" flattens toward equal votes.
var scenarios = map[string]map[string]float64{
	ScenarioDefault: {
		classifier.NameGradBoost: 0.25,
		classifier.NameHistBoost: 0.20,
		classifier.NameBagging:   0.20,
		classifier.NameMLP:       0.15,
		classifier.NameSVC:       0.10,
		classifier.NameKMap:      0.10,
	},
	ScenarioHighConfidence: {
		classifier.NameGradBoost: 0.30,
		classifier.NameHistBoost: 0.25,
		classifier.NameBagging:   0.25,
		classifier.NameMLP:       0.10,
		classifier.NameSVC:       0.05,
		classifier.NameKMap:      0.05,
	},
	ScenarioExploratory: {
		classifier.NameGradBoost: 0.20,
		classifier.NameHistBoost: 0.15,
		classifier.NameBagging:   0.15,
		classifier.NameMLP:       0.20,
		classifier.NameSVC:       0.15,
		classifier.NameKMap:      0.15,
	},
}

// ScenarioNames lists the available weighting scenarios.
func ScenarioNames() []string {
	return []string{ScenarioDefault, ScenarioHighConfidence, ScenarioExploratory}
}

// GetModelWeights returns a copy of the named scenario's weight table.
func GetModelWeights(scenario string) (map[string]float64, error) {
	table, ok := scenarios[scenario]
	if !ok {
		return nil, fmt.Errorf("unknown weight scenario %q", scenario)
	}
	out := make(map[string]float64, len(table))
	for name, w := range table {
		out[name] = w
	}
	return out, nil
}
