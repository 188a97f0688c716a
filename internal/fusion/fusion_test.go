package fusion

import (
	"math"
	"strings"
	"testing"

	"github.com/abhisek/leveliz/internal/features"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestFuse_WeightedMean(t *testing.T) {
	predictions := map[string][]float64{
		"a": {0.8, 0.1, 0.1},
		"b": {0.2, 0.6, 0.2},
	}
	weights := map[string]float64{"a": 0.75, "b": 0.25}

	combined, level, seed, err := Fuse(predictions, weights)
	if err != nil {
		t.Fatalf("Fuse = %v", err)
	}
	// (0.75*0.8 + 0.25*0.2) / 1.0 = 0.65
	if !almostEqual(combined[0], 0.65) {
		t.Errorf("combined[0] = %f, want 0.65", combined[0])
	}
	if level != 1 {
		t.Errorf("level = %d, want 1", level)
	}
	if !almostEqual(seed, 0.65) {
		t.Errorf("confidence seed = %f, want 0.65", seed)
	}
}

func TestFuse_IgnoresUnweightedModels(t *testing.T) {
	predictions := map[string][]float64{
		"known":   {0.1, 0.2, 0.7},
		"unknown": {1.0, 0.0, 0.0},
	}
	weights := map[string]float64{"known": 0.5}

	combined, level, _, err := Fuse(predictions, weights)
	if err != nil {
		t.Fatalf("Fuse = %v", err)
	}
	if level != 3 {
		t.Errorf("level = %d, want 3 (unweighted model must not vote)", level)
	}
	if !almostEqual(combined[2], 0.7) {
		t.Errorf("combined[2] = %f, want 0.7 after renormalizing", combined[2])
	}
}

func TestFuse_NoOverlap(t *testing.T) {
	_, _, _, err := Fuse(map[string][]float64{"a": {1, 0, 0}}, map[string]float64{"b": 1})
	if err == nil {
		t.Error("Fuse with disjoint predictions/weights accepted")
	}
}

func TestAssessConfidence_Categories(t *testing.T) {
	// Full agreement on a dominant class: 0.5*1.0 + 0.5*0.9 = 0.95
	unanimous := map[string][]float64{
		"a": {0.9, 0.05, 0.05},
		"b": {0.8, 0.1, 0.1},
	}
	conf := AssessConfidence(unanimous, []float64{0.9, 0.05, 0.05})
	if !almostEqual(conf.Score, 0.95) || conf.Category != "High" {
		t.Errorf("unanimous confidence = %f %q, want 0.95 High", conf.Score, conf.Category)
	}

	// Split vote: agreement 0.5, max 0.5 -> 0.5 -> Low
	split := map[string][]float64{
		"a": {0.9, 0.05, 0.05},
		"b": {0.05, 0.9, 0.05},
	}
	conf = AssessConfidence(split, []float64{0.5, 0.45, 0.05})
	if conf.Category != "Low" {
		t.Errorf("split vote category = %q, want Low", conf.Category)
	}

	// Boundary: exactly 0.60 is Medium, exactly 0.80 is High.
	conf = AssessConfidence(split, []float64{0.7, 0.2, 0.1})
	// 0.5*0.5 + 0.5*0.7 = 0.60
	if !almostEqual(conf.Score, 0.60) || conf.Category != "Medium" {
		t.Errorf("boundary confidence = %f %q, want 0.60 Medium", conf.Score, conf.Category)
	}
}

func TestAssessConfidence_Bounds(t *testing.T) {
	preds := map[string][]float64{
		"a": {0.4, 0.3, 0.3},
		"b": {0.3, 0.4, 0.3},
		"c": {0.3, 0.3, 0.4},
	}
	conf := AssessConfidence(preds, []float64{0.34, 0.33, 0.33})
	if conf.Score < 0 || conf.Score > 1 {
		t.Errorf("confidence %f outside [0,1]", conf.Score)
	}
}

func sublevelVector(score, percentile, efficiency, zone float64) *features.Vector {
	return &features.Vector{
		AvgScore:        score,
		ScorePercentile: percentile,
		EfficiencyRatio: efficiency,
		PerformanceZone: zone,
	}
}

func TestPredictSublevel_RuleTable(t *testing.T) {
	cases := []struct {
		name       string
		level      int
		f          *features.Vector
		sublevel   int
		confidence float64
	}{
		{"level1 low score", 1, sublevelVector(40, 20, 0.5, 0), SublevelStarter, 0.85},
		{"level1 low percentile only", 1, sublevelVector(60, 25, 0.5, 0), SublevelStarter, 0.85},
		{"level1 otherwise", 1, sublevelVector(60, 50, 0.5, 1), SublevelExplorer, 0.80},
		{"level2 solver", 2, sublevelVector(70, 65, 1.2, 2), SublevelSolver, 0.82},
		{"level2 low efficiency", 2, sublevelVector(70, 65, 0.8, 2), SublevelExplorer, 0.78},
		{"level3 champion", 3, sublevelVector(95, 85, 2.0, 3), SublevelChampion, 0.90},
		{"level3 otherwise", 3, sublevelVector(85, 70, 1.5, 2), SublevelSolver, 0.85},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub, conf := PredictSublevel(tc.level, tc.f)
			if sub != tc.sublevel {
				t.Errorf("sublevel = %d (%s), want %d (%s)",
					sub, SublevelName(sub), tc.sublevel, SublevelName(tc.sublevel))
			}
			if !almostEqual(conf, tc.confidence) {
				t.Errorf("confidence = %f, want %f", conf, tc.confidence)
			}
		})
	}
}

func TestValidate_Warnings(t *testing.T) {
	f := sublevelVector(60, 50, 1.0, 1)
	f.AvgTime = 60

	if w := Validate(2, SublevelExplorer, f); len(w) != 0 {
		t.Errorf("consistent result produced warnings: %v", w)
	}

	if w := Validate(1, SublevelSolver, f); len(w) == 0 {
		t.Error("level 1 with Solver sublevel produced no warning")
	}
	if w := Validate(3, SublevelStarter, f); len(w) == 0 {
		t.Error("level 3 with Starter sublevel produced no warning")
	}

	low := sublevelVector(55, 50, 1.0, 1)
	low.AvgTime = 60
	if w := Validate(3, SublevelSolver, low); len(w) == 0 {
		t.Error("level 3 with low score produced no warning")
	}

	high := sublevelVector(92, 50, 1.0, 1)
	high.AvgTime = 60
	if w := Validate(1, SublevelExplorer, high); len(w) == 0 {
		t.Error("level 1 with high score produced no warning")
	}

	slow := sublevelVector(60, 50, 1.0, 1)
	slow.AvgTime = 250
	if w := Validate(2, SublevelExplorer, slow); len(w) == 0 {
		t.Error("very slow avg_time produced no warning")
	}

	fast := sublevelVector(60, 50, 1.0, 1)
	fast.AvgTime = 5
	if w := Validate(2, SublevelExplorer, fast); len(w) == 0 {
		t.Error("very fast avg_time produced no warning")
	}
}

func TestRecommend_Deterministic(t *testing.T) {
	f := sublevelVector(70, 60, 1.3, 2)
	f.SpeedCategory = 1

	a := Recommend(2, SublevelSolver, f)
	b := Recommend(2, SublevelSolver, f)
	if a != b {
		t.Errorf("Recommend not deterministic: %q vs %q", a, b)
	}
	if parts := strings.Split(a, "; "); len(parts) != 4 {
		t.Errorf("recommendation has %d parts (%q), want 4", len(parts), a)
	}
}

func TestAssemble_Output(t *testing.T) {
	f := sublevelVector(75, 60, 1.2, 2)
	f.UserID = "u42"
	f.AvgTime = 62.5

	combined := []float64{0.2, 0.5, 0.3}
	conf := Confidence{Score: 0.72, Category: "Medium", Agreement: 0.8}

	p := Assemble(f, 2, 0.5, combined, conf, SublevelSolver, 0.82,
		[]string{"warn one", "warn two"}, "do things")

	if p.UserID != "u42" || p.Level != 2 || p.LevelName != "Intermediate" {
		t.Errorf("identity fields wrong: %+v", p)
	}
	if p.SublevelName != "Solver" || !almostEqual(p.SublevelConfidence, 0.82) {
		t.Errorf("sublevel fields wrong: %+v", p)
	}
	if !almostEqual(p.LevelProbabilities["Level 2"], 0.5) {
		t.Errorf("LevelProbabilities = %v", p.LevelProbabilities)
	}
	if p.ValidationWarnings == nil || *p.ValidationWarnings != "warn one; warn two" {
		t.Errorf("ValidationWarnings = %v", p.ValidationWarnings)
	}
	if !almostEqual(p.FeaturesSummary.AvgTime, 62.5) {
		t.Errorf("FeaturesSummary = %+v", p.FeaturesSummary)
	}

	clean := Assemble(f, 2, 0.5, combined, conf, SublevelSolver, 0.82, nil, "do things")
	if clean.ValidationWarnings != nil {
		t.Errorf("no warnings should give nil, got %v", *clean.ValidationWarnings)
	}
}
