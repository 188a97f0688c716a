package features

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func f(v float64) *float64 { return &v }

func record(score, time float64, grade int) *RawRecord {
	return &RawRecord{UserID: "u1", AvgScore: f(score), AvgTime: f(time), Grade: grade}
}

func TestValidate_RejectsBadRecords(t *testing.T) {
	e := NewEngine()

	cases := []struct {
		name string
		rec  *RawRecord
	}{
		{"missing user id", &RawRecord{AvgScore: f(50), AvgTime: f(60), Grade: 1}},
		{"score above 100", record(150, 60, 1)},
		{"negative score", record(-1, 60, 1)},
		{"zero time", record(50, 0, 1)},
		{"negative time", record(50, -5, 1)},
		{"zero grade", record(50, 60, 0)},
		{"negative grade", record(50, 60, -2)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := e.Validate(tc.rec)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate(%s) = %v, want ValidationError", tc.name, err)
			}
		})
	}
}

func TestValidate_AcceptsMissingScoreAndTime(t *testing.T) {
	e := NewEngine()
	rec := &RawRecord{UserID: "u1", Grade: 3}
	if err := e.Validate(rec); err != nil {
		t.Fatalf("Validate = %v, want nil (missing score/time is imputed, not rejected)", err)
	}
}

func TestImpute_UsesCohortMedians(t *testing.T) {
	e := NewEngine()
	e.UpdateGradeCohorts(GradeCohorts{
		2: {Scores: []float64{40, 60, 80}, Times: []float64{30, 50, 90}},
	})

	rec := &RawRecord{UserID: "u1", Grade: 2}
	out := e.Impute(rec)
	if !almostEqual(*out.AvgScore, 60) {
		t.Errorf("imputed score = %f, want 60 (cohort median)", *out.AvgScore)
	}
	if !almostEqual(*out.AvgTime, 50) {
		t.Errorf("imputed time = %f, want 50 (cohort median)", *out.AvgTime)
	}
}

func TestImpute_UnknownGradeDefaults(t *testing.T) {
	e := NewEngine()
	out := e.Impute(&RawRecord{UserID: "u1", Grade: 7})
	if !almostEqual(*out.AvgScore, DefaultMedianScore) {
		t.Errorf("imputed score = %f, want %f", *out.AvgScore, DefaultMedianScore)
	}
	if !almostEqual(*out.AvgTime, DefaultMedianTime) {
		t.Errorf("imputed time = %f, want %f", *out.AvgTime, DefaultMedianTime)
	}
}

func TestEngineer_DerivedValues(t *testing.T) {
	e := NewEngine()
	v := e.Engineer(record(80, 40, 2))

	if !almostEqual(v.GradeNormalizedScore, 40) {
		t.Errorf("GradeNormalizedScore = %f, want 40", v.GradeNormalizedScore)
	}
	if !almostEqual(v.EfficiencyRatio, 2.0) {
		t.Errorf("EfficiencyRatio = %f, want 2.0", v.EfficiencyRatio)
	}
	if !almostEqual(v.TimePerGrade, 20) {
		t.Errorf("TimePerGrade = %f, want 20", v.TimePerGrade)
	}
	if !almostEqual(v.ScoreTimeProduct, 3200) {
		t.Errorf("ScoreTimeProduct = %f, want 3200", v.ScoreTimeProduct)
	}
	if !almostEqual(v.ScoreTimeRatio, 160) {
		t.Errorf("ScoreTimeRatio = %f, want 160", v.ScoreTimeRatio)
	}
	// (80/100 + max(0, 1-|40-60|/100)) / 2 = (0.8 + 0.8) / 2
	if !almostEqual(v.StabilityIndex, 0.8) {
		t.Errorf("StabilityIndex = %f, want 0.8", v.StabilityIndex)
	}
	// 80 * (1 + (2-1)*0.05)
	if !almostEqual(v.DifficultyAdjustedScore, 84) {
		t.Errorf("DifficultyAdjustedScore = %f, want 84", v.DifficultyAdjustedScore)
	}
}

func TestEngineer_Categories(t *testing.T) {
	e := NewEngine()

	cases := []struct {
		score, time float64
		grade       int
		speed       float64
		scoreCat    float64
		zone        float64
	}{
		{85, 15, 2, 2, 2, 3},  // adjusted time 7.5 -> fast; high score -> zone 3
		{70, 25, 2, 1, 1, 2},  // adjusted time 12.5 -> medium
		{40, 100, 2, 0, 0, 0}, // slow and low
		{90, 120, 2, 0, 2, 1}, // high score but slow
	}
	for _, tc := range cases {
		v := e.Engineer(record(tc.score, tc.time, tc.grade))
		if v.SpeedCategory != tc.speed {
			t.Errorf("score=%v time=%v: SpeedCategory = %v, want %v", tc.score, tc.time, v.SpeedCategory, tc.speed)
		}
		if v.ScoreCategory != tc.scoreCat {
			t.Errorf("score=%v time=%v: ScoreCategory = %v, want %v", tc.score, tc.time, v.ScoreCategory, tc.scoreCat)
		}
		if v.PerformanceZone != tc.zone {
			t.Errorf("score=%v time=%v: PerformanceZone = %v, want %v", tc.score, tc.time, v.PerformanceZone, tc.zone)
		}
	}
}

func TestEngineer_Percentiles(t *testing.T) {
	e := NewEngine()
	e.UpdateGradeCohorts(GradeCohorts{
		3: {
			Scores:       []float64{10, 20, 30, 40},
			Times:        []float64{10, 20, 30, 40},
			Efficiencies: []float64{0.5, 1.0, 1.5, 2.0},
		},
	})

	v := e.Engineer(record(30, 20, 3))
	if !almostEqual(v.ScorePercentile, 75) {
		t.Errorf("ScorePercentile = %f, want 75", v.ScorePercentile)
	}
	if !almostEqual(v.TimePercentile, 50) {
		t.Errorf("TimePercentile = %f, want 50", v.TimePercentile)
	}
	// efficiency 1.5 -> 3 of 4 values <= 1.5
	if !almostEqual(v.EfficiencyPercentile, 75) {
		t.Errorf("EfficiencyPercentile = %f, want 75", v.EfficiencyPercentile)
	}
}

func TestEngineer_UnknownGradeDefaultsPercentile(t *testing.T) {
	e := NewEngine()
	v := e.Engineer(record(30, 20, 9))
	if !almostEqual(v.ScorePercentile, DefaultPercentile) {
		t.Errorf("ScorePercentile = %f, want %f", v.ScorePercentile, DefaultPercentile)
	}
}

func TestEngineer_BinaryPattern(t *testing.T) {
	e := NewEngine()

	// score 85 >= 70, time 30 <= 60, efficiency 85/30 >= 1.0, no cohort -> percentile 50 >= 50
	v := e.Engineer(record(85, 30, 1))
	if v.BinaryPattern != "1111" {
		t.Errorf("BinaryPattern = %q, want \"1111\"", v.BinaryPattern)
	}

	// score 40 < 70, time 100 > 60, efficiency 0.4 < 1.0, percentile 50 >= 50
	v = e.Engineer(record(40, 100, 1))
	if v.BinaryPattern != "0001" {
		t.Errorf("BinaryPattern = %q, want \"0001\"", v.BinaryPattern)
	}

	if len(v.BinaryPattern) != 4 {
		t.Errorf("pattern length = %d, want 4", len(v.BinaryPattern))
	}
}

func TestEngineer_Deterministic(t *testing.T) {
	e := NewEngine()
	e.UpdateGradeCohorts(GradeCohorts{
		2: {Scores: []float64{50, 70}, Times: []float64{40, 80}, Efficiencies: []float64{1, 2}},
	})

	rec := record(72.5, 55, 2)
	a := e.Engineer(rec)
	b := e.Engineer(rec)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Engineer is not deterministic:\n%+v\n%+v", a, b)
	}
}

func TestEngineer_RangeInvariants(t *testing.T) {
	e := NewEngine()
	for _, score := range []float64{0, 33, 59.9, 60, 79.9, 80, 100} {
		for _, time := range []float64{1, 9, 15, 60, 200, 499} {
			for grade := 1; grade <= 5; grade++ {
				v := e.Engineer(record(score, time, grade))
				if v.SpeedCategory < 0 || v.SpeedCategory > 2 {
					t.Fatalf("SpeedCategory out of range: %v", v.SpeedCategory)
				}
				if v.ScoreCategory < 0 || v.ScoreCategory > 2 {
					t.Fatalf("ScoreCategory out of range: %v", v.ScoreCategory)
				}
				if v.PerformanceZone < 0 || v.PerformanceZone > 3 {
					t.Fatalf("PerformanceZone out of range: %v", v.PerformanceZone)
				}
				if v.EfficiencyRatio < 0 {
					t.Fatalf("EfficiencyRatio negative: %v", v.EfficiencyRatio)
				}
				if len(v.BinaryPattern) != 4 {
					t.Fatalf("BinaryPattern = %q, want 4 chars", v.BinaryPattern)
				}
				for _, c := range v.BinaryPattern {
					if c != '0' && c != '1' {
						t.Fatalf("BinaryPattern = %q, want only '0'/'1'", v.BinaryPattern)
					}
				}
			}
		}
	}
}

func TestProcess_InvalidRecord(t *testing.T) {
	e := NewEngine()
	_, err := e.Process(record(150, 60, 1))
	if err == nil {
		t.Fatal("Process = nil error, want validation failure")
	}
}

func TestProcess_ImputesThenEngineers(t *testing.T) {
	e := NewEngine()
	v, err := e.Process(&RawRecord{UserID: "u1", Grade: 4})
	if err != nil {
		t.Fatalf("Process = %v, want nil", err)
	}
	if !almostEqual(v.AvgScore, DefaultMedianScore) {
		t.Errorf("AvgScore = %f, want imputed default %f", v.AvgScore, DefaultMedianScore)
	}
}

func TestValues_MatchesFeatureNames(t *testing.T) {
	e := NewEngine()
	v := e.Engineer(record(75, 65, 2))
	if len(v.Values()) != NumFeatures {
		t.Errorf("len(Values) = %d, want %d", len(v.Values()), NumFeatures)
	}
}
