// Package features turns a student's raw performance signals into the
// engineered feature vector the classifier ensemble consumes.
package features

import (
	"log/slog"
	"math"
)

// OutlierTimeSecs is the avg_time above which a record is logged as an
// outlier. Outliers are kept; they are flagged, not rejected.
const OutlierTimeSecs = 500.0

// Engine validates, imputes, and engineers features for raw records.
//
// Cohorts and thresholds are explicit instance state, mutated only via
// UpdateGradeCohorts and UpdateThresholds. The engine is not safe for
// concurrent use when updates interleave with processing; callers that
// mix the two must serialize access.
type Engine struct {
	thresholds Thresholds
	cohorts    GradeCohorts
}

// NewEngine creates an engine with default thresholds and no cohorts.
func NewEngine() *Engine {
	return &Engine{
		thresholds: DefaultThresholds(),
		cohorts:    make(GradeCohorts),
	}
}

// UpdateThresholds replaces the adaptive thresholds.
func (e *Engine) UpdateThresholds(t Thresholds) {
	e.thresholds = t
}

// UpdateGradeCohorts replaces the grade cohort snapshot.
func (e *Engine) UpdateGradeCohorts(c GradeCohorts) {
	if c == nil {
		c = make(GradeCohorts)
	}
	e.cohorts = c
}

// Thresholds returns the current adaptive thresholds.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Cohorts returns the current grade cohort snapshot.
func (e *Engine) Cohorts() GradeCohorts {
	return e.cohorts
}

// Validate checks a raw record against the input contract.
// A present avg_score must be in [0,100], a present avg_time must be
// positive, and grade must be a positive integer. Missing score/time
// are allowed here; Impute fills them. An avg_time above
// OutlierTimeSecs is logged but not rejected.
func (e *Engine) Validate(r *RawRecord) error {
	if r == nil {
		return &ValidationError{Field: "record", Reason: "missing"}
	}
	if r.UserID == "" {
		return &ValidationError{Field: "user_id", Reason: "missing"}
	}
	if r.Grade <= 0 {
		return &ValidationError{Field: "grade", Reason: "must be a positive integer"}
	}
	if r.AvgScore != nil && (*r.AvgScore < 0 || *r.AvgScore > 100) {
		return &ValidationError{Field: "avg_score", Reason: "must be in [0, 100]"}
	}
	if r.AvgTime != nil && *r.AvgTime <= 0 {
		return &ValidationError{Field: "avg_time", Reason: "must be positive"}
	}
	if r.AvgTime != nil && *r.AvgTime > OutlierTimeSecs {
		slog.Warn("avg_time outlier", "user_id", r.UserID, "avg_time", *r.AvgTime)
	}
	return nil
}

// Impute fills missing score/time from the record's grade cohort
// medians, falling back to global defaults when the grade is unknown.
// The input record is not modified.
func (e *Engine) Impute(r *RawRecord) RawRecord {
	out := *r
	if out.AvgScore == nil {
		v := DefaultMedianScore
		if c, ok := e.cohorts[r.Grade]; ok {
			v = Median(c.Scores, DefaultMedianScore)
		}
		out.AvgScore = &v
	}
	if out.AvgTime == nil {
		v := DefaultMedianTime
		if c, ok := e.cohorts[r.Grade]; ok {
			v = Median(c.Times, DefaultMedianTime)
		}
		out.AvgTime = &v
	}
	return out
}

// Engineer derives the full feature vector from a validated, imputed
// record. It is deterministic: identical record, thresholds, and
// cohort snapshot produce an identical vector.
func (e *Engine) Engineer(r *RawRecord) *Vector {
	score := r.Score()
	time := r.Time()
	grade := float64(r.Grade)

	v := &Vector{
		UserID:   r.UserID,
		AvgScore: score,
		AvgTime:  time,
		Grade:    r.Grade,

		GradeNormalizedScore:    score / grade,
		TimePerGrade:            time / grade,
		ScoreTimeProduct:        score * time,
		DifficultyAdjustedScore: score * (1 + (grade-1)*0.05),
	}

	if time > 0 {
		v.EfficiencyRatio = score / time
		v.ScoreTimeRatio = score * score / time
	}

	v.StabilityIndex = (score/100 + math.Max(0, 1-math.Abs(time-60)/100)) / 2

	// Speed is judged on grade-adjusted time: older students get the
	// same bar per unit of grade.
	gradeAdjustedTime := time / grade
	switch {
	case gradeAdjustedTime < 10:
		v.SpeedCategory = 2
	case gradeAdjustedTime < 15:
		v.SpeedCategory = 1
	default:
		v.SpeedCategory = 0
	}

	switch {
	case score >= 80:
		v.ScoreCategory = 2
	case score >= 60:
		v.ScoreCategory = 1
	default:
		v.ScoreCategory = 0
	}

	if c, ok := e.cohorts[r.Grade]; ok {
		v.ScorePercentile = Percentile(c.Scores, score)
		v.TimePercentile = Percentile(c.Times, time)
		v.EfficiencyPercentile = Percentile(c.Efficiencies, v.EfficiencyRatio)
	} else {
		v.ScorePercentile = DefaultPercentile
		v.TimePercentile = DefaultPercentile
		v.EfficiencyPercentile = DefaultPercentile
	}

	switch {
	case v.ScoreCategory == 2 && v.SpeedCategory == 2:
		v.PerformanceZone = 3
	case v.ScoreCategory >= 1 && v.SpeedCategory >= 1:
		v.PerformanceZone = 2
	case v.ScoreCategory >= 1 || v.SpeedCategory >= 1:
		v.PerformanceZone = 1
	default:
		v.PerformanceZone = 0
	}

	v.IsHighScore = flag(score >= e.thresholds.Score)
	v.IsFast = flag(time <= e.thresholds.Time)
	v.IsEfficient = flag(v.EfficiencyRatio >= e.thresholds.Efficiency)
	v.IsAboveMedian = flag(v.ScorePercentile >= e.thresholds.Percentile)

	v.BinaryPattern = pattern(v.IsHighScore, v.IsFast, v.IsEfficient, v.IsAboveMedian)

	return v
}

// Process runs validate -> impute -> engineer.
func (e *Engine) Process(r *RawRecord) (*Vector, error) {
	if err := e.Validate(r); err != nil {
		return nil, err
	}
	imputed := e.Impute(r)
	return e.Engineer(&imputed), nil
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func pattern(flags ...float64) string {
	buf := make([]byte, len(flags))
	for i, f := range flags {
		if f >= 1 {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return string(buf)
}
