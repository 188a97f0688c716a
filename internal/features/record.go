package features

import "fmt"

// RawRecord is a single student's raw performance signals.
// AvgScore and AvgTime are pointers so a missing signal can be
// distinguished from a zero one; missing values are imputed from
// grade cohort medians before feature engineering.
type RawRecord struct {
	UserID   string   `json:"user_id"`
	AvgScore *float64 `json:"avg_score"`
	AvgTime  *float64 `json:"avg_time"`
	Grade    int      `json:"grade"`

	// Level is the labelled proficiency class (1-3). Only required
	// on training rows; zero on prediction input.
	Level int `json:"level,omitempty"`
}

// ValidationError describes a rejected raw record.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid record: %s: %s", e.Field, e.Reason)
}

// Score returns the average score or 0 when missing.
func (r *RawRecord) Score() float64 {
	if r.AvgScore == nil {
		return 0
	}
	return *r.AvgScore
}

// Time returns the average time or 0 when missing.
func (r *RawRecord) Time() float64 {
	if r.AvgTime == nil {
		return 0
	}
	return *r.AvgTime
}
