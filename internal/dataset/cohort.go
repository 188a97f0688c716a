package dataset

import (
	"sort"

	"github.com/abhisek/leveliz/internal/features"
)

// Cohorts groups a bulk dataset's scores, times, and efficiencies by
// grade, producing the percentile seed for the feature engine.
func Cohorts(records []features.RawRecord) features.GradeCohorts {
	out := make(features.GradeCohorts)
	for i := range records {
		rec := &records[i]
		if rec.Grade <= 0 || rec.AvgScore == nil || rec.AvgTime == nil || *rec.AvgTime <= 0 {
			continue
		}
		c := out[rec.Grade]
		if c == nil {
			c = &features.Cohort{}
			out[rec.Grade] = c
		}
		c.Scores = append(c.Scores, *rec.AvgScore)
		c.Times = append(c.Times, *rec.AvgTime)
		c.Efficiencies = append(c.Efficiencies, *rec.AvgScore / *rec.AvgTime)
	}
	return out
}

// ComputeThresholds derives adaptive thresholds from a bulk dataset:
// the score cut at the 60th percentile, time and efficiency cuts at
// their medians, and the fixed 50th-percentile flag cut. Falls back to
// the built-in defaults when the dataset is empty.
func ComputeThresholds(records []features.RawRecord) features.Thresholds {
	var scores, times, effs []float64
	for i := range records {
		rec := &records[i]
		if rec.AvgScore == nil || rec.AvgTime == nil || *rec.AvgTime <= 0 {
			continue
		}
		scores = append(scores, *rec.AvgScore)
		times = append(times, *rec.AvgTime)
		effs = append(effs, *rec.AvgScore / *rec.AvgTime)
	}

	t := features.DefaultThresholds()
	if len(scores) == 0 {
		return t
	}
	t.Score = percentileOf(scores, 60)
	t.Time = percentileOf(times, 50)
	t.Efficiency = percentileOf(effs, 50)
	return t
}

// percentileOf returns the value at percentile p (nearest-rank).
func percentileOf(values []float64, p float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := int(p / 100 * float64(len(sorted)))
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
