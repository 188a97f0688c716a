package features

import "sort"

// Defaults used when no cohort exists for a grade.
const (
	DefaultPercentile  = 50.0
	DefaultMedianScore = 50.0
	DefaultMedianTime  = 60.0
)

// Cohort holds one grade's historical distributions, used only for
// percentile and median lookups.
type Cohort struct {
	Scores       []float64 `json:"scores"`
	Times        []float64 `json:"times"`
	Efficiencies []float64 `json:"efficiencies"`
}

// GradeCohorts maps grade -> historical distribution for that grade.
type GradeCohorts map[int]*Cohort

// Percentile returns the percentage of values <= x, or DefaultPercentile
// when the slice is empty.
func Percentile(values []float64, x float64) float64 {
	if len(values) == 0 {
		return DefaultPercentile
	}
	count := 0
	for _, v := range values {
		if v <= x {
			count++
		}
	}
	return 100.0 * float64(count) / float64(len(values))
}

// Median returns the median of values, or fallback when empty.
func Median(values []float64, fallback float64) float64 {
	if len(values) == 0 {
		return fallback
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
