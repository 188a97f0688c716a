package features

// Vector is the engineered feature set for one record. It is a pure
// function of the raw record, the engine's thresholds, and its grade
// cohort snapshot at the time of engineering.
type Vector struct {
	UserID string `json:"user_id"`

	AvgScore float64 `json:"avg_score"`
	AvgTime  float64 `json:"avg_time"`
	Grade    int     `json:"grade"`

	GradeNormalizedScore    float64 `json:"grade_normalized_score"`
	EfficiencyRatio         float64 `json:"efficiency_ratio"`
	TimePerGrade            float64 `json:"time_per_grade"`
	ScoreTimeProduct        float64 `json:"score_time_product"`
	ScoreTimeRatio          float64 `json:"score_time_ratio"`
	StabilityIndex          float64 `json:"stability_index"`
	DifficultyAdjustedScore float64 `json:"difficulty_adjusted_score"`

	SpeedCategory float64 `json:"speed_category"` // 0 slow, 1 medium, 2 fast
	ScoreCategory float64 `json:"score_category"` // 0 low, 1 medium, 2 high

	ScorePercentile      float64 `json:"score_percentile"`
	TimePercentile       float64 `json:"time_percentile"`
	EfficiencyPercentile float64 `json:"efficiency_percentile"`

	PerformanceZone float64 `json:"performance_zone"` // 0-3

	IsHighScore   float64 `json:"is_high_score"`
	IsFast        float64 `json:"is_fast"`
	IsEfficient   float64 `json:"is_efficient"`
	IsAboveMedian float64 `json:"is_above_median"`

	// BinaryPattern concatenates the four flags above, in that order,
	// as a 4-character string of '0'/'1'.
	BinaryPattern string `json:"binary_pattern"`
}

// FeatureNames lists the numeric features, in the order Values emits them.
var FeatureNames = []string{
	"avg_score",
	"avg_time",
	"grade",
	"grade_normalized_score",
	"efficiency_ratio",
	"time_per_grade",
	"score_time_product",
	"score_time_ratio",
	"stability_index",
	"difficulty_adjusted_score",
	"speed_category",
	"score_category",
	"score_percentile",
	"time_percentile",
	"efficiency_percentile",
	"performance_zone",
	"is_high_score",
	"is_fast",
	"is_efficient",
	"is_above_median",
}

// NumFeatures is the width of the numeric feature matrix fed to the models.
var NumFeatures = len(FeatureNames)

// Values returns the numeric features as a model input row,
// ordered per FeatureNames.
func (v *Vector) Values() []float64 {
	return []float64{
		v.AvgScore,
		v.AvgTime,
		float64(v.Grade),
		v.GradeNormalizedScore,
		v.EfficiencyRatio,
		v.TimePerGrade,
		v.ScoreTimeProduct,
		v.ScoreTimeRatio,
		v.StabilityIndex,
		v.DifficultyAdjustedScore,
		v.SpeedCategory,
		v.ScoreCategory,
		v.ScorePercentile,
		v.TimePercentile,
		v.EfficiencyPercentile,
		v.PerformanceZone,
		v.IsHighScore,
		v.IsFast,
		v.IsEfficient,
		v.IsAboveMedian,
	}
}

// Summary is the compact feature view attached to prediction output.
type Summary struct {
	AvgScore        float64 `json:"avg_score"`
	AvgTime         float64 `json:"avg_time"`
	EfficiencyRatio float64 `json:"efficiency_ratio"`
	ScorePercentile float64 `json:"score_percentile"`
	PerformanceZone float64 `json:"performance_zone"`
}

// Summarize returns the compact view of the vector.
func (v *Vector) Summarize() Summary {
	return Summary{
		AvgScore:        v.AvgScore,
		AvgTime:         v.AvgTime,
		EfficiencyRatio: v.EfficiencyRatio,
		ScorePercentile: v.ScorePercentile,
		PerformanceZone: v.PerformanceZone,
	}
}
