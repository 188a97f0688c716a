package features

// Default adaptive thresholds, used until a bulk dataset seeds better ones.
const (
	DefaultScoreThreshold      = 70.0
	DefaultTimeThreshold       = 60.0
	DefaultEfficiencyThreshold = 1.0
	DefaultPercentileThreshold = 50.0
)

// Thresholds are the cut points for the four binary feature flags.
type Thresholds struct {
	Score      float64 `json:"score_threshold" koanf:"score_threshold"`
	Time       float64 `json:"time_threshold" koanf:"time_threshold"`
	Efficiency float64 `json:"efficiency_threshold" koanf:"efficiency_threshold"`
	Percentile float64 `json:"percentile_threshold" koanf:"percentile_threshold"`
}

// DefaultThresholds returns the built-in threshold set.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Score:      DefaultScoreThreshold,
		Time:       DefaultTimeThreshold,
		Efficiency: DefaultEfficiencyThreshold,
		Percentile: DefaultPercentileThreshold,
	}
}
