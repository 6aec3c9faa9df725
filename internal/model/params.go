package model

// Default estimates used when neither config nor flags override them.
const (
	DefaultEstimatedInflation = 2.5
	DefaultEstimatedGrowth    = 1.5
)

// Parameters holds the two user-adjustable estimates, in percent.
type Parameters struct {
	EstimatedInflation float64 `json:"estimated_inflation"`
	EstimatedGrowth    float64 `json:"estimated_growth"`
}

// DefaultParameters returns the built-in estimates.
func DefaultParameters() Parameters {
	return Parameters{
		EstimatedInflation: DefaultEstimatedInflation,
		EstimatedGrowth:    DefaultEstimatedGrowth,
	}
}

// DerivedMetrics holds values computed from a snapshot and parameters.
// A nil field means an upstream value it depends on is missing.
type DerivedMetrics struct {
	EffectiveRealYield     *float64 `json:"effective_real_yield"`
	MarketImpliedInflation *float64 `json:"market_implied_inflation"`
	DeltaInflation         *float64 `json:"delta_inflation"`
	DeltaGrowth            *float64 `json:"delta_growth"`
	EstimatedReturns       *float64 `json:"estimated_returns"`
}
