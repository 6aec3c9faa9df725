package pipeline

import (
	"github.com/theirongolddev/ratewatch/internal/model"
)

// Derive computes every derived metric from a snapshot and the current
// estimates. Intermediate values keep full precision; rounding happens only
// when a value is formatted for display.
func Derive(snap *model.MarketSnapshot, p model.Parameters) model.DerivedMetrics {
	var d model.DerivedMetrics
	if snap == nil {
		return d
	}

	if snap.TBill != nil {
		d.EffectiveRealYield = model.Float(*snap.TBill - p.EstimatedInflation)
	}

	if r := snap.LongTermRates; r != nil {
		implied := r.BondYield - r.TIPSYield
		deltaInflation := implied - p.EstimatedInflation
		deltaGrowth := r.TIPSYield - p.EstimatedGrowth

		d.MarketImpliedInflation = model.Float(implied)
		d.DeltaInflation = model.Float(deltaInflation)
		d.DeltaGrowth = model.Float(deltaGrowth)
		d.EstimatedReturns = model.Float(r.BondYield + deltaInflation + deltaGrowth)
	}

	return d
}
