// Package model defines the market data and derived metric types shared across ratewatch.
package model

import "time"

// LongTermRates is the response of the long-term rates endpoint.
type LongTermRates struct {
	BondYield float64 `json:"bond_yield"`
	TIPSYield float64 `json:"tips_yield"`
}

// MarketSnapshot is the aggregated result of one fetch cycle across all
// three indicator sources. A nil field means the source reported null.
type MarketSnapshot struct {
	Inflation     *float64       `json:"inflation"`
	TBill         *float64       `json:"tbill"`
	LongTermRates *LongTermRates `json:"long_term_rates"`
	FetchedAt     time.Time      `json:"fetched_at"`
}

// SameValues reports whether two snapshots carry identical indicator values,
// ignoring FetchedAt.
func (s *MarketSnapshot) SameValues(o *MarketSnapshot) bool {
	if s == nil || o == nil {
		return s == o
	}
	if !equalPtr(s.Inflation, o.Inflation) || !equalPtr(s.TBill, o.TBill) {
		return false
	}
	switch {
	case s.LongTermRates == nil && o.LongTermRates == nil:
		return true
	case s.LongTermRates == nil || o.LongTermRates == nil:
		return false
	}
	return *s.LongTermRates == *o.LongTermRates
}

func equalPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Float returns a pointer to v. Handy for building snapshots in code and tests.
func Float(v float64) *float64 {
	return &v
}
