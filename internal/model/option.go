package model

// OptionCandidate is a tradable contract snapshot taken at evaluation time.
type OptionCandidate struct {
	Symbol            string
	Underlying        string
	OptionPrice       float64 // last filled price
	CurrentBid        float64
	VWAP              float64
	Spread            float64 // bid - ask, usually negative
	ImpliedVolatility float64 // percentage points, 40 means 40%
	TodayGain         float64 // percent
	Indicators        IndicatorSnapshot
}

// PredicateCount is the number of B-Score predicates.
const PredicateCount = 8

// ScoredCandidate is a candidate with its B-Score.
type ScoredCandidate struct {
	Candidate  OptionCandidate
	BScore     int
	Predicates [PredicateCount]bool
}
