package strategy

import (
	"math"

	"OptionSentinel/internal/model"
)

// DefaultPriceTolerance is one option tick. Prices closer than this count as equal.
const DefaultPriceTolerance = 0.01

// PredicateNames labels each B-Score predicate, in scoring order.
var PredicateNames = [model.PredicateCount]string{
	"RSI<=40",
	"Volume>=100",
	"Price<=LowerBB",
	"SMA5<=VWAP",
	"Spread>-0.05",
	"Price=Bid",
	"IV<=40",
	"TodayGain<=0",
}

// Options tunes scoring and selection.
type Options struct {
	PriceTolerance float64
	MinBScore      int
	RankByScore    bool
}

// DefaultOptions reproduces the literal behavior: first candidate wins.
func DefaultOptions() Options {
	return Options{PriceTolerance: DefaultPriceTolerance}
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Score evaluates the eight B-Score predicates. Each true predicate adds one.
// A predicate with a non-finite input is false, so the result is always in [0,8].
func Score(c model.OptionCandidate, opts Options) model.ScoredCandidate {
	ind := c.Indicators
	tol := opts.PriceTolerance
	if tol <= 0 || !finite(tol) {
		tol = DefaultPriceTolerance
	}

	p := [model.PredicateCount]bool{
		finite(ind.RSI14) && ind.RSI14 <= 40,
		ind.LatestVolume >= 100,
		finite(c.OptionPrice, ind.BollingerLower) && c.OptionPrice <= ind.BollingerLower,
		finite(ind.SMA5, c.VWAP) && ind.SMA5 <= c.VWAP,
		finite(c.Spread) && c.Spread > -0.05,
		finite(c.OptionPrice, c.CurrentBid) && math.Abs(c.OptionPrice-c.CurrentBid) < tol,
		finite(c.ImpliedVolatility) && c.ImpliedVolatility <= 40,
		finite(c.TodayGain) && c.TodayGain <= 0,
	}

	score := 0
	for _, ok := range p {
		if ok {
			score++
		}
	}
	return model.ScoredCandidate{Candidate: c, BScore: score, Predicates: p}
}

// ScoreAll scores candidates and keeps their input order.
func ScoreAll(candidates []model.OptionCandidate, opts Options) []model.ScoredCandidate {
	scored := make([]model.ScoredCandidate, len(candidates))
	for i, c := range candidates {
		scored[i] = Score(c, opts)
	}
	return scored
}
