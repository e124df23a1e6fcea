package strategy

import (
	"math"

	"OptionSentinel/internal/model"
)

// Select picks the trade from scored candidates, or nil when none qualifies.
//
// Candidates below MinBScore are dropped first. By default the first remaining
// candidate is taken as-is, regardless of score. With RankByScore the highest
// score wins, ties go to the tightest spread and then to the earlier candidate.
func Select(scored []model.ScoredCandidate, opts Options) *model.ScoredCandidate {
	var best *model.ScoredCandidate
	for i := range scored {
		sc := &scored[i]
		if sc.BScore < opts.MinBScore {
			continue
		}
		if !opts.RankByScore {
			return sc
		}
		if best == nil || better(sc, best) {
			best = sc
		}
	}
	return best
}

func better(a, b *model.ScoredCandidate) bool {
	if a.BScore != b.BScore {
		return a.BScore > b.BScore
	}
	return spreadWidth(a) < spreadWidth(b)
}

func spreadWidth(sc *model.ScoredCandidate) float64 {
	s := sc.Candidate.Spread
	if math.IsNaN(s) {
		return math.Inf(1)
	}
	return math.Abs(s)
}
