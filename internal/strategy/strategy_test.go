package strategy

import (
	"math"
	"math/bits"
	"testing"

	"OptionSentinel/internal/model"
)

// candidateFor builds a candidate whose predicate i holds iff bit i of mask is set.
func candidateFor(mask uint8) model.OptionCandidate {
	pick := func(bit int, yes, no float64) float64 {
		if mask&(1<<bit) != 0 {
			return yes
		}
		return no
	}
	return model.OptionCandidate{
		Symbol:            "SPY240315C00500000",
		OptionPrice:       2.00,
		CurrentBid:        pick(5, 2.00, 1.90),
		VWAP:              pick(3, 101, 99),
		Spread:            pick(4, -0.01, -0.10),
		ImpliedVolatility: pick(6, 30, 55),
		TodayGain:         pick(7, -1.0, 2.0),
		Indicators: model.IndicatorSnapshot{
			RSI14:          pick(0, 30, 50),
			LatestVolume:   int64(pick(1, 500, 10)),
			BollingerLower: pick(2, 3.0, 1.0),
			SMA5:           100,
		},
	}
}

func TestScore_EachPredicateAddsOne(t *testing.T) {
	for m := 0; m < 256; m++ {
		mask := uint8(m)
		sc := Score(candidateFor(mask), DefaultOptions())
		want := bits.OnesCount8(mask)
		if sc.BScore != want {
			t.Fatalf("mask %08b: expected score %d, got %d", mask, want, sc.BScore)
		}
		for i := 0; i < model.PredicateCount; i++ {
			if sc.Predicates[i] != (mask&(1<<i) != 0) {
				t.Fatalf("mask %08b: predicate %s mismatch", mask, PredicateNames[i])
			}
		}
	}
}

func TestScore_Boundaries(t *testing.T) {
	c := candidateFor(0)
	c.Indicators.RSI14 = 40
	c.Indicators.LatestVolume = 100
	c.Indicators.BollingerLower = c.OptionPrice
	c.VWAP = c.Indicators.SMA5
	c.ImpliedVolatility = 40
	c.TodayGain = 0
	c.Spread = -0.05
	sc := Score(c, DefaultOptions())
	// all inclusive bounds hold, spread > -0.05 is strict
	if sc.BScore != 6 {
		t.Errorf("expected 6 at boundaries, got %d (%v)", sc.BScore, sc.Predicates)
	}
	if sc.Predicates[4] {
		t.Error("spread of exactly -0.05 must not count")
	}
}

func TestScore_PriceEqualsBidTolerance(t *testing.T) {
	c := candidateFor(0)
	c.OptionPrice = 0.1 + 0.2
	c.CurrentBid = 0.3
	if !Score(c, DefaultOptions()).Predicates[5] {
		t.Error("expected float noise to be within tolerance")
	}
	c.CurrentBid = 0.29
	if Score(c, DefaultOptions()).Predicates[5] {
		t.Error("a full tick apart must not count as equal")
	}
}

func TestScore_NonFiniteInputsAreFalse(t *testing.T) {
	nan := math.NaN()
	c := model.OptionCandidate{
		OptionPrice:       nan,
		CurrentBid:        nan,
		VWAP:              nan,
		Spread:            nan,
		ImpliedVolatility: math.Inf(1),
		TodayGain:         nan,
		Indicators: model.IndicatorSnapshot{
			RSI14:          nan,
			BollingerLower: nan,
			SMA5:           nan,
			VWAP:           nan,
		},
	}
	sc := Score(c, DefaultOptions())
	if sc.BScore != 0 {
		t.Errorf("expected 0 for NaN candidate, got %d (%v)", sc.BScore, sc.Predicates)
	}
	if sc.BScore < 0 || sc.BScore > model.PredicateCount {
		t.Errorf("score out of range: %d", sc.BScore)
	}
}

func TestScoreAll_PreservesOrder(t *testing.T) {
	cands := []model.OptionCandidate{candidateFor(0x01), candidateFor(0xFF), candidateFor(0x03)}
	cands[0].Symbol, cands[1].Symbol, cands[2].Symbol = "A", "B", "C"
	scored := ScoreAll(cands, DefaultOptions())
	for i, want := range []string{"A", "B", "C"} {
		if scored[i].Candidate.Symbol != want {
			t.Errorf("index %d: expected %s, got %s", i, want, scored[i].Candidate.Symbol)
		}
	}
}

func scoredList(scores []int, spreads []float64) []model.ScoredCandidate {
	out := make([]model.ScoredCandidate, len(scores))
	for i := range scores {
		out[i] = model.ScoredCandidate{
			Candidate: model.OptionCandidate{Symbol: string(rune('A' + i)), Spread: spreads[i]},
			BScore:    scores[i],
		}
	}
	return out
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name    string
		scores  []int
		spreads []float64
		opts    Options
		want    string
	}{
		{"empty", nil, nil, DefaultOptions(), ""},
		{"first wins by default", []int{2, 7, 5}, []float64{0, 0, 0}, DefaultOptions(), "A"},
		{"rank by score", []int{2, 7, 5}, []float64{0, 0, 0}, Options{RankByScore: true}, "B"},
		{"ties go to tightest spread", []int{6, 6, 6}, []float64{-0.10, -0.02, 0.05}, Options{RankByScore: true}, "B"},
		{"equal ties keep order", []int{6, 6}, []float64{-0.02, 0.02}, Options{RankByScore: true}, "A"},
		{"min score filters head", []int{2, 4, 7}, []float64{0, 0, 0}, Options{MinBScore: 4}, "B"},
		{"min score filters all", []int{1, 2}, []float64{0, 0}, Options{MinBScore: 5}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(scoredList(tt.scores, tt.spreads), tt.opts)
			if tt.want == "" {
				if got != nil {
					t.Fatalf("expected no selection, got %s", got.Candidate.Symbol)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected %s, got nil", tt.want)
			}
			if got.Candidate.Symbol != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got.Candidate.Symbol)
			}
		})
	}
}
