package recorder

import (
	"context"
	"math"
	"strings"

	"OptionSentinel/internal/model"
)

// Recorder persists cycle history for later analysis.
type Recorder interface {
	RecordCycle(ctx context.Context, outcome *model.CycleOutcome) error
	Close() error
}

// cycleRow is the flattened cycles table row.
type cycleRow struct {
	StartedAt      int64
	FinishedAt     int64
	Stage          string
	Status         string
	Reason         string
	Candidates     int
	SelectedSymbol string
	BScore         any
	Cash           any
	Investment     any
	Contracts      int64
	OrderID        string
	OrderStatus    string
	LimitPrice     any
	Error          string
}

// scoreRow is one candidate_scores row.
type scoreRow struct {
	Symbol      string
	Underlying  string
	BScore      int
	Predicates  string
	OptionPrice any
	Bid         any
	VWAP        any
	Spread      any
	IV          any
	TodayGain   any
	RSI14       any
	BBLower     any
	SMA5        any
	Volume      int64
}

// nullable maps non-finite values to NULL.
func nullable(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func predicateMask(p [model.PredicateCount]bool) string {
	var b strings.Builder
	for _, ok := range p {
		if ok {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func newCycleRow(o *model.CycleOutcome) cycleRow {
	r := cycleRow{
		StartedAt:  o.StartedAt.Unix(),
		FinishedAt: o.FinishedAt.Unix(),
		Stage:      string(o.Stage),
		Status:     string(o.Status),
		Reason:     o.Reason,
		Candidates: len(o.Scored),
	}
	if d := o.Decision; d != nil {
		r.Cash = nullable(d.AvailableFunds)
		r.Investment = nullable(d.InvestmentAmount)
		r.Contracts = d.ContractCount
		if d.Selected != nil {
			r.SelectedSymbol = d.Selected.Candidate.Symbol
			r.BScore = d.Selected.BScore
		}
	}
	if ord := o.Order; ord != nil {
		r.OrderID = ord.ID
		r.OrderStatus = ord.Status
		r.LimitPrice = nullable(ord.LimitPrice)
	}
	if o.Err != nil {
		r.Error = o.Err.Error()
	}
	return r
}

func newScoreRows(scored []model.ScoredCandidate) []scoreRow {
	rows := make([]scoreRow, len(scored))
	for i, s := range scored {
		c := s.Candidate
		rows[i] = scoreRow{
			Symbol:      c.Symbol,
			Underlying:  c.Underlying,
			BScore:      s.BScore,
			Predicates:  predicateMask(s.Predicates),
			OptionPrice: nullable(c.OptionPrice),
			Bid:         nullable(c.CurrentBid),
			VWAP:        nullable(c.VWAP),
			Spread:      nullable(c.Spread),
			IV:          nullable(c.ImpliedVolatility),
			TodayGain:   nullable(c.TodayGain),
			RSI14:       nullable(c.Indicators.RSI14),
			BBLower:     nullable(c.Indicators.BollingerLower),
			SMA5:        nullable(c.Indicators.SMA5),
			Volume:      c.Indicators.LatestVolume,
		}
	}
	return rows
}
