package notifier

import (
	"fmt"
	"math"
	"strings"
	"time"

	"OptionSentinel/internal/model"
	"OptionSentinel/internal/strategy"
)

const (
	SubjectReport = "Stock Report"
	SubjectTrade  = "Trade Executed"
)

func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}

// FormatReport lists every scored candidate with its indicators and passed predicates.
func FormatReport(scored []model.ScoredCandidate, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Option screen | %s\n", at.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Candidates: %d\n\n", len(scored))
	if len(scored) == 0 {
		b.WriteString("No suitable options found.\n")
		return b.String()
	}

	for i, s := range scored {
		c := s.Candidate
		ind := c.Indicators
		fmt.Fprintf(&b, "%d. %s (%s)  B-Score %d/%d\n", i+1, c.Symbol, c.Underlying, s.BScore, model.PredicateCount)
		fmt.Fprintf(&b, "   price %s  bid %s  spread %s  IV %s  gain %s%%\n",
			num(c.OptionPrice), num(c.CurrentBid), num(c.Spread), num(c.ImpliedVolatility), num(c.TodayGain))
		fmt.Fprintf(&b, "   RSI14 %s  BB lower %s  SMA5 %s  VWAP %s  volume %d\n",
			num(ind.RSI14), num(ind.BollingerLower), num(ind.SMA5), num(c.VWAP), ind.LatestVolume)

		var passed []string
		for j, ok := range s.Predicates {
			if ok {
				passed = append(passed, strategy.PredicateNames[j])
			}
		}
		if len(passed) == 0 {
			b.WriteString("   passed: none\n")
		} else {
			fmt.Fprintf(&b, "   passed: %s\n", strings.Join(passed, ", "))
		}
	}
	return b.String()
}

// FormatTrade describes a submitted order.
func FormatTrade(d *model.TradeDecision, o *model.OrderResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s submitted (%s)\n\n", o.ID, o.Status)
	fmt.Fprintf(&b, "Symbol: %s\n", o.Symbol)
	fmt.Fprintf(&b, "Contracts: %d\n", o.Qty)
	fmt.Fprintf(&b, "Limit price: %.2f (GTC)\n", o.LimitPrice)
	if d != nil {
		fmt.Fprintf(&b, "Available funds: %.2f\n", d.AvailableFunds)
		fmt.Fprintf(&b, "Investment: %.2f (%.0f%%)\n", d.InvestmentAmount, d.Allocation*100)
		if d.Selected != nil {
			fmt.Fprintf(&b, "B-Score: %d/%d\n", d.Selected.BScore, model.PredicateCount)
		}
	}
	if !o.SubmittedAt.IsZero() {
		fmt.Fprintf(&b, "Submitted at: %s\n", o.SubmittedAt.Format(time.RFC3339))
	}
	return b.String()
}

// FormatOutcome summarizes a finished cycle.
func FormatOutcome(o *model.CycleOutcome) string {
	if o == nil {
		return "No cycle has run yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Last cycle: %s\n", o.Status)
	fmt.Fprintf(&b, "Started: %s\n", o.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Duration: %s\n", o.FinishedAt.Sub(o.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(&b, "Stage: %s\n", o.Stage)
	fmt.Fprintf(&b, "Candidates: %d\n", len(o.Scored))
	if o.Reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", o.Reason)
	}
	if o.Order != nil {
		fmt.Fprintf(&b, "Order: %s %s x%d @ %.2f\n", o.Order.ID, o.Order.Symbol, o.Order.Qty, o.Order.LimitPrice)
	}
	if o.Err != nil {
		fmt.Fprintf(&b, "Error: %v\n", o.Err)
	}
	return b.String()
}
