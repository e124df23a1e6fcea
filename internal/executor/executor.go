package executor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"OptionSentinel/internal/broker"
	"OptionSentinel/internal/fund"
	"OptionSentinel/internal/model"
	"OptionSentinel/internal/notifier"
	"OptionSentinel/internal/progress"
	"OptionSentinel/internal/strategy"
)

// Executor turns a scored candidate list into at most one limit order.
type Executor struct {
	Broker     broker.Broker
	Notifier   notifier.Notifier
	Progress   progress.Reporter
	Strategy   strategy.Options
	Allocation float64
	Logger     *zap.Logger
}

// New creates an Executor with the default allocation.
func New(b broker.Broker, n notifier.Notifier, opts strategy.Options, logger *zap.Logger) *Executor {
	return &Executor{
		Broker:     b,
		Notifier:   n,
		Progress:   progress.Noop{},
		Strategy:   opts,
		Allocation: fund.DefaultAllocation,
		Logger:     logger,
	}
}

func (e *Executor) stage(out *model.CycleOutcome, s model.Stage) {
	out.Stage = s
	if e.Progress != nil {
		e.Progress.Stage(s)
	}
}

// Execute selects, sizes, submits and notifies. The caller owns the outcome
// timestamps. Order and notification failures never surface as errors: they
// degrade to SKIPPED and a log line respectively.
func (e *Executor) Execute(ctx context.Context, scored []model.ScoredCandidate) model.CycleOutcome {
	out := model.CycleOutcome{Scored: scored}
	e.execute(ctx, &out)
	return out
}

func (e *Executor) execute(ctx context.Context, out *model.CycleOutcome) {
	e.stage(out, model.StageSelecting)
	selected := strategy.Select(out.Scored, e.Strategy)
	if selected == nil {
		e.skip(out, "no suitable options")
		return
	}
	e.Logger.Info("candidate selected",
		zap.String("symbol", selected.Candidate.Symbol),
		zap.Int("b_score", selected.BScore),
		zap.Float64("price", selected.Candidate.OptionPrice),
	)

	e.stage(out, model.StageSizing)
	acct, err := e.Broker.Account(ctx)
	if err != nil {
		if !errors.Is(err, model.ErrAccountQuery) {
			err = fmt.Errorf("%w: %v", model.ErrAccountQuery, err)
		}
		e.Logger.Error("account query failed", zap.Error(err))
		out.Status = model.OutcomeFailed
		out.Reason = "account query failed"
		out.Err = err
		return
	}

	decision := fund.Size(acct, selected, e.Allocation)
	out.Decision = &decision
	e.Logger.Info("position sized",
		zap.Float64("cash", decision.AvailableFunds),
		zap.Float64("investment", decision.InvestmentAmount),
		zap.Int64("contracts", decision.ContractCount),
	)
	if decision.ContractCount == 0 {
		e.skip(out, "not enough funds")
		return
	}

	e.stage(out, model.StageSubmitting)
	c := selected.Candidate
	order, err := e.Broker.SubmitLimitBuy(ctx, c.Symbol, decision.ContractCount, c.OptionPrice)
	if err != nil {
		if !errors.Is(err, model.ErrOrderSubmission) {
			err = fmt.Errorf("%w: %v", model.ErrOrderSubmission, err)
		}
		e.Logger.Error("order submission failed", zap.String("symbol", c.Symbol), zap.Error(err))
		out.Err = err
		e.skip(out, "order submission failed")
		return
	}
	out.Order = order
	out.Status = model.OutcomeOrdered

	e.stage(out, model.StageNotifying)
	if e.Notifier == nil {
		return
	}
	if err := e.Notifier.Send(ctx, notifier.SubjectTrade, notifier.FormatTrade(&decision, order)); err != nil {
		e.Logger.Error("trade notification failed", zap.String("order", order.ID), zap.Error(err))
	}
}

func (e *Executor) skip(out *model.CycleOutcome, reason string) {
	e.stage(out, model.StageSkipped)
	out.Status = model.OutcomeSkipped
	out.Reason = reason
	e.Logger.Info("no order placed", zap.String("reason", reason))
}
