package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"OptionSentinel/internal/executor"
	"OptionSentinel/internal/logger"
	"OptionSentinel/internal/model"
	"OptionSentinel/internal/notifier"
	"OptionSentinel/internal/progress"
	"OptionSentinel/internal/recorder"
	"OptionSentinel/internal/strategy"
)

// CandidateSource produces the option candidates for one cycle.
type CandidateSource interface {
	Collect(ctx context.Context) ([]model.OptionCandidate, error)
}

// Scheduler runs trading cycles on a cron schedule, one at a time.
type Scheduler struct {
	Cron      *cron.Cron
	Collector CandidateSource
	Executor  *executor.Executor
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Progress  progress.Reporter
	Tracer    trace.Tracer
	Logger    *zap.Logger
	Strategy  strategy.Options
	Report    bool
	Ctx       context.Context
	Now       func() time.Time

	running sync.Mutex
	async   sync.WaitGroup
	mu      sync.Mutex
	last    *model.CycleOutcome
}

// NewScheduler creates a Scheduler. The executor shares its progress reporter.
func NewScheduler(ctx context.Context, col CandidateSource, exec *executor.Executor, n notifier.Notifier,
	rec recorder.Recorder, tracer trace.Tracer, l *zap.Logger) *Scheduler {
	cl := logger.CronLogger{S: l.Sugar()}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		Collector: col,
		Executor:  exec,
		Notifier:  n,
		Recorder:  rec,
		Progress:  exec.Progress,
		Tracer:    tracer,
		Logger:    l,
		Strategy:  exec.Strategy,
		Ctx:       ctx,
		Now:       time.Now,
	}
}

// Register schedules the trading cycle.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.cycleTask); err != nil {
		return fmt.Errorf("register cycle %q: %w", spec, err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for scheduled and manually
// triggered cycles to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.async.Wait()
	s.Logger.Info("scheduler stopped")
}

// RunNow executes one cycle immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.cycleTask()
}

// RunAsync starts one cycle in the background. Stop waits for it.
func (s *Scheduler) RunAsync() {
	s.async.Add(1)
	go func() {
		defer s.async.Done()
		s.RunNow()
	}()
}

func (s *Scheduler) cycleTask() {
	if _, ok := s.RunCycle(s.Ctx); !ok {
		s.Logger.Warn("cycle already running, trigger ignored")
	}
}

// LastOutcome returns the most recent finished cycle, or nil.
func (s *Scheduler) LastOutcome() *model.CycleOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scheduler) stage(out *model.CycleOutcome, st model.Stage) {
	out.Stage = st
	if s.Progress != nil {
		s.Progress.Stage(st)
	}
}

// RunCycle runs fetch, score, execute and record. It reports false without
// running when another cycle is in progress. Failures end the cycle with a
// FAILED or SKIPPED outcome; nothing is returned as an error.
func (s *Scheduler) RunCycle(ctx context.Context) (model.CycleOutcome, bool) {
	if !s.running.TryLock() {
		return model.CycleOutcome{}, false
	}
	defer s.running.Unlock()

	ctx, span := s.Tracer.Start(ctx, "scheduler.cycle")
	defer span.End()
	log := logger.WithTrace(ctx, s.Logger)

	out := model.CycleOutcome{StartedAt: s.Now(), Stage: model.StageIdle}
	log.Info("cycle started")

	s.run(ctx, &out, log)

	out.FinishedAt = s.Now()
	final := out.Stage
	if s.Progress != nil {
		s.Progress.Stage(model.StageIdle)
	}

	span.SetAttributes(
		attribute.String("cycle.status", string(out.Status)),
		attribute.String("cycle.stage", string(final)),
		attribute.Int("cycle.candidates", len(out.Scored)),
	)
	if out.Err != nil {
		span.RecordError(out.Err)
	}
	if out.Status == model.OutcomeFailed {
		span.SetStatus(codes.Error, out.Reason)
	}

	log.Info("cycle finished",
		zap.String("status", string(out.Status)),
		zap.String("stage", string(final)),
		zap.String("reason", out.Reason),
		zap.Duration("elapsed", out.FinishedAt.Sub(out.StartedAt)),
	)

	if err := s.Recorder.RecordCycle(ctx, &out); err != nil {
		log.Error("record cycle failed", zap.Error(err))
	}

	s.mu.Lock()
	s.last = &out
	s.mu.Unlock()
	return out, true
}

func (s *Scheduler) run(ctx context.Context, out *model.CycleOutcome, log *zap.Logger) {
	s.stage(out, model.StageFetchingData)
	fctx, fspan := s.Tracer.Start(ctx, "scheduler.fetch")
	candidates, err := s.Collector.Collect(fctx)
	fspan.End()
	if err != nil {
		log.Error("collect failed", zap.Error(err))
		out.Status = model.OutcomeFailed
		out.Reason = "market data unavailable"
		out.Err = err
		return
	}

	s.stage(out, model.StageScoring)
	scored := strategy.ScoreAll(candidates, s.Strategy)
	out.Scored = scored
	log.Info("candidates scored", zap.Int("count", len(scored)))

	if s.Report && s.Notifier != nil {
		if err := s.Notifier.Send(ctx, notifier.SubjectReport, notifier.FormatReport(scored, out.StartedAt)); err != nil {
			log.Error("report notification failed", zap.Error(err))
		}
	}

	ectx, espan := s.Tracer.Start(ctx, "scheduler.execute")
	res := s.Executor.Execute(ectx, scored)
	espan.End()

	out.Stage = res.Stage
	out.Status = res.Status
	out.Reason = res.Reason
	out.Decision = res.Decision
	out.Order = res.Order
	out.Err = res.Err
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/run":
		s.RunAsync()
		return "Cycle triggered."
	case "/status":
		return notifier.FormatOutcome(s.LastOutcome())
	default:
		return "Commands:\n/run - run a trading cycle now\n/status - last cycle outcome"
	}
}
