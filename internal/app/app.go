package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"OptionSentinel/internal/broker"
	"OptionSentinel/internal/collector"
	"OptionSentinel/internal/config"
	"OptionSentinel/internal/executor"
	"OptionSentinel/internal/logger"
	"OptionSentinel/internal/notifier"
	"OptionSentinel/internal/progress"
	"OptionSentinel/internal/recorder"
	"OptionSentinel/internal/scheduler"
	"OptionSentinel/internal/strategy"
	otrace "OptionSentinel/internal/trace"
)

// Version is stamped at build time.
var Version = "dev"

// ConfigPath returns CONFIG_PATH or the default location.
func ConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

// Run loads configuration for profile and runs the trader until SIGINT/SIGTERM.
func Run(profile config.Profile) error {
	cfg, err := config.Load(ConfigPath(), profile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer log.Sync()
	log = log.With(zap.String("profile", profile.Name))
	log.Info("option sentinel starting",
		zap.String("version", Version),
		zap.Strings("symbols", cfg.Symbols),
		zap.String("broker", cfg.Alpaca.BaseURL),
	)

	tp, err := otrace.Setup(cfg.Trace.Enabled, Version, os.Stdout)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Warn("trace shutdown", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := collector.NewYahooFetcher(cfg.Proxy, cfg.Timeouts.MarketData)
	chain := broker.NewOptionChain(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL,
		cfg.Options.MaxContracts, cfg.Timeouts.MarketData, log.Named("options"))
	col := collector.NewCollector(fetcher, chain, cfg.Symbols, cfg.MarketData.LookbackDays, log.Named("collector"))
	log.Info("data source ready", zap.String("fetcher", fetcher.Name()))

	brk := broker.NewAlpaca(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL, cfg.Timeouts.Broker, log.Named("broker"))

	notif, tg, err := buildNotifiers(cfg, log.Named("notifier"))
	if err != nil {
		return err
	}

	rec := buildRecorder(ctx, cfg, tp.Tracer, log.Named("recorder"))
	defer rec.Close()

	var rep progress.Reporter = progress.Noop{}
	if cfg.Progress {
		rep = progress.NewBar(os.Stderr)
	}

	opts := strategy.Options{
		PriceTolerance: cfg.Strategy.PriceTolerance,
		MinBScore:      cfg.Strategy.MinBScore,
		RankByScore:    cfg.Strategy.RankByScore,
	}
	exec := executor.New(brk, notif, opts, log.Named("executor"))
	exec.Allocation = cfg.Strategy.Allocation
	exec.Progress = rep

	sched := scheduler.NewScheduler(ctx, col, exec, notif, rec, tp.Tracer, log.Named("scheduler"))
	sched.Report = cfg.Email.Report
	if err := sched.Register(cfg.Schedule.CycleSpec); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tg != nil {
		go tg.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, running a cycle now")
		sched.RunAsync()
	}

	log.Info("running", zap.String("schedule", cfg.Schedule.CycleSpec))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	log.Info("shutdown signal received", zap.String("signal", sig.String()))
	cancel()
	return nil
}

func buildNotifiers(cfg *config.Config, log *zap.Logger) (notifier.Notifier, *notifier.TelegramNotifier, error) {
	var multi notifier.Multi
	if cfg.Email.Enabled {
		em, err := notifier.NewEmailNotifier(cfg.Email.Host, cfg.Email.Port, cfg.Email.Sender, cfg.Email.Receiver,
			cfg.Email.Password, cfg.Email.Retries, cfg.Timeouts.Email, log)
		if err != nil {
			return nil, nil, fmt.Errorf("init email: %w", err)
		}
		multi = append(multi, em)
	}
	var tg *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		var err error
		tg, err = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		if err != nil {
			return nil, nil, fmt.Errorf("init telegram: %w", err)
		}
		multi = append(multi, tg)
	}
	if len(multi) == 0 {
		log.Info("no notification channel configured")
		return notifier.Discard{}, nil, nil
	}
	return multi, tg, nil
}

func buildRecorder(ctx context.Context, cfg *config.Config, tracer trace.Tracer, log *zap.Logger) recorder.Recorder {
	if cfg.Database.PostgresURL != "" {
		pr, err := recorder.NewPostgresRecorder(ctx, cfg.Database.PostgresURL, tracer)
		if err == nil {
			log.Info("postgres recorder connected")
			return pr
		}
		log.Warn("init postgres recorder failed", zap.Error(err))
	}
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err == nil {
			return sr
		}
		log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
	}
	return recorder.NewNoopRecorder()
}
