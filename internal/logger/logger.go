package logger

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger. Development mode uses the console encoder.
func New(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// WithTrace adds the span's trace and span IDs when ctx carries a valid span.
func WithTrace(ctx context.Context, l *zap.Logger) *zap.Logger {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return l
	}
	return l.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}

// CronLogger adapts zap to the cron.Logger interface.
type CronLogger struct {
	S *zap.SugaredLogger
}

func (c CronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.S.Debugw(msg, keysAndValues...)
}

func (c CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.S.Errorw(msg, append(keysAndValues, "error", err)...)
}
