package recorder

import (
	"context"

	"OptionSentinel/internal/model"
)

// NoopRecorder is used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordCycle(context.Context, *model.CycleOutcome) error { return nil }
func (n *NoopRecorder) Close() error                                           { return nil }
