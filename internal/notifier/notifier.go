package notifier

import (
	"context"
	"errors"
	"fmt"

	"OptionSentinel/internal/model"
)

// Notifier delivers a subject and plain-text body to one recipient channel.
type Notifier interface {
	Send(ctx context.Context, subject, body string) error
}

// Multi fans a message out to several notifiers. Every channel is attempted;
// failures are joined and wrapped with model.ErrNotification.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, subject, body string) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Send(ctx, subject, body); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", model.ErrNotification, errors.Join(errs...))
}

// Discard drops every message.
type Discard struct{}

func (Discard) Send(context.Context, string, string) error { return nil }
