package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"OptionSentinel/internal/model"
)

// mailSender is satisfied by *mail.Client.
type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// EmailNotifier sends plain-text mail over implicit TLS with PLAIN auth.
type EmailNotifier struct {
	Sender   string
	Receiver string
	Retries  int
	Backoff  time.Duration
	Timeout  time.Duration

	client mailSender
	logger *zap.Logger
}

// NewEmailNotifier creates an SMTP client for host:port authenticated as sender.
func NewEmailNotifier(host string, port int, sender, receiver, password string, retries int, timeout time.Duration, logger *zap.Logger) (*EmailNotifier, error) {
	c, err := mail.NewClient(host,
		mail.WithPort(port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(sender),
		mail.WithPassword(password),
		mail.WithTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &EmailNotifier{
		Sender:   sender,
		Receiver: receiver,
		Retries:  retries,
		Backoff:  time.Second,
		Timeout:  timeout,
		client:   c,
		logger:   logger,
	}, nil
}

func (e *EmailNotifier) message(subject, body string) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(e.Sender); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := m.To(e.Receiver); err != nil {
		return nil, fmt.Errorf("set receiver: %w", err)
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, body)
	return m, nil
}

// Send delivers the message, retrying with exponential backoff.
// The final failure wraps model.ErrNotification.
func (e *EmailNotifier) Send(ctx context.Context, subject, body string) error {
	m, err := e.message(subject, body)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrNotification, err)
	}

	var lastErr error
	for i := 0; i <= e.Retries; i++ {
		sendCtx, cancel := context.WithTimeout(ctx, e.Timeout)
		err := e.client.DialAndSendWithContext(sendCtx, m)
		cancel()
		if err == nil {
			e.logger.Info("email sent", zap.String("subject", subject), zap.String("to", e.Receiver))
			return nil
		}
		lastErr = err
		if i == e.Retries {
			break
		}
		backoff := e.Backoff * time.Duration(1<<uint(i))
		e.logger.Warn("email send failed, retrying",
			zap.Int("attempt", i+1),
			zap.Int("max", e.Retries+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", model.ErrNotification, ctx.Err())
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("%w: all %d attempts failed: %v", model.ErrNotification, e.Retries+1, lastErr)
}
