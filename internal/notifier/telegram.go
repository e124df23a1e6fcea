package notifier

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"OptionSentinel/internal/model"
)

type messageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// TelegramNotifier sends messages to a single chat and answers commands
// coming from that chat.
type TelegramNotifier struct {
	chat   *tele.Chat
	sender messageSender
	bot    *tele.Bot
	logger *zap.Logger
}

// NewTelegramNotifier creates a bot with optional proxy support. chatID must
// be the numeric Telegram chat identifier.
func NewTelegramNotifier(botToken, chatID, proxyURL string, logger *zap.Logger) (*TelegramNotifier, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("telegram chat id %q: %w", chatID, err)
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("telegram proxy: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  botToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		Client: &http.Client{Timeout: 30 * time.Second, Transport: transport},
		OnError: func(err error, _ tele.Context) {
			logger.Warn("telegram update failed", zap.Error(err))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramNotifier{chat: &tele.Chat{ID: id}, sender: b, bot: b, logger: logger}, nil
}

// Send posts the subject in bold followed by the escaped body.
func (t *TelegramNotifier) Send(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: telegram: %v", model.ErrNotification, err)
	}
	text := "<b>" + html.EscapeString(subject) + "</b>\n<pre>" + html.EscapeString(body) + "</pre>"
	if _, err := t.sender.Send(t.chat, text, tele.ModeHTML); err != nil {
		return fmt.Errorf("%w: telegram: %v", model.ErrNotification, err)
	}
	return nil
}
