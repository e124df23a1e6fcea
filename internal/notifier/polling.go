package notifier

import (
	"context"
	"html"
	"strings"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(command string) string

// StartPolling long-polls for commands from the configured chat. Blocks
// until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	t.bot.Use(restrictChat(t.chat.ID, t.logger))
	reply := func(c tele.Context) error { return t.command(c, handler) }
	for _, endpoint := range []string{"/run", "/status", "/help", tele.OnText} {
		t.bot.Handle(endpoint, reply)
	}

	go t.bot.Start()
	<-ctx.Done()
	t.bot.Stop()
	t.logger.Info("telegram polling stopped")
}

// restrictChat drops updates that do not come from chatID.
func restrictChat(chatID int64, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			if chat == nil || chat.ID != chatID {
				var from int64
				if chat != nil {
					from = chat.ID
				}
				logger.Warn("ignoring message from foreign chat", zap.Int64("chat_id", from))
				return nil
			}
			return next(c)
		}
	}
}

func (t *TelegramNotifier) command(c tele.Context, handler CommandHandler) error {
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return nil
	}
	t.logger.Info("received command", zap.String("command", text))
	out := handler(text)
	if out == "" {
		return nil
	}
	if _, err := t.sender.Send(c.Chat(), "<pre>"+html.EscapeString(out)+"</pre>", tele.ModeHTML); err != nil {
		t.logger.Error("send reply failed", zap.Error(err))
	}
	return nil
}
