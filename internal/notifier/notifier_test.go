package notifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"OptionSentinel/internal/model"
)

type stubMail struct {
	fails int
	calls int
}

func (s *stubMail) DialAndSendWithContext(_ context.Context, _ ...*mail.Msg) error {
	s.calls++
	if s.calls <= s.fails {
		return errors.New("535 auth failed")
	}
	return nil
}

func newTestEmail(stub *stubMail, retries int) *EmailNotifier {
	return &EmailNotifier{
		Sender:   "bot@example.com",
		Receiver: "me@example.com",
		Retries:  retries,
		Backoff:  time.Millisecond,
		Timeout:  time.Second,
		client:   stub,
		logger:   zap.NewNop(),
	}
}

func TestEmailSendRetries(t *testing.T) {
	tests := []struct {
		name      string
		fails     int
		retries   int
		wantErr   bool
		wantCalls int
	}{
		{"first try", 0, 2, false, 1},
		{"recovers", 2, 2, false, 3},
		{"exhausted", 5, 2, true, 3},
		{"no retries", 1, 0, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubMail{fails: tt.fails}
			err := newTestEmail(stub, tt.retries).Send(context.Background(), SubjectTrade, "body")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, model.ErrNotification) {
				t.Errorf("expected ErrNotification, got %v", err)
			}
			if stub.calls != tt.wantCalls {
				t.Errorf("expected %d attempts, got %d", tt.wantCalls, stub.calls)
			}
		})
	}
}

func TestEmailInvalidAddress(t *testing.T) {
	e := newTestEmail(&stubMail{}, 0)
	e.Receiver = "not an address"
	if err := e.Send(context.Background(), SubjectReport, "x"); !errors.Is(err, model.ErrNotification) {
		t.Errorf("expected ErrNotification, got %v", err)
	}
}

type recordingNotifier struct {
	subjects []string
	err      error
}

func (r *recordingNotifier) Send(_ context.Context, subject, _ string) error {
	r.subjects = append(r.subjects, subject)
	return r.err
}

func TestMultiAttemptsAll(t *testing.T) {
	a := &recordingNotifier{err: errors.New("down")}
	b := &recordingNotifier{}
	err := Multi{a, nil, b}.Send(context.Background(), SubjectReport, "body")
	if !errors.Is(err, model.ErrNotification) {
		t.Errorf("expected ErrNotification, got %v", err)
	}
	if len(a.subjects) != 1 || len(b.subjects) != 1 {
		t.Errorf("expected both notifiers called, got %d and %d", len(a.subjects), len(b.subjects))
	}
	if err := (Multi{b}).Send(context.Background(), SubjectReport, "body"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

type fakeSender struct {
	err      error
	to       []int64
	messages []string
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	chat, ok := to.(*tele.Chat)
	if !ok {
		return nil, fmt.Errorf("unexpected recipient type %T", to)
	}
	if f.err != nil {
		return nil, f.err
	}
	f.to = append(f.to, chat.ID)
	f.messages = append(f.messages, fmt.Sprint(what))
	return &tele.Message{}, nil
}

func newTestTelegram(sender *fakeSender) *TelegramNotifier {
	return &TelegramNotifier{chat: &tele.Chat{ID: 42}, sender: sender, logger: zap.NewNop()}
}

func offlineContext(t *testing.T, chatID int64, text string) tele.Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	if err != nil {
		t.Fatalf("offline bot: %v", err)
	}
	return b.NewContext(tele.Update{Message: &tele.Message{Chat: &tele.Chat{ID: chatID}, Text: text}})
}

func TestTelegramSend(t *testing.T) {
	sender := &fakeSender{}
	tn := newTestTelegram(sender)
	if err := tn.Send(context.Background(), SubjectTrade, "qty <8>"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.to) != 1 || sender.to[0] != 42 {
		t.Errorf("unexpected recipients %v", sender.to)
	}
	if !strings.Contains(sender.messages[0], "qty &lt;8&gt;") {
		t.Errorf("expected escaped body, got %q", sender.messages[0])
	}
}

func TestTelegramSendError(t *testing.T) {
	tn := newTestTelegram(&fakeSender{err: errors.New("telegram: Unauthorized (401)")})
	if err := tn.Send(context.Background(), SubjectTrade, "x"); !errors.Is(err, model.ErrNotification) {
		t.Errorf("expected ErrNotification, got %v", err)
	}
}

func TestNewTelegramNotifierBadChatID(t *testing.T) {
	if _, err := NewTelegramNotifier("TOKEN", "@channel", "", zap.NewNop()); err == nil {
		t.Error("expected error for non-numeric chat id")
	}
}

func TestRestrictChat(t *testing.T) {
	tests := []struct {
		name   string
		chatID int64
		want   bool
	}{
		{"configured chat", 42, true},
		{"foreign chat", 99, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := func(tele.Context) error {
				called = true
				return nil
			}
			err := restrictChat(42, zap.NewNop())(next)(offlineContext(t, tt.chatID, "/run"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if called != tt.want {
				t.Errorf("handler called = %v, want %v", called, tt.want)
			}
		})
	}
}

func TestTelegramCommandReplies(t *testing.T) {
	sender := &fakeSender{}
	tn := newTestTelegram(sender)

	var got []string
	handler := func(cmd string) string {
		got = append(got, cmd)
		if cmd == "/status" {
			return "last <run>"
		}
		return ""
	}
	for _, text := range []string{" /status ", "/run", "  "} {
		if err := tn.command(offlineContext(t, 42, text), handler); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(got) != 2 || got[0] != "/status" || got[1] != "/run" {
		t.Errorf("unexpected commands %v", got)
	}
	if len(sender.messages) != 1 || sender.messages[0] != "<pre>last &lt;run&gt;</pre>" {
		t.Errorf("unexpected replies %v", sender.messages)
	}
	if sender.to[0] != 42 {
		t.Errorf("reply sent to %d", sender.to[0])
	}
}

func TestFormatReport(t *testing.T) {
	scored := []model.ScoredCandidate{{
		Candidate: model.OptionCandidate{
			Symbol: "SPY240315C00500000", Underlying: "SPY",
			OptionPrice: 2.5, CurrentBid: 2.5, Spread: -0.02,
			ImpliedVolatility: 18, TodayGain: math.NaN(), VWAP: 501.2,
		},
		BScore:     2,
		Predicates: [model.PredicateCount]bool{true, false, false, false, true},
	}}
	out := FormatReport(scored, time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC))

	for _, want := range []string{"SPY240315C00500000", "B-Score 2/8", "RSI<=40, Spread>-0.05", "gain n/a%"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if empty := FormatReport(nil, time.Now()); !strings.Contains(empty, "No suitable options") {
		t.Errorf("unexpected empty report %q", empty)
	}
}

func TestFormatTradeAndOutcome(t *testing.T) {
	sel := &model.ScoredCandidate{BScore: 5}
	d := &model.TradeDecision{Selected: sel, AvailableFunds: 10000, Allocation: 0.2, InvestmentAmount: 2000, ContractCount: 8}
	o := &model.OrderResult{ID: "ord-1", Status: "accepted", Symbol: "SPY1", Qty: 8, LimitPrice: 2.5}

	trade := FormatTrade(d, o)
	for _, want := range []string{"ord-1", "Contracts: 8", "Limit price: 2.50", "Investment: 2000.00 (20%)", "B-Score: 5/8"} {
		if !strings.Contains(trade, want) {
			t.Errorf("trade message missing %q:\n%s", want, trade)
		}
	}

	if FormatOutcome(nil) != "No cycle has run yet." {
		t.Errorf("unexpected nil outcome text")
	}
	out := FormatOutcome(&model.CycleOutcome{Status: model.OutcomeOrdered, Stage: model.StageNotifying, Order: o})
	if !strings.Contains(out, "ORDERED") || !strings.Contains(out, "SPY1 x8 @ 2.50") {
		t.Errorf("unexpected outcome text:\n%s", out)
	}
}
