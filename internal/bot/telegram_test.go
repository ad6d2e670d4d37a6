package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"cryptopulse/internal/domain"

	tele "gopkg.in/telebot.v3"
)

func TestStartTelegramBotSkipsWithoutToken(t *testing.T) {
	if n := StartTelegramBot("", nil, nil); n != nil {
		t.Fatal("expected no notifier without a token")
	}
}

type fakeSender struct {
	to   string
	what interface{}
	err  error
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.to, f.what = to.Recipient(), what
	return &tele.Message{}, f.err
}

func TestNotifierSendsToChat(t *testing.T) {
	s := &fakeSender{}
	n := &Notifier{bot: s}
	if err := n.Notify(context.Background(), 42, "Bitcoin crossed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.to != "42" || s.what != "Bitcoin crossed" {
		t.Fatalf("unexpected send: to=%s what=%v", s.to, s.what)
	}

	s.err = errors.New("chat not found")
	if err := n.Notify(context.Background(), 7, "x"); err == nil || !strings.Contains(err.Error(), "chat 7") {
		t.Fatalf("expected wrapped send error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.Notify(ctx, 42, "late"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestChatIDReply(t *testing.T) {
	if got := chatIDReply(-1001234); !strings.HasPrefix(got, "Your chat ID is -1001234.") {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestCoinsReply(t *testing.T) {
	got := coinsReply()
	if !strings.HasPrefix(got, "Tracked coins:\nBitcoin (BTC)") || !strings.HasSuffix(got, "Cardano (ADA)") {
		t.Fatalf("unexpected reply:\n%s", got)
	}
}

func TestSentimentReply(t *testing.T) {
	s := &stubSentiment{summary: domain.Summary{Points: 6, Mean: 0.42, Min: 0.1, Max: 0.7, Latest: 0.5}}

	got := sentimentReply(context.Background(), s, []string{"eth"})
	if !strings.Contains(got, "Ethereum sentiment, last 30 minutes") || !strings.Contains(got, "Mean: +0.42") {
		t.Fatalf("unexpected reply:\n%s", got)
	}
	if s.coin != "Ethereum" || s.window != 30*time.Minute {
		t.Fatalf("expected Ethereum over 30m, got %s over %s", s.coin, s.window)
	}

	if got := sentimentReply(context.Background(), s, []string{"usd", "coin"}); !strings.Contains(got, "USD Coin") {
		t.Fatalf("expected multi-word coin name to resolve, got:\n%s", got)
	}
}

func TestSentimentReplyErrors(t *testing.T) {
	s := &stubSentiment{}
	if got := sentimentReply(context.Background(), s, nil); !strings.HasPrefix(got, "Usage: /sentiment") {
		t.Fatalf("expected usage, got %q", got)
	}
	if got := sentimentReply(context.Background(), s, []string{"NOPE"}); !strings.HasPrefix(got, "Unknown coin: NOPE") {
		t.Fatalf("expected unknown coin, got %q", got)
	}
	if got := sentimentReply(context.Background(), s, []string{"BTC"}); got != "No sentiment data for Bitcoin yet." {
		t.Fatalf("expected no-data reply, got %q", got)
	}
	s.err = errors.New("boom")
	if got := sentimentReply(context.Background(), s, []string{"BTC"}); !strings.Contains(got, "boom") {
		t.Fatalf("expected error reply, got %q", got)
	}
}

func TestLiveReply(t *testing.T) {
	s := &stubSentiment{}
	if got := liveReply(context.Background(), s, []string{"BTC"}); got != "No live sentiment yet." {
		t.Fatalf("unexpected reply %q", got)
	}

	s.latest = &domain.SentimentPoint{
		Time:      time.Date(2025, 4, 21, 15, 0, 0, 0, time.UTC),
		Sentiment: map[string]float64{"Bitcoin": 0.65},
		Title:     map[string]string{"Bitcoin": "Bitcoin chatter is strongly bullish (0.65)"},
	}
	got := liveReply(context.Background(), s, []string{"btc"})
	if got != "Bitcoin at 2025-04-21T15:00:00Z: +0.65\nBitcoin chatter is strongly bullish (0.65)" {
		t.Fatalf("unexpected reply %q", got)
	}
	if got := liveReply(context.Background(), s, []string{"SOL"}); got != "No live sentiment for Solana yet." {
		t.Fatalf("unexpected reply %q", got)
	}
}

type stubSentiment struct {
	summary domain.Summary
	err     error
	latest  *domain.SentimentPoint
	coin    string
	window  time.Duration
}

func (s *stubSentiment) Summary(ctx context.Context, coin string, window time.Duration) (domain.Summary, error) {
	s.coin, s.window = coin, window
	return s.summary, s.err
}

func (s *stubSentiment) Latest(ctx context.Context) (domain.SentimentPoint, bool) {
	if s.latest == nil {
		return domain.SentimentPoint{}, false
	}
	return *s.latest, true
}
