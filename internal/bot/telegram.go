package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"cryptopulse/internal/domain"

	tele "gopkg.in/telebot.v3"
)

const summaryWindow = 30 * time.Minute

// SentimentReader is the slice of the sentiment service the bot reads.
type SentimentReader interface {
	Summary(ctx context.Context, coin string, window time.Duration) (domain.Summary, error)
	Latest(ctx context.Context) (domain.SentimentPoint, bool)
}

// Asker answers free-form chat messages.
type Asker interface {
	Ask(ctx context.Context, chatID int64, userMessage string) (string, error)
}

type sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Notifier pushes fired alerts to Telegram chats.
type Notifier struct {
	bot sender
}

func (n *Notifier) Notify(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := n.bot.Send(tele.ChatID(chatID), text); err != nil {
		return fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	return nil
}

// StartTelegramBot registers the command handlers and starts polling in the
// background. A nil advisor leaves free text unanswered. The returned
// notifier is nil when the bot did not start.
func StartTelegramBot(token string, sentiment SentimentReader, advisor Asker) *Notifier {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Printf("failed to create Telegram bot: %v", err)
		return nil
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/coins", func(c tele.Context) error {
		return c.Send(coinsReply())
	})

	b.Handle("/chatid", func(c tele.Context) error {
		return c.Send(chatIDReply(c.Chat().ID))
	})

	b.Handle("/sentiment", func(c tele.Context) error {
		return c.Send(sentimentReply(context.Background(), sentiment, c.Args()))
	})

	b.Handle("/live", func(c tele.Context) error {
		return c.Send(liveReply(context.Background(), sentiment, c.Args()))
	})

	if advisor != nil {
		b.Handle(tele.OnText, func(c tele.Context) error {
			_ = c.Notify(tele.Typing)
			reply, err := advisor.Ask(context.Background(), c.Chat().ID, c.Text())
			if err != nil {
				log.Printf("advisor error for chat %d: %v", c.Chat().ID, err)
				return c.Send("Sorry, I can't answer right now.")
			}
			return c.Send(reply)
		})
	}

	log.Println("Telegram bot started")
	go b.Start()
	return &Notifier{bot: b}
}

func chatIDReply(id int64) string {
	return fmt.Sprintf("Your chat ID is %d.\nUse it as telegramChatId when creating an alert to get notified here.", id)
}

func coinsReply() string {
	var sb strings.Builder
	sb.WriteString("Tracked coins:\n")
	for _, c := range domain.Coins {
		sb.WriteString(fmt.Sprintf("%s (%s)\n", c.Name, c.Symbol))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func supportedList() string {
	symbols := make([]string, len(domain.Coins))
	for i, c := range domain.Coins {
		symbols[i] = c.Symbol
	}
	return strings.Join(symbols, ", ")
}

func lookupArg(command string, args []string) (domain.Coin, string) {
	if len(args) == 0 {
		return domain.Coin{}, fmt.Sprintf("Usage: /%s BTC\nSupported: %s", command, supportedList())
	}
	coin, ok := domain.LookupCoin(strings.Join(args, " "))
	if !ok {
		return domain.Coin{}, fmt.Sprintf("Unknown coin: %s\nSupported: %s", strings.Join(args, " "), supportedList())
	}
	return coin, ""
}

func sentimentReply(ctx context.Context, s SentimentReader, args []string) string {
	coin, usage := lookupArg("sentiment", args)
	if usage != "" {
		return usage
	}
	sum, err := s.Summary(ctx, coin.Name, summaryWindow)
	if err != nil {
		return fmt.Sprintf("Error fetching sentiment for %s: %v", coin.Name, err)
	}
	if sum.Points == 0 {
		return fmt.Sprintf("No sentiment data for %s yet.", coin.Name)
	}
	return fmt.Sprintf(
		"%s sentiment, last %d minutes\nMean: %+.2f\nRange: %+.2f to %+.2f\nLatest: %+.2f\n%s",
		coin.Name, int(summaryWindow/time.Minute), sum.Mean, sum.Min, sum.Max, sum.Latest,
		domain.DescribeScore(coin.Name, sum.Mean),
	)
}

func liveReply(ctx context.Context, s SentimentReader, args []string) string {
	coin, usage := lookupArg("live", args)
	if usage != "" {
		return usage
	}
	p, ok := s.Latest(ctx)
	if !ok {
		return "No live sentiment yet."
	}
	v, ok := p.Score(coin.Name)
	if !ok {
		return fmt.Sprintf("No live sentiment for %s yet.", coin.Name)
	}
	msg := fmt.Sprintf("%s at %s: %+.2f", coin.Name, p.Time.UTC().Format(time.RFC3339), v)
	if title := p.Title[coin.Name]; title != "" {
		msg += "\n" + title
	}
	return msg
}
