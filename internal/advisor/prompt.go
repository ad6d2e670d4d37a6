package advisor

import (
	"fmt"
	"strings"
	"time"

	"cryptopulse/internal/domain"
)

const maxExplainRows = 20

const explainerRole = "You are a helpful assistant that explains crypto market sentiment."

const advisorPhilosophy = `You are the CryptoPulse sentiment assistant. You interpret social-media sentiment scores for cryptocurrencies; you do not predict prices.

Scores:
- Every score lies in [-1, 1]. Above 0.6 is strongly bullish, 0.2 to 0.6 mildly bullish, -0.2 to 0.2 neutral, -0.6 to -0.2 mildly bearish, below -0.6 strongly bearish.
- Averages over a window matter more than a single tick.

Rules:
- Always reference the specific numbers below when making observations.
- Never fabricate data. If a coin has no data, say so.
- Keep responses concise. You are talking via Telegram.
- Sentiment is not financial advice; mention this only when the user asks what to buy or sell.`

func BuildSystemPrompt(sentimentContext string) string {
	var sb strings.Builder
	sb.WriteString(advisorPhilosophy)
	sb.WriteString("\n\n--- SENTIMENT DATA (as of ")
	sb.WriteString(time.Now().UTC().Format(time.RFC822))
	sb.WriteString(") ---\n")
	sb.WriteString(sentimentContext)
	return sb.String()
}

// FormatSentimentContext renders window summaries and the latest live tick,
// the latter restricted to coins.
func FormatSentimentContext(summaries []domain.Summary, latest *domain.SentimentPoint, coins []string) string {
	var sb strings.Builder

	if len(summaries) > 0 {
		sb.WriteString("\nRecent window:\n")
		for _, s := range summaries {
			if s.Points == 0 {
				sb.WriteString(fmt.Sprintf("  %s: no data\n", s.Coin))
				continue
			}
			sb.WriteString(fmt.Sprintf("  %s: mean %+.2f (min %+.2f, max %+.2f, latest %+.2f, %d points)\n",
				s.Coin, s.Mean, s.Min, s.Max, s.Latest, s.Points))
		}
	}

	if latest != nil && len(latest.Sentiment) > 0 {
		sb.WriteString(fmt.Sprintf("\nLive tick at %s:\n", latest.Time.UTC().Format(time.RFC3339)))
		for _, coin := range coins {
			v, ok := latest.Score(coin)
			if !ok {
				continue
			}
			sb.WriteString(fmt.Sprintf("  %s: %+.2f\n", coin, v))
		}
	}

	if sb.Len() == 0 {
		return "No sentiment data currently available."
	}
	return sb.String()
}

// BuildExplainPrompt lists up to maxExplainRows samples of coin's series.
func BuildExplainPrompt(coin string, start, end time.Time, points []domain.SentimentPoint) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Here are %d sentiment samples for %s between %s and %s:\n\n",
		len(points), coin, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339)))

	for i, p := range points {
		if i == maxExplainRows {
			sb.WriteString("\n... and more samples ...\n")
			break
		}
		v, ok := p.Score(coin)
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("- %s: %+.2f", p.Time.UTC().Format("15:04"), v))
		if title := p.Title[coin]; title != "" {
			sb.WriteString(" (")
			sb.WriteString(title)
			sb.WriteString(")")
		}
		sb.WriteString("\n")
	}

	sum := domain.Summarize(coin, points)
	sb.WriteString(fmt.Sprintf("\nAverage %+.2f. Based on these, explain why the overall sentiment was positive or negative.", sum.Mean))
	return sb.String()
}
