package main

import (
	"context"
	"time"

	"cryptopulse/internal/domain"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultWindowMinutes = 60

type sentimentSource interface {
	History(ctx context.Context, start, end time.Time, coins []string) ([]domain.SentimentPoint, error)
	Summary(ctx context.Context, coin string, window time.Duration) (domain.Summary, error)
}

type tools struct {
	sentiment sentimentSource
	now       func() time.Time
}

type listCoinsInput struct{}

type listCoinsOutput struct {
	Coins []domain.Coin `json:"coins"`
}

func (t *tools) listCoins(ctx context.Context, req *mcp.CallToolRequest, in listCoinsInput) (*mcp.CallToolResult, listCoinsOutput, error) {
	return nil, listCoinsOutput{Coins: domain.Coins}, nil
}

type historyInput struct {
	Coins   []string `json:"coins,omitempty" jsonschema:"coin names or symbols, empty for every coin"`
	Minutes int      `json:"minutes,omitempty" jsonschema:"window length in minutes ending now"`
}

// historyPoint carries the time as text so the output schema stays a plain
// string.
type historyPoint struct {
	Time      string             `json:"time"`
	Sentiment map[string]float64 `json:"sentiment"`
	Title     map[string]string  `json:"title,omitempty"`
}

type historyOutput struct {
	Start  string         `json:"start"`
	End    string         `json:"end"`
	Points []historyPoint `json:"points"`
}

func (t *tools) sentimentHistory(ctx context.Context, req *mcp.CallToolRequest, in historyInput) (*mcp.CallToolResult, historyOutput, error) {
	start, end := t.window(in.Minutes)
	points, err := t.sentiment.History(ctx, start, end, in.Coins)
	if err != nil {
		return nil, historyOutput{}, err
	}

	out := historyOutput{
		Start:  start.Format(time.RFC3339),
		End:    end.Format(time.RFC3339),
		Points: make([]historyPoint, 0, len(points)),
	}
	for _, p := range points {
		out.Points = append(out.Points, historyPoint{
			Time:      p.Time.UTC().Format(time.RFC3339),
			Sentiment: p.Sentiment,
			Title:     p.Title,
		})
	}
	return nil, out, nil
}

type summaryInput struct {
	Coin    string `json:"coin" jsonschema:"coin name or symbol"`
	Minutes int    `json:"minutes,omitempty" jsonschema:"window length in minutes ending now"`
}

type summaryOutput struct {
	Coin        string  `json:"coin"`
	Points      int     `json:"points"`
	Mean        float64 `json:"mean"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Latest      float64 `json:"latest"`
	Description string  `json:"description"`
}

func (t *tools) sentimentSummary(ctx context.Context, req *mcp.CallToolRequest, in summaryInput) (*mcp.CallToolResult, summaryOutput, error) {
	minutes := in.Minutes
	if minutes <= 0 {
		minutes = defaultWindowMinutes
	}
	sum, err := t.sentiment.Summary(ctx, in.Coin, time.Duration(minutes)*time.Minute)
	if err != nil {
		return nil, summaryOutput{}, err
	}
	return nil, summaryOutput{
		Coin:        sum.Coin,
		Points:      sum.Points,
		Mean:        sum.Mean,
		Min:         sum.Min,
		Max:         sum.Max,
		Latest:      sum.Latest,
		Description: domain.DescribeScore(sum.Coin, sum.Mean),
	}, nil
}

func (t *tools) window(minutes int) (time.Time, time.Time) {
	if minutes <= 0 {
		minutes = defaultWindowMinutes
	}
	end := t.now().UTC().Truncate(time.Minute)
	return end.Add(-time.Duration(minutes) * time.Minute), end
}
