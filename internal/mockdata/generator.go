// Package mockdata produces pseudo-random sentiment series. Scores carry no
// temporal correlation: every value is an independent uniform draw.
package mockdata

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"cryptopulse/internal/domain"
)

// DefaultInterval is the sampling step used when none (or a non-positive one) is given.
const DefaultInterval = 5 * time.Minute

type Generator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	titles bool
	layout string
}

type Option func(*Generator)

// WithRand injects the random source, mainly for deterministic tests.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rng = r }
}

// WithTitles fills the Title mapping of every point with a rationale string.
func WithTitles() Option {
	return func(g *Generator) { g.titles = true }
}

// WithLabelLayout overrides the time layout used for point labels.
func WithLabelLayout(layout string) Option {
	return func(g *Generator) { g.layout = layout }
}

func New(opts ...Option) *Generator {
	g := &Generator{layout: domain.HistoricalLabelLayout}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return g
}

// Generate returns points from start to end (inclusive when aligned) spaced
// exactly interval apart, each with one score per coin.
func (g *Generator) Generate(start, end time.Time, interval time.Duration, coins []string) []domain.SentimentPoint {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if end.Before(start) {
		return []domain.SentimentPoint{}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	n := int(end.Sub(start)/interval) + 1
	points := make([]domain.SentimentPoint, 0, n)
	for t := start; !t.After(end); t = t.Add(interval) {
		points = append(points, g.point(t, coins))
	}
	return points
}

// Point returns a single sample at t.
func (g *Generator) Point(t time.Time, coins []string) domain.SentimentPoint {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.point(t, coins)
}

func (g *Generator) point(t time.Time, coins []string) domain.SentimentPoint {
	p := domain.SentimentPoint{
		Time:      t,
		Label:     t.Format(g.layout),
		Sentiment: make(map[string]float64, len(coins)),
	}
	if g.titles {
		p.Title = make(map[string]string, len(coins))
	}
	for _, coin := range coins {
		score := g.score()
		p.Sentiment[coin] = score
		if g.titles {
			p.Title[coin] = domain.DescribeScore(coin, score)
		}
	}
	return p
}

func (g *Generator) score() float64 {
	return math.Round((g.rng.Float64()*2-1)*100) / 100
}

// Source adapts a Generator to the historical data-source contract,
// standing in for a real backend fetch.
type Source struct {
	gen      *Generator
	interval time.Duration
}

func NewSource(gen *Generator, interval time.Duration) *Source {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Source{gen: gen, interval: interval}
}

func (s *Source) Fetch(ctx context.Context, r domain.TimeRange, coins []string) ([]domain.SentimentPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.gen.Generate(r.Start, r.End, s.interval, coins), nil
}
