// Package historical owns the time-range and coin-selection state of the
// historical chart and the series it last fetched.
package historical

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cryptopulse/internal/domain"
)

// DefaultMaxSpan is the widest range a submit accepts.
const DefaultMaxSpan = 180 * time.Minute

var (
	ErrRangeTooLarge = errors.New("time range too large")
	ErrInvalidRange  = errors.New("end time is before start time")
)

// Error codes carried by 400 responses of the sentiment endpoint.
const (
	CodeRangeTooLarge = "range_too_large"
	CodeInvalidRange  = "invalid_range"
	CodeUnknownCoin   = "unknown_coin"
)

// ErrorCode maps a validation error to its wire code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrRangeTooLarge):
		return CodeRangeTooLarge
	case errors.Is(err, ErrInvalidRange):
		return CodeInvalidRange
	case errors.Is(err, domain.ErrUnknownCoin):
		return CodeUnknownCoin
	}
	return ""
}

// DataSource produces the series for a range and coin set.
type DataSource interface {
	Fetch(ctx context.Context, r domain.TimeRange, coins []string) ([]domain.SentimentPoint, error)
}

// ValidationMessage renders a user-facing message for a validation error.
func ValidationMessage(err error, maxSpan time.Duration) string {
	switch {
	case errors.Is(err, ErrRangeTooLarge):
		return fmt.Sprintf("Please select a time range less than or equal to %s.", humanSpan(maxSpan))
	case errors.Is(err, ErrInvalidRange):
		return "End time must not be before start time."
	case errors.Is(err, domain.ErrUnknownCoin):
		return "Unknown coin in selection."
	}
	return "Failed to fetch sentiment data."
}

// IsValidation reports whether err aborts an operation without touching state.
func IsValidation(err error) bool {
	return errors.Is(err, ErrRangeTooLarge) || errors.Is(err, ErrInvalidRange) || errors.Is(err, domain.ErrUnknownCoin)
}

func humanSpan(d time.Duration) string {
	if d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return fmt.Sprintf("%d minutes", int(d/time.Minute))
}

type Controller struct {
	mu      sync.Mutex
	source  DataSource
	maxSpan time.Duration
	now     func() time.Time

	rng     domain.TimeRange
	coins   []string
	loading bool
	series  []domain.SentimentPoint
	seq     uint64
	applied uint64
}

type Option func(*Controller)

func WithMaxSpan(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.maxSpan = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController starts with the last 30 minutes and every coin selected.
func NewController(source DataSource, opts ...Option) *Controller {
	c := &Controller{
		source:  source,
		maxSpan: DefaultMaxSpan,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	end := c.now().Truncate(time.Minute)
	c.rng = domain.TimeRange{Start: end.Add(-30 * time.Minute), End: end}
	c.coins = append([]string(nil), domain.CoinNames...)
	return c
}

func (c *Controller) MaxSpan() time.Duration {
	return c.maxSpan
}

func (c *Controller) Range() domain.TimeRange {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng
}

func (c *Controller) Coins() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.coins...)
}

func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Series returns a copy of the displayed series.
func (c *Controller) Series() []domain.SentimentPoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.SentimentPoint, len(c.series))
	for i, p := range c.series {
		out[i] = p.Clone()
	}
	return out
}

// SetStart moves the start time. An end outside [start, start+maxSpan] is
// reset to start+maxSpan.
func (c *Controller) SetStart(start time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	maxEnd := start.Add(c.maxSpan)
	end := c.rng.End
	if end.IsZero() || end.Before(start) || end.After(maxEnd) {
		end = maxEnd
	}
	c.rng = domain.TimeRange{Start: start, End: end}
}

// SetEnd moves the end time; ranges wider than maxSpan or reversed are
// rejected and leave state unchanged.
func (c *Controller) SetEnd(end time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if end.Before(c.rng.Start) {
		return ErrInvalidRange
	}
	if end.Sub(c.rng.Start) > c.maxSpan {
		return fmt.Errorf("%w: %s exceeds %s", ErrRangeTooLarge, end.Sub(c.rng.Start), c.maxSpan)
	}
	c.rng.End = end
	return nil
}

// SetCoins replaces the selection. It never triggers a fetch.
func (c *Controller) SetCoins(coins []string) error {
	normalized, err := domain.NormalizeSelection(coins)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.coins = normalized
	c.mu.Unlock()
	return nil
}

// ToggleCoin adds or removes one coin from the selection.
func (c *Controller) ToggleCoin(coin string) error {
	info, ok := domain.LookupCoin(coin)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownCoin, coin)
	}
	current := c.Coins()
	next := make([]string, 0, len(current)+1)
	found := false
	for _, name := range current {
		if name == info.Name {
			found = true
			continue
		}
		next = append(next, name)
	}
	if !found {
		next = append(next, info.Name)
	}
	return c.SetCoins(next)
}

// Submit validates the current range, fetches and replaces the series. A
// result that resolves after a newer submit has been applied is discarded.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	rng := c.rng
	coins := append([]string(nil), c.coins...)
	if !rng.Valid() {
		c.mu.Unlock()
		return ErrInvalidRange
	}
	if rng.Span() > c.maxSpan {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s exceeds %s", ErrRangeTooLarge, rng.Span(), c.maxSpan)
	}
	c.seq++
	seq := c.seq
	c.loading = true
	c.mu.Unlock()

	points, err := c.source.Fetch(ctx, rng, coins)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq == c.seq {
		c.loading = false
	}
	if err != nil {
		return fmt.Errorf("fetch sentiment: %w", err)
	}
	if seq < c.applied {
		return nil
	}
	c.applied = seq
	c.series = points
	return nil
}
