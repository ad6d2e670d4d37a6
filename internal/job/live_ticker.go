package job

import (
	"context"
	"log"
	"time"

	"cryptopulse/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type LivePointSource interface {
	NextLive(ctx context.Context, at time.Time) domain.SentimentPoint
}

type Broadcaster interface {
	Broadcast(p domain.SentimentPoint)
}

// AlertChecker evaluates threshold alerts against a fresh point.
type AlertChecker interface {
	Check(ctx context.Context, p domain.SentimentPoint) error
}

// LiveTicker generates one point for the whole coin universe per tick and
// hands it to the feed hub.
type LiveTicker struct {
	tracer   trace.Tracer
	source   LivePointSource
	sink     Broadcaster
	alerts   AlertChecker
	interval time.Duration
	now      func() time.Time
}

func NewLiveTicker(tracer trace.Tracer, source LivePointSource, sink Broadcaster, tickSecs int) *LiveTicker {
	if tickSecs <= 0 {
		tickSecs = 10
	}
	return &LiveTicker{
		tracer:   tracer,
		source:   source,
		sink:     sink,
		interval: time.Duration(tickSecs) * time.Second,
		now:      time.Now,
	}
}

// SetAlerts makes every tick check a after broadcasting.
func (t *LiveTicker) SetAlerts(a AlertChecker) {
	t.alerts = a
}

// Start blocks until ctx is cancelled.
func (t *LiveTicker) Start(ctx context.Context) {
	log.Printf("Live ticker starting (every %s)...", t.interval)
	pollLoop(ctx, "live-ticker", t.interval, t.tick)
	log.Println("Live ticker stopped")
}

func (t *LiveTicker) tick(ctx context.Context) error {
	ctx, span := t.tracer.Start(ctx, "live-ticker.tick")
	defer span.End()

	p := t.source.NextLive(ctx, t.now().UTC().Truncate(time.Second))
	t.sink.Broadcast(p)
	if t.alerts != nil {
		if err := t.alerts.Check(ctx, p); err != nil {
			span.RecordError(err)
			return err
		}
	}
	return nil
}

func pollLoop(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		log.Printf("poller %s initial run error: %v", name, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				log.Printf("poller %s error: %v", name, err)
			}
		}
	}
}
