package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"cryptopulse/internal/domain"
	"cryptopulse/internal/historical"
	"cryptopulse/internal/metrics"
	"cryptopulse/internal/mockdata"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const latestLiveKey = "sentiment:live:latest"

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// SentimentService backs the historical endpoint and the live ticker with
// generated data.
type SentimentService struct {
	tracer   trace.Tracer
	gen      *mockdata.Generator
	redis    RedisClient
	maxSpan  time.Duration
	interval time.Duration
	cacheTTL time.Duration
	now      func() time.Time

	mu     sync.RWMutex
	latest *domain.SentimentPoint
}

func NewSentimentService(
	tracer trace.Tracer,
	gen *mockdata.Generator,
	redisClient RedisClient,
	maxSpan time.Duration,
	interval time.Duration,
	cacheTTL time.Duration,
) *SentimentService {
	if maxSpan <= 0 {
		maxSpan = historical.DefaultMaxSpan
	}
	if interval <= 0 {
		interval = mockdata.DefaultInterval
	}
	return &SentimentService{
		tracer:   tracer,
		gen:      gen,
		redis:    redisClient,
		maxSpan:  maxSpan,
		interval: interval,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

func (s *SentimentService) MaxSpan() time.Duration { return s.maxSpan }

// History returns the series for [start, end]. An empty coin list means
// every coin. Identical requests within the cache TTL return the same
// series.
func (s *SentimentService) History(ctx context.Context, start, end time.Time, coins []string) ([]domain.SentimentPoint, error) {
	ctx, span := s.tracer.Start(ctx, "sentiment-service.history")
	defer span.End()

	r := domain.TimeRange{Start: start.UTC(), End: end.UTC()}
	if !r.Valid() {
		return nil, historical.ErrInvalidRange
	}
	if r.Span() > s.maxSpan {
		return nil, fmt.Errorf("%w: %s exceeds %s", historical.ErrRangeTooLarge, r.Span(), s.maxSpan)
	}
	selection, err := domain.NormalizeSelection(coins)
	if err != nil {
		return nil, err
	}
	if len(selection) == 0 {
		selection = append([]string(nil), domain.CoinNames...)
	}
	span.SetAttributes(
		attribute.String("range.start", r.Start.Format(time.RFC3339)),
		attribute.Int64("range.minutes", int64(r.Span()/time.Minute)),
		attribute.Int("coins", len(selection)),
	)

	key := historyKey(r, selection)
	if s.redis != nil {
		cached, err := s.getSeries(ctx, key)
		if err != nil {
			log.Printf("redis cache read error: %v", err)
		}
		if cached != nil {
			metrics.CacheHit()
			return cached, nil
		}
		metrics.CacheMiss()
	}

	points := s.gen.Generate(r.Start, r.End, s.interval, selection)

	if s.redis != nil && s.cacheTTL > 0 {
		if err := s.setSeries(ctx, key, points); err != nil {
			log.Printf("redis cache write error for %s: %v", key, err)
		}
	}
	return points, nil
}

// Summary covers the window ending now.
func (s *SentimentService) Summary(ctx context.Context, coin string, window time.Duration) (domain.Summary, error) {
	ctx, span := s.tracer.Start(ctx, "sentiment-service.summary")
	defer span.End()

	c, ok := domain.LookupCoin(coin)
	if !ok {
		return domain.Summary{}, fmt.Errorf("%w: %q", domain.ErrUnknownCoin, coin)
	}
	if window <= 0 || window > s.maxSpan {
		window = s.maxSpan
	}
	end := s.now().UTC().Truncate(time.Minute)
	points, err := s.History(ctx, end.Add(-window), end, []string{c.Name})
	if err != nil {
		return domain.Summary{}, err
	}
	return domain.Summarize(c.Name, points), nil
}

// NextLive generates one point for every coin and records it as the latest
// live tick.
func (s *SentimentService) NextLive(ctx context.Context, at time.Time) domain.SentimentPoint {
	ctx, span := s.tracer.Start(ctx, "sentiment-service.next-live")
	defer span.End()

	p := s.gen.Point(at.UTC(), domain.CoinNames)

	s.mu.Lock()
	latest := p.Clone()
	s.latest = &latest
	s.mu.Unlock()

	if s.redis != nil {
		if data, err := json.Marshal(p); err == nil {
			if err := s.redis.Set(ctx, latestLiveKey, data, 0).Err(); err != nil {
				log.Printf("redis cache write error for %s: %v", latestLiveKey, err)
			}
		}
	}
	return p
}

// Latest returns the last live tick, falling back to the cached one when
// this process has not ticked yet.
func (s *SentimentService) Latest(ctx context.Context) (domain.SentimentPoint, bool) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	if latest != nil {
		return latest.Clone(), true
	}
	if s.redis == nil {
		return domain.SentimentPoint{}, false
	}
	cached, err := s.redis.Get(ctx, latestLiveKey).Bytes()
	if err != nil {
		return domain.SentimentPoint{}, false
	}
	var p domain.SentimentPoint
	if err := json.Unmarshal(cached, &p); err != nil {
		return domain.SentimentPoint{}, false
	}
	return p, true
}

func (s *SentimentService) getSeries(ctx context.Context, key string) ([]domain.SentimentPoint, error) {
	val, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var points []domain.SentimentPoint
	if err := json.Unmarshal(val, &points); err != nil {
		return nil, err
	}
	return points, nil
}

func (s *SentimentService) setSeries(ctx context.Context, key string, points []domain.SentimentPoint) error {
	data, err := json.Marshal(points)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, key, data, s.cacheTTL).Err()
}

func historyKey(r domain.TimeRange, coins []string) string {
	return "sentiment:history:" +
		strconv.FormatInt(r.Start.Unix(), 10) + ":" +
		strconv.FormatInt(r.End.Unix(), 10) + ":" +
		strings.Join(coins, ",")
}
