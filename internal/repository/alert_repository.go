package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"cryptopulse/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const alertColumns = `id, user_id, coin, threshold, direction, email, chat_id, created_at`

// AlertRepository stores subscriptions in the alert_subscriptions table.
type AlertRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewAlertRepository(pool PgxPool, tracer trace.Tracer) *AlertRepository {
	return &AlertRepository{pool: pool, tracer: tracer}
}

func (r *AlertRepository) Create(ctx context.Context, a domain.AlertSubscription) error {
	_, span := r.tracer.Start(ctx, "alert-repo.create")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO alert_subscriptions (`+alertColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.UserID, a.Coin, a.Threshold, string(a.Direction), a.Email, a.ChatID, a.CreatedAt.UTC(),
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("insert alert %s: %w", a.ID, err)
	}
	return nil
}

func (r *AlertRepository) ListByUser(ctx context.Context, userID string) ([]domain.AlertSubscription, error) {
	_, span := r.tracer.Start(ctx, "alert-repo.list-by-user")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT `+alertColumns+`
		 FROM alert_subscriptions
		 WHERE user_id = $1
		 ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return scanAlerts(rows)
}

func (r *AlertRepository) ListAll(ctx context.Context) ([]domain.AlertSubscription, error) {
	_, span := r.tracer.Start(ctx, "alert-repo.list-all")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT `+alertColumns+`
		 FROM alert_subscriptions
		 ORDER BY created_at, id`,
	)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return scanAlerts(rows)
}

// Delete removes the subscription only when it belongs to userID.
func (r *AlertRepository) Delete(ctx context.Context, userID, id string) error {
	_, span := r.tracer.Start(ctx, "alert-repo.delete")
	defer span.End()

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM alert_subscriptions WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete alert %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlertNotFound
	}
	return nil
}

func scanAlerts(rows pgx.Rows) ([]domain.AlertSubscription, error) {
	defer rows.Close()

	var out []domain.AlertSubscription
	for rows.Next() {
		var a domain.AlertSubscription
		var direction string
		if err := rows.Scan(&a.ID, &a.UserID, &a.Coin, &a.Threshold, &direction, &a.Email, &a.ChatID, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Direction = domain.AlertDirection(direction)
		out = append(out, a)
	}
	return out, rows.Err()
}

const alertsKey = "alert_subscriptions"

type RedisHashClient interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
}

// RedisAlertStore keeps every subscription as a JSON field of one hash.
type RedisAlertStore struct {
	redis  RedisHashClient
	tracer trace.Tracer
}

func NewRedisAlertStore(client RedisHashClient, tracer trace.Tracer) *RedisAlertStore {
	return &RedisAlertStore{redis: client, tracer: tracer}
}

func (s *RedisAlertStore) Create(ctx context.Context, a domain.AlertSubscription) error {
	ctx, span := s.tracer.Start(ctx, "alert-store.redis-create")
	defer span.End()

	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	if err := s.redis.HSet(ctx, alertsKey, a.ID, data).Err(); err != nil {
		return fmt.Errorf("store alert %s: %w", a.ID, err)
	}
	return nil
}

func (s *RedisAlertStore) ListByUser(ctx context.Context, userID string) ([]domain.AlertSubscription, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, a := range all {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *RedisAlertStore) ListAll(ctx context.Context) ([]domain.AlertSubscription, error) {
	ctx, span := s.tracer.Start(ctx, "alert-store.redis-list")
	defer span.End()

	raw, err := s.redis.HGetAll(ctx, alertsKey).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.AlertSubscription, 0, len(raw))
	for id, v := range raw {
		var a domain.AlertSubscription
		if err := json.Unmarshal([]byte(v), &a); err != nil {
			return nil, fmt.Errorf("decode alert %s: %w", id, err)
		}
		out = append(out, a)
	}
	sortAlerts(out)
	return out, nil
}

func (s *RedisAlertStore) Delete(ctx context.Context, userID, id string) error {
	ctx, span := s.tracer.Start(ctx, "alert-store.redis-delete")
	defer span.End()

	raw, err := s.redis.HGet(ctx, alertsKey, id).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ErrAlertNotFound
	}
	if err != nil {
		return err
	}
	var a domain.AlertSubscription
	if err := json.Unmarshal(raw, &a); err != nil {
		return fmt.Errorf("decode alert %s: %w", id, err)
	}
	if a.UserID != userID {
		return domain.ErrAlertNotFound
	}
	return s.redis.HDel(ctx, alertsKey, id).Err()
}

// MemoryAlertStore is used when neither Postgres nor Redis is available.
type MemoryAlertStore struct {
	mu     sync.RWMutex
	alerts map[string]domain.AlertSubscription
}

func NewMemoryAlertStore() *MemoryAlertStore {
	return &MemoryAlertStore{alerts: make(map[string]domain.AlertSubscription)}
}

func (s *MemoryAlertStore) Create(ctx context.Context, a domain.AlertSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts[a.ID] = a
	return nil
}

func (s *MemoryAlertStore) ListByUser(ctx context.Context, userID string) ([]domain.AlertSubscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AlertSubscription
	for _, a := range s.alerts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sortAlerts(out)
	return out, nil
}

func (s *MemoryAlertStore) ListAll(ctx context.Context) ([]domain.AlertSubscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AlertSubscription, 0, len(s.alerts))
	for _, a := range s.alerts {
		out = append(out, a)
	}
	sortAlerts(out)
	return out, nil
}

func (s *MemoryAlertStore) Delete(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok || a.UserID != userID {
		return domain.ErrAlertNotFound
	}
	delete(s.alerts, id)
	return nil
}

func sortAlerts(alerts []domain.AlertSubscription) {
	sort.Slice(alerts, func(i, j int) bool {
		if !alerts[i].CreatedAt.Equal(alerts[j].CreatedAt) {
			return alerts[i].CreatedAt.Before(alerts[j].CreatedAt)
		}
		return alerts[i].ID < alerts[j].ID
	})
}
