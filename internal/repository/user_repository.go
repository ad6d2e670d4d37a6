package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"cryptopulse/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository stores profiles in the users table.
type UserRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewUserRepository(pool PgxPool, tracer trace.Tracer) *UserRepository {
	return &UserRepository{pool: pool, tracer: tracer}
}

// Upsert creates the profile on first sign-in and refreshes the identity
// fields and last_login afterwards.
func (r *UserRepository) Upsert(ctx context.Context, id domain.Identity, at time.Time) (*domain.UserProfile, error) {
	_, span := r.tracer.Start(ctx, "user-repo.upsert")
	defer span.End()

	u := &domain.UserProfile{}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (uid, name, email, picture, created_at, last_login)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 ON CONFLICT (uid) DO UPDATE SET
		     name = EXCLUDED.name,
		     email = EXCLUDED.email,
		     picture = EXCLUDED.picture,
		     last_login = EXCLUDED.last_login
		 RETURNING uid, name, email, picture, created_at, last_login`,
		id.Subject, id.Name, id.Email, id.Picture, at.UTC(),
	).Scan(&u.UID, &u.Name, &u.Email, &u.Picture, &u.CreatedAt, &u.LastLogin)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("upsert user %s: %w", id.Subject, err)
	}
	return u, nil
}

func (r *UserRepository) Get(ctx context.Context, uid string) (*domain.UserProfile, error) {
	_, span := r.tracer.Start(ctx, "user-repo.get")
	defer span.End()

	u := &domain.UserProfile{}
	err := r.pool.QueryRow(ctx,
		`SELECT uid, name, email, picture, created_at, last_login
		 FROM users
		 WHERE uid = $1`,
		uid,
	).Scan(&u.UID, &u.Name, &u.Email, &u.Picture, &u.CreatedAt, &u.LastLogin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisUserStore keeps one JSON document per user under user:<uid>.
type RedisUserStore struct {
	redis  RedisClient
	tracer trace.Tracer
}

func NewRedisUserStore(client RedisClient, tracer trace.Tracer) *RedisUserStore {
	return &RedisUserStore{redis: client, tracer: tracer}
}

func (s *RedisUserStore) Upsert(ctx context.Context, id domain.Identity, at time.Time) (*domain.UserProfile, error) {
	ctx, span := s.tracer.Start(ctx, "user-store.redis-upsert")
	defer span.End()

	u, err := s.Get(ctx, id.Subject)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		u = &domain.UserProfile{UID: id.Subject, CreatedAt: at.UTC()}
	case err != nil:
		return nil, err
	}
	u.Name, u.Email, u.Picture = id.Name, id.Email, id.Picture
	u.LastLogin = at.UTC()

	data, err := json.Marshal(u)
	if err != nil {
		return nil, err
	}
	if err := s.redis.Set(ctx, userKey(id.Subject), data, 0).Err(); err != nil {
		return nil, fmt.Errorf("store user %s: %w", id.Subject, err)
	}
	return u, nil
}

func (s *RedisUserStore) Get(ctx context.Context, uid string) (*domain.UserProfile, error) {
	_, span := s.tracer.Start(ctx, "user-store.redis-get")
	defer span.End()

	raw, err := s.redis.Get(ctx, userKey(uid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	var u domain.UserProfile
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", uid, err)
	}
	return &u, nil
}

func userKey(uid string) string { return "user:" + uid }

// MemoryUserStore is used when neither Postgres nor Redis is available.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]domain.UserProfile
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]domain.UserProfile)}
}

func (s *MemoryUserStore) Upsert(ctx context.Context, id domain.Identity, at time.Time) (*domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id.Subject]
	if !ok {
		u = domain.UserProfile{UID: id.Subject, CreatedAt: at.UTC()}
	}
	u.Name, u.Email, u.Picture = id.Name, id.Email, id.Picture
	u.LastLogin = at.UTC()
	s.users[id.Subject] = u
	return &u, nil
}

func (s *MemoryUserStore) Get(ctx context.Context, uid string) (*domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[uid]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}
