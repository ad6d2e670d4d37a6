package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"cryptopulse/internal/domain"

	"github.com/redis/go-redis/v9"
)

type fakeHash struct {
	fields map[string]string
}

func newFakeHash() *fakeHash {
	return &fakeHash{fields: make(map[string]string)}
}

func (f *fakeHash) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	for i := 0; i+1 < len(values); i += 2 {
		field := values[i].(string)
		switch v := values[i+1].(type) {
		case []byte:
			f.fields[field] = string(v)
		case string:
			f.fields[field] = v
		}
	}
	return redis.NewIntResult(int64(len(values)/2), nil)
}

func (f *fakeHash) HGet(ctx context.Context, key, field string) *redis.StringCmd {
	if v, ok := f.fields[field]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeHash) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	out := make(map[string]string, len(f.fields))
	for k, v := range f.fields {
		out[k] = v
	}
	return redis.NewMapStringStringResult(out, nil)
}

func (f *fakeHash) HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd {
	var n int64
	for _, field := range fields {
		if _, ok := f.fields[field]; ok {
			delete(f.fields, field)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

type alertStore interface {
	Create(ctx context.Context, a domain.AlertSubscription) error
	ListByUser(ctx context.Context, userID string) ([]domain.AlertSubscription, error)
	ListAll(ctx context.Context) ([]domain.AlertSubscription, error)
	Delete(ctx context.Context, userID, id string) error
}

func TestAlertStores(t *testing.T) {
	stores := map[string]alertStore{
		"redis":  NewRedisAlertStore(newFakeHash(), testTracer),
		"memory": NewMemoryAlertStore(),
	}
	at := time.Date(2025, 4, 21, 15, 0, 0, 0, time.UTC)

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			subs := []domain.AlertSubscription{
				{ID: "b", UserID: "alice", Coin: "Bitcoin", Threshold: 0.5, Direction: domain.AlertAbove, CreatedAt: at.Add(time.Minute)},
				{ID: "a", UserID: "alice", Coin: "Ethereum", Threshold: -0.2, Direction: domain.AlertBelow, ChatID: 42, CreatedAt: at},
				{ID: "c", UserID: "bob", Coin: "Solana", Threshold: 0.1, Direction: domain.AlertAbove, CreatedAt: at},
			}
			for _, s := range subs {
				if err := store.Create(ctx, s); err != nil {
					t.Fatalf("create %s: %v", s.ID, err)
				}
			}

			mine, err := store.ListByUser(ctx, "alice")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(mine) != 2 || mine[0].ID != "a" || mine[1].ID != "b" {
				t.Fatalf("expected alice's alerts oldest first, got %+v", mine)
			}
			if mine[0].ChatID != 42 || mine[0].Direction != domain.AlertBelow {
				t.Fatalf("fields not preserved: %+v", mine[0])
			}

			all, _ := store.ListAll(ctx)
			if len(all) != 3 {
				t.Fatalf("expected 3 alerts, got %d", len(all))
			}

			if err := store.Delete(ctx, "bob", "a"); !errors.Is(err, domain.ErrAlertNotFound) {
				t.Fatalf("deleting another user's alert: expected ErrAlertNotFound, got %v", err)
			}
			if err := store.Delete(ctx, "alice", "a"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := store.Delete(ctx, "alice", "a"); !errors.Is(err, domain.ErrAlertNotFound) {
				t.Fatalf("second delete: expected ErrAlertNotFound, got %v", err)
			}
			mine, _ = store.ListByUser(ctx, "alice")
			if len(mine) != 1 || mine[0].ID != "b" {
				t.Fatalf("unexpected alerts after delete: %+v", mine)
			}
		})
	}
}
