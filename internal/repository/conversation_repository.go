package repository

import (
	"context"
	"sync"
	"time"

	"cryptopulse/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type ConversationRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewConversationRepository(pool PgxPool, tracer trace.Tracer) *ConversationRepository {
	return &ConversationRepository{pool: pool, tracer: tracer}
}

func (r *ConversationRepository) AppendMessage(ctx context.Context, chatID int64, role, content string) error {
	_, span := r.tracer.Start(ctx, "conversation-repo.append-message")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO conversation_messages (chat_id, role, content) VALUES ($1, $2, $3)`,
		chatID, role, content,
	)
	return err
}

// RecentMessages returns up to limit messages for chatID, oldest first.
func (r *ConversationRepository) RecentMessages(ctx context.Context, chatID int64, limit int) ([]domain.ConversationMessage, error) {
	_, span := r.tracer.Start(ctx, "conversation-repo.recent-messages")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT role, content, created_at
		 FROM conversation_messages
		 WHERE chat_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		chatID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.ConversationMessage
	for rows.Next() {
		var m domain.ConversationMessage
		if err := rows.Scan(&m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.CreatedAt = m.CreatedAt.UTC()
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reverse(messages)
	return messages, nil
}

// MemoryConversationStore keeps the last max messages per chat.
type MemoryConversationStore struct {
	mu    sync.Mutex
	max   int
	chats map[int64][]domain.ConversationMessage
	now   func() time.Time
}

func NewMemoryConversationStore(max int) *MemoryConversationStore {
	if max <= 0 {
		max = 20
	}
	return &MemoryConversationStore{max: max, chats: make(map[int64][]domain.ConversationMessage), now: time.Now}
}

func (s *MemoryConversationStore) AppendMessage(ctx context.Context, chatID int64, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := append(s.chats[chatID], domain.ConversationMessage{Role: role, Content: content, CreatedAt: s.now().UTC()})
	if len(msgs) > s.max {
		msgs = append([]domain.ConversationMessage(nil), msgs[len(msgs)-s.max:]...)
	}
	s.chats[chatID] = msgs
	return nil
}

func (s *MemoryConversationStore) RecentMessages(ctx context.Context, chatID int64, limit int) ([]domain.ConversationMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.chats[chatID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]domain.ConversationMessage(nil), msgs...), nil
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
