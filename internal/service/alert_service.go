package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"cryptopulse/internal/domain"
	"cryptopulse/internal/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const maxAlertsPerUser = 20

var (
	ErrInvalidAlert  = errors.New("invalid alert")
	ErrTooManyAlerts = errors.New("too many alerts")
)

type AlertStore interface {
	Create(ctx context.Context, a domain.AlertSubscription) error
	ListByUser(ctx context.Context, userID string) ([]domain.AlertSubscription, error)
	ListAll(ctx context.Context) ([]domain.AlertSubscription, error)
	Delete(ctx context.Context, userID, id string) error
}

// AlertNotifier delivers a fired alert to a Telegram chat.
type AlertNotifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// AlertService manages threshold subscriptions and checks them against each
// live point. An alert fires once when its condition becomes true and is
// re-armed when the score moves back across the threshold.
type AlertService struct {
	tracer trace.Tracer
	store  AlertStore
	now    func() time.Time

	mu       sync.Mutex
	notifier AlertNotifier
	fired    map[string]bool
}

func NewAlertService(tracer trace.Tracer, store AlertStore) *AlertService {
	return &AlertService{
		tracer: tracer,
		store:  store,
		now:    time.Now,
		fired:  make(map[string]bool),
	}
}

func (s *AlertService) SetNotifier(n AlertNotifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

// Create validates a, assigns its ID and stores it for userID.
func (s *AlertService) Create(ctx context.Context, userID string, a domain.AlertSubscription) (*domain.AlertSubscription, error) {
	ctx, span := s.tracer.Start(ctx, "alert-service.create")
	defer span.End()

	coin, ok := domain.LookupCoin(a.Coin)
	if !ok {
		return nil, fmt.Errorf("%w: %v %q", ErrInvalidAlert, domain.ErrUnknownCoin, a.Coin)
	}
	if math.IsNaN(a.Threshold) || a.Threshold < -1 || a.Threshold > 1 {
		return nil, fmt.Errorf("%w: threshold must be between -1 and 1", ErrInvalidAlert)
	}
	switch domain.AlertDirection(strings.ToLower(string(a.Direction))) {
	case "", domain.AlertAbove:
		a.Direction = domain.AlertAbove
	case domain.AlertBelow:
		a.Direction = domain.AlertBelow
	default:
		return nil, fmt.Errorf("%w: direction must be above or below", ErrInvalidAlert)
	}

	existing, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(existing) >= maxAlertsPerUser {
		return nil, ErrTooManyAlerts
	}

	a.ID = uuid.NewString()
	a.UserID = userID
	a.Coin = coin.Name
	a.Email = strings.TrimSpace(a.Email)
	a.CreatedAt = s.now().UTC()
	if err := s.store.Create(ctx, a); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("alert.id", a.ID), attribute.String("alert.coin", a.Coin))
	log.Printf("alert %s created for user=%s coin=%s %s %+.2f", a.ID, userID, a.Coin, a.Direction, a.Threshold)
	return &a, nil
}

func (s *AlertService) List(ctx context.Context, userID string) ([]domain.AlertSubscription, error) {
	ctx, span := s.tracer.Start(ctx, "alert-service.list")
	defer span.End()

	alerts, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = []domain.AlertSubscription{}
	}
	return alerts, nil
}

func (s *AlertService) Delete(ctx context.Context, userID, id string) error {
	ctx, span := s.tracer.Start(ctx, "alert-service.delete")
	defer span.End()

	if err := s.store.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.fired, id)
	s.mu.Unlock()
	return nil
}

// Check evaluates every subscription against p and delivers the ones that
// just crossed their threshold.
func (s *AlertService) Check(ctx context.Context, p domain.SentimentPoint) error {
	ctx, span := s.tracer.Start(ctx, "alert-service.check")
	defer span.End()

	alerts, err := s.store.ListAll(ctx)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("list alerts: %w", err)
	}

	s.mu.Lock()
	notifier := s.notifier
	var due []domain.AlertSubscription
	fired := make(map[string]bool, len(s.fired))
	for _, a := range alerts {
		score, ok := p.Score(a.Coin)
		if !ok {
			if s.fired[a.ID] {
				fired[a.ID] = true
			}
			continue
		}
		if !a.Matches(score) {
			continue
		}
		if !s.fired[a.ID] {
			due = append(due, a)
		}
		fired[a.ID] = true
	}
	s.fired = fired
	s.mu.Unlock()

	span.SetAttributes(attribute.Int("alerts.checked", len(alerts)), attribute.Int("alerts.due", len(due)))
	for _, a := range due {
		s.deliver(ctx, notifier, a, p)
	}
	return nil
}

func (s *AlertService) deliver(ctx context.Context, n AlertNotifier, a domain.AlertSubscription, p domain.SentimentPoint) {
	text := alertText(a, p)
	if a.ChatID == 0 || n == nil {
		log.Printf("alert %s fired for user=%s: %s", a.ID, a.UserID, text)
		metrics.AlertFired("logged")
		return
	}
	if err := n.Notify(ctx, a.ChatID, text); err != nil {
		log.Printf("alert %s delivery to chat %d failed: %v", a.ID, a.ChatID, err)
		metrics.AlertFired("failed")
		return
	}
	metrics.AlertFired("telegram")
}

func alertText(a domain.AlertSubscription, p domain.SentimentPoint) string {
	score, _ := p.Score(a.Coin)
	msg := fmt.Sprintf("%s sentiment is %+.2f at %s, %s your threshold of %+.2f.",
		a.Coin, score, p.Time.UTC().Format(time.RFC3339), a.Direction, a.Threshold)
	if title := p.Title[a.Coin]; title != "" {
		msg += "\n" + title
	}
	return msg
}
