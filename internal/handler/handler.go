package handler

import (
	"context"
	"net/http"
	"time"

	"cryptopulse/internal/domain"
	"cryptopulse/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// SentimentAPI serves historical series.
type SentimentAPI interface {
	History(ctx context.Context, start, end time.Time, coins []string) ([]domain.SentimentPoint, error)
}

// AuthAPI signs users in and resolves bearer tokens.
type AuthAPI interface {
	SignInWithGoogle(ctx context.Context, idToken string) (*service.AuthResult, error)
	Profile(ctx context.Context, token string) (*domain.UserProfile, error)
}

// Explainer produces a natural-language account of a coin's sentiment.
type Explainer interface {
	Explain(ctx context.Context, coin string, start, end time.Time) (string, error)
}

// AlertAPI manages per-user threshold alerts.
type AlertAPI interface {
	Create(ctx context.Context, userID string, a domain.AlertSubscription) (*domain.AlertSubscription, error)
	List(ctx context.Context, userID string) ([]domain.AlertSubscription, error)
	Delete(ctx context.Context, userID, id string) error
}

// LiveFeed upgrades a request to the live sentiment WebSocket.
type LiveFeed interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

type Handler struct {
	tracer      trace.Tracer
	sentiment   SentimentAPI
	auth        AuthAPI
	explainer   Explainer
	alerts      AlertAPI
	feed        LiveFeed
	authLimiter *RateLimiter
}

func New(tracer trace.Tracer, sentiment SentimentAPI, auth AuthAPI) *Handler {
	return &Handler{
		tracer:    tracer,
		sentiment: sentiment,
		auth:      auth,
	}
}

func (h *Handler) SetExplainer(e Explainer) {
	h.explainer = e
}

func (h *Handler) SetAlerts(a AlertAPI) {
	h.alerts = a
}

func (h *Handler) SetLiveFeed(f LiveFeed) {
	h.feed = f
}

// SetAuthRateLimit caps auth requests per client IP per minute.
func (h *Handler) SetAuthRateLimit(perMinute int) {
	if perMinute <= 0 {
		h.authLimiter = nil
		return
	}
	h.authLimiter = NewRateLimiter(perMinute, time.Minute)
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/coins", h.ListCoins)
	r.POST("/api/sentiment", h.GetSentiment)
	r.POST("/api/explain", h.Explain)

	auth := r.Group("/api")
	if h.authLimiter != nil {
		auth.Use(h.authLimiter.Middleware())
	}
	auth.POST("/auth/google", h.GoogleSignIn)
	auth.GET("/users/profile", h.GetProfile)
	if h.alerts != nil {
		auth.GET("/alerts", h.ListAlerts)
		auth.POST("/alerts", h.CreateAlert)
		auth.DELETE("/alerts/:id", h.DeleteAlert)
	}

	if h.feed != nil {
		r.GET("/ws", gin.WrapF(h.feed.ServeWS))
	}
}
