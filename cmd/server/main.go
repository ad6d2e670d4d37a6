package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cryptopulse/internal/advisor"
	"cryptopulse/internal/bot"
	"cryptopulse/internal/cache"
	"cryptopulse/internal/config"
	"cryptopulse/internal/db"
	"cryptopulse/internal/feed"
	"cryptopulse/internal/handler"
	"cryptopulse/internal/job"
	"cryptopulse/internal/metrics"
	"cryptopulse/internal/mockdata"
	"cryptopulse/internal/provider"
	"cryptopulse/internal/repository"
	"cryptopulse/internal/service"
	"cryptopulse/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "cryptopulse/docs"
)

var (
	loadEnvFunc           = godotenv.Load
	loadConfigFunc        = config.Load
	initPostgresFunc      = db.InitPostgres
	initRedisFunc         = cache.InitRedis
	initTracerFunc        = tracing.InitTracer
	runMigrationsFunc     = runMigrations
	newGoogleVerifierFunc = func(tracer trace.Tracer, clientID string) service.IdentityVerifier {
		return provider.NewGoogleTokenVerifier(tracer, clientID)
	}
	newOpenAIClientFunc    = advisor.NewOpenAIClient
	startTickerFunc        = func(t *job.LiveTicker, ctx context.Context) { go t.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           CryptoPulse API
// @version         1.0
// @description     Crypto sentiment history, live feed and sign-in.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, tracing.DefaultServiceName)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	if err := initPostgresFunc(ctx, cfg.DatabaseURL); err != nil {
		log.Printf("Postgres unavailable: %v", err)
	}
	defer db.Close()
	if db.Pool != nil {
		if err := runMigrationsFunc(ctx); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	if err := initRedisFunc(ctx, cfg.RedisURL); err != nil {
		log.Printf("Redis unavailable, sentiment caching disabled: %v", err)
	}
	defer cache.Close()

	users, conversations, alertStore := selectStores(tracer)

	var sentimentCache service.RedisClient
	if cache.Client != nil {
		sentimentCache = cache.Client
	}
	sentimentService := service.NewSentimentService(
		tracer,
		mockdata.New(mockdata.WithTitles()),
		sentimentCache,
		time.Duration(cfg.MaxRangeMinutes)*time.Minute,
		time.Duration(cfg.SampleIntervalMinutes)*time.Minute,
		time.Duration(cfg.SentimentCacheSecs)*time.Second,
	)

	alertService := service.NewAlertService(tracer, alertStore)

	hub := feed.NewHub()
	defer hub.Close()
	ticker := job.NewLiveTicker(tracer, sentimentService, hub, cfg.LiveTickSecs)
	ticker.SetAlerts(alertService)
	startTickerFunc(ticker, ctx)

	authService := service.NewAuthService(
		tracer,
		newGoogleVerifierFunc(tracer, cfg.GoogleClientID),
		users,
		cfg.JWTSecret,
		time.Duration(cfg.TokenTTLHours)*time.Hour,
	)

	var advisorService *advisor.AdvisorService
	if cfg.OpenAIAPIKey != "" {
		advisorService = advisor.NewAdvisorService(
			tracer,
			newOpenAIClientFunc(cfg.OpenAIAPIKey),
			sentimentService,
			conversations,
			cfg.OpenAIModel,
			20,
		)
	}

	var asker bot.Asker
	if advisorService != nil {
		asker = advisorService
	}
	if notifier := startTelegramBotFunc(cfg.TelegramBotToken, sentimentService, asker); notifier != nil {
		alertService.SetNotifier(notifier)
	}

	h := handler.New(tracer, sentimentService, authService)
	h.SetLiveFeed(hub)
	h.SetAlerts(alertService)
	h.SetAuthRateLimit(cfg.AuthRateLimitPerMin)
	if advisorService != nil {
		h.SetExplainer(advisorService)
	}

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.DefaultServiceName))
	r.Use(metrics.Middleware())

	h.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

func runMigrations(ctx context.Context) error {
	m, err := db.NewMigrator(db.Pool, db.MigrationsFS)
	if err != nil {
		return err
	}
	applied, err := m.Up(ctx)
	if err != nil {
		return err
	}
	log.Printf("Applied %d migration(s)", applied)
	return nil
}

// selectStores prefers Postgres, then Redis, then process memory.
func selectStores(tracer trace.Tracer) (service.UserStore, advisor.ConversationStore, service.AlertStore) {
	switch {
	case db.Pool != nil:
		return repository.NewUserRepository(db.Pool, tracer),
			repository.NewConversationRepository(db.Pool, tracer),
			repository.NewAlertRepository(db.Pool, tracer)
	case cache.Client != nil:
		log.Println("Storing users and alerts in Redis")
		return repository.NewRedisUserStore(cache.Client, tracer),
			repository.NewMemoryConversationStore(200),
			repository.NewRedisAlertStore(cache.Client, tracer)
	default:
		log.Println("Storing users and alerts in memory")
		return repository.NewMemoryUserStore(), repository.NewMemoryConversationStore(200), repository.NewMemoryAlertStore()
	}
}
