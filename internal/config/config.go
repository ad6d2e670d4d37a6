package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Historical data sources for the dashboard.
const (
	SourceMock = "mock"
	SourceAPI  = "api"
)

type Config struct {
	HTTPPort         int
	TelegramBotToken string
	DatabaseURL      string
	RedisURL         string

	MaxRangeMinutes       int
	SampleIntervalMinutes int
	SentimentCacheSecs    int
	LiveTickSecs          int
	LiveBufferCap         int

	FeedURL         string
	APIBaseURL      string
	TokenFile       string
	DashboardSource string

	GoogleClientID      string
	GoogleClientSecret  string
	JWTSecret           string
	TokenTTLHours       int
	AuthRateLimitPerMin int

	OpenAIAPIKey string
	OpenAIModel  string

	SSHHost    string
	SSHPort    int
	SSHHostKey string
}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		GoogleClientID:     strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID")),
		GoogleClientSecret: strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_SECRET")),
		JWTSecret:          os.Getenv("JWT_SECRET"),
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set, users will be stored in Redis")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.GoogleClientID == "" {
		log.Println("Warning: GOOGLE_CLIENT_ID not set, token audience will not be checked and sign-in is disabled in the dashboard")
	}
	if cfg.JWTSecret == "" {
		log.Println("Warning: JWT_SECRET not set, using an insecure development secret")
		cfg.JWTSecret = "cryptopulse-dev-secret"
	}

	cfg.HTTPPort = positiveInt("PORT", 8080)
	cfg.MaxRangeMinutes = positiveInt("MAX_RANGE_MINUTES", 180)
	cfg.SampleIntervalMinutes = positiveInt("SAMPLE_INTERVAL_MINUTES", 5)
	cfg.SentimentCacheSecs = positiveInt("SENTIMENT_CACHE_SECS", 300)
	cfg.LiveTickSecs = positiveInt("LIVE_TICK_SECS", 10)
	cfg.LiveBufferCap = positiveInt("LIVE_BUFFER_CAP", 35)
	cfg.TokenTTLHours = positiveInt("TOKEN_TTL_HOURS", 24)
	cfg.AuthRateLimitPerMin = positiveInt("AUTH_RATE_LIMIT_PER_MIN", 30)
	cfg.SSHPort = positiveInt("SSH_PORT", 23234)

	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("API_BASE_URL")), "/")
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "http://localhost:" + strconv.Itoa(cfg.HTTPPort)
	}

	cfg.FeedURL = strings.TrimSpace(os.Getenv("SOCKET_URL"))
	if cfg.FeedURL == "" {
		cfg.FeedURL = feedURLFor(cfg.APIBaseURL)
	}
	if !strings.HasPrefix(cfg.FeedURL, "ws://") && !strings.HasPrefix(cfg.FeedURL, "wss://") {
		log.Printf("Warning: unsupported SOCKET_URL=%q, deriving from API_BASE_URL", cfg.FeedURL)
		cfg.FeedURL = feedURLFor(cfg.APIBaseURL)
	}

	cfg.DashboardSource = strings.ToLower(strings.TrimSpace(os.Getenv("DASHBOARD_SOURCE")))
	switch cfg.DashboardSource {
	case SourceMock, SourceAPI:
	case "":
		cfg.DashboardSource = SourceMock
	default:
		log.Printf("Warning: unsupported DASHBOARD_SOURCE=%q, using %s", cfg.DashboardSource, SourceMock)
		cfg.DashboardSource = SourceMock
	}

	cfg.TokenFile = strings.TrimSpace(os.Getenv("TOKEN_FILE"))
	if cfg.TokenFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = os.TempDir()
		}
		cfg.TokenFile = filepath.Join(dir, "cryptopulse", "token")
	}

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, explanations will be disabled")
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	cfg.SSHHost = strings.TrimSpace(os.Getenv("SSH_HOST"))
	if cfg.SSHHost == "" {
		cfg.SSHHost = "0.0.0.0"
	}

	cfg.SSHHostKey = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKey == "" {
		cfg.SSHHostKey = ".ssh/cryptopulse_ed25519"
	}

	return cfg
}

func positiveInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func feedURLFor(apiBase string) string {
	switch {
	case strings.HasPrefix(apiBase, "https://"):
		return "wss://" + strings.TrimPrefix(apiBase, "https://") + "/ws"
	case strings.HasPrefix(apiBase, "http://"):
		return "ws://" + strings.TrimPrefix(apiBase, "http://") + "/ws"
	}
	return "ws://localhost:8080/ws"
}
