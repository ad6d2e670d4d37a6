package tui

import (
	"time"

	"cryptopulse/internal/auth"
	"cryptopulse/internal/config"
	"cryptopulse/internal/historical"
	"cryptopulse/internal/live"
	"cryptopulse/internal/mockdata"

	"go.opentelemetry.io/otel/trace"
)

// ServicesFromConfig builds the dashboard dependencies for one session. A
// nil store keeps sign-ins in memory only.
func ServicesFromConfig(cfg *config.Config, tracer trace.Tracer, store auth.TokenStore) Services {
	svc := Services{
		MaxSpan:   time.Duration(cfg.MaxRangeMinutes) * time.Minute,
		FeedURL:   cfg.FeedURL,
		Dial:      live.DialWebsocket,
		BufferCap: cfg.LiveBufferCap,
	}

	switch cfg.DashboardSource {
	case config.SourceAPI:
		svc.Source = historical.NewAPISource(tracer, cfg.APIBaseURL)
	default:
		interval := time.Duration(cfg.SampleIntervalMinutes) * time.Minute
		svc.Source = mockdata.NewSource(mockdata.New(mockdata.WithTitles()), interval)
	}

	if cfg.GoogleClientID != "" {
		svc.Auth = auth.NewWidget(
			auth.NewGoogleDeviceProvider(cfg.GoogleClientID, cfg.GoogleClientSecret),
			auth.NewBackendClient(cfg.APIBaseURL),
			store,
		)
	}
	return svc
}
