package tui

import (
	"path/filepath"
	"testing"
	"time"

	"cryptopulse/internal/auth"
	"cryptopulse/internal/config"
	"cryptopulse/internal/historical"
	"cryptopulse/internal/mockdata"

	"go.opentelemetry.io/otel/trace"
)

func TestServicesFromConfig(t *testing.T) {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	cfg := &config.Config{
		MaxRangeMinutes:       120,
		SampleIntervalMinutes: 5,
		LiveBufferCap:         35,
		FeedURL:               "ws://localhost:8080/ws",
		APIBaseURL:            "http://localhost:8080",
		DashboardSource:       config.SourceMock,
	}

	svc := ServicesFromConfig(cfg, tracer, nil)
	if _, ok := svc.Source.(*mockdata.Source); !ok {
		t.Fatalf("expected mock source, got %T", svc.Source)
	}
	if svc.MaxSpan != 2*time.Hour || svc.BufferCap != 35 || svc.Dial == nil {
		t.Fatalf("unexpected services: %+v", svc)
	}
	if svc.Auth != nil {
		t.Fatal("sign-in should be disabled without a Google client id")
	}

	cfg.DashboardSource = config.SourceAPI
	cfg.GoogleClientID = "client-id"
	svc = ServicesFromConfig(cfg, tracer, auth.NewFileTokenStore(filepath.Join(t.TempDir(), "token")))
	if _, ok := svc.Source.(*historical.APISource); !ok {
		t.Fatalf("expected api source, got %T", svc.Source)
	}
	if svc.Auth == nil {
		t.Fatal("expected auth widget when a client id is configured")
	}
}
