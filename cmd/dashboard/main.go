package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"cryptopulse/internal/auth"
	"cryptopulse/internal/config"
	"cryptopulse/internal/tui"
	"cryptopulse/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
)

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	initTracerFunc = tracing.InitTracer
	runProgramFunc = func(ctx context.Context, m tea.Model) error {
		_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
		return err
	}
)

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()

	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	source := fs.String("source", cfg.DashboardSource, "historical data source: mock or api")
	fs.Parse(os.Args[1:])
	switch *source {
	case config.SourceMock, config.SourceAPI:
		cfg.DashboardSource = *source
	default:
		log.Fatalf("unknown -source %q (want %s or %s)", *source, config.SourceMock, config.SourceAPI)
	}

	// The alt screen owns the terminal; keep log output off it.
	if f, err := tea.LogToFile(filepath.Join(os.TempDir(), "cryptopulse-dashboard.log"), "dashboard"); err == nil {
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	tp, tracer, err := initTracerFunc(ctx, tracing.DefaultServiceName+"-dashboard")
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	svc := tui.ServicesFromConfig(cfg, tracer, auth.NewFileTokenStore(cfg.TokenFile))
	svc.Context = ctx
	model := tui.NewAppModel(svc)

	err = runProgramFunc(ctx, model)
	model.Close()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		log.Printf("dashboard: %v", err)
	}
}
