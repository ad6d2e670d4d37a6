package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cryptopulse/internal/config"
	"cryptopulse/internal/mockdata"
	"cryptopulse/internal/service"
	"cryptopulse/pkg/tracing"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverVersion = "1.0.0"

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	initTracerFunc = tracing.InitTracer
	runServerFunc  = func(ctx context.Context, s *mcp.Server) error {
		return s.Run(ctx, &mcp.StdioTransport{})
	}
)

// stdout carries the protocol, so everything else logs to stderr.
func main() {
	log.SetOutput(os.Stderr)
	loadEnvFunc()
	cfg := loadConfigFunc()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, tracer, err := initTracerFunc(ctx, tracing.DefaultServiceName+"-mcp")
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	sentimentService := service.NewSentimentService(
		tracer,
		mockdata.New(mockdata.WithTitles()),
		nil,
		time.Duration(cfg.MaxRangeMinutes)*time.Minute,
		time.Duration(cfg.SampleIntervalMinutes)*time.Minute,
		0,
	)

	if err := runServerFunc(ctx, newServer(sentimentService)); err != nil {
		log.Fatalf("mcp server: %v", err)
	}
}

func newServer(s sentimentSource) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "cryptopulse", Version: serverVersion}, nil)
	t := &tools{sentiment: s, now: time.Now}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_coins",
		Description: "List the tracked coins with their symbols and chart colors.",
	}, t.listCoins)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "sentiment_history",
		Description: "Sentiment series for the given coins over the last N minutes. Scores lie in [-1, 1].",
	}, t.sentimentHistory)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "sentiment_summary",
		Description: "Mean, min, max and latest sentiment of one coin over the last N minutes.",
	}, t.sentimentSummary)
	return server
}
