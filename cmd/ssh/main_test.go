package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"testing"
	"time"

	"cryptopulse/internal/config"
	"cryptopulse/internal/tui"

	"github.com/charmbracelet/ssh"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	gossh "golang.org/x/crypto/ssh"
)

func TestMainBootstrap(t *testing.T) {
	restore := stubSSHDeps()
	defer restore()

	var opts int
	newWishServerFunc = func(ops ...ssh.Option) (*ssh.Server, error) {
		opts = len(ops)
		return nil, nil
	}

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
	if opts != 4 {
		t.Fatalf("expected 4 server options, got %d", opts)
	}
}

func TestAcceptPublicKey(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	key, err := gossh.NewPublicKey(pub)
	if err != nil {
		t.Fatal(err)
	}
	if !acceptPublicKey(fakeContext{user: "alice"}, key) {
		t.Fatal("expected every key to be accepted")
	}
}

func TestSessionHandlerSizesModel(t *testing.T) {
	cfg := &config.Config{
		MaxRangeMinutes:       180,
		SampleIntervalMinutes: 5,
		LiveBufferCap:         35,
		FeedURL:               "ws://localhost:8080/ws",
		APIBaseURL:            "http://localhost:8080",
		DashboardSource:       config.SourceMock,
	}
	handler := sessionHandler(cfg, trace.NewNoopTracerProvider().Tracer("test"))

	model, opts := handler(fakeSession{ctx: fakeContext{user: "alice"}, width: 120, height: 40})
	if _, ok := model.(*tui.AppModel); !ok {
		t.Fatalf("expected dashboard model, got %T", model)
	}
	if len(opts) != 1 {
		t.Fatalf("expected alt screen option, got %d options", len(opts))
	}
}

func stubSSHDeps() func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitTracer := initTracerFunc
	origNewWishServer := newWishServerFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			SSHHost:    "127.0.0.1",
			SSHPort:    2222,
			SSHHostKey: ".ssh/test_key",
		}
	}
	initTracerFunc = func(ctx context.Context, name string) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newWishServerFunc = func(ops ...ssh.Option) (*ssh.Server, error) {
		return nil, nil
	}
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initTracerFunc = origInitTracer
		newWishServerFunc = origNewWishServer
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
	}
}

type fakeContext struct {
	ssh.Context
	user string
}

func (c fakeContext) User() string { return c.user }

func (c fakeContext) Deadline() (time.Time, bool) { return time.Time{}, false }
func (c fakeContext) Done() <-chan struct{}       { return nil }
func (c fakeContext) Err() error                  { return nil }
func (c fakeContext) Value(key any) any           { return nil }

type fakeSession struct {
	ssh.Session
	ctx           ssh.Context
	width, height int
}

func (s fakeSession) Context() ssh.Context { return s.ctx }

func (s fakeSession) Pty() (ssh.Pty, <-chan ssh.Window, bool) {
	return ssh.Pty{Window: ssh.Window{Width: s.width, Height: s.height}}, nil, true
}
