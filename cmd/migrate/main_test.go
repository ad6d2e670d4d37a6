package main

import (
	"context"
	"testing"
)

type stubMigrator struct {
	upCalls   int
	downSteps int
	version   int64
}

func (s *stubMigrator) Up(ctx context.Context) (int, error) {
	s.upCalls++
	return 2, nil
}

func (s *stubMigrator) Down(ctx context.Context, steps int) (int, error) {
	s.downSteps = steps
	return steps, nil
}

func (s *stubMigrator) Version(ctx context.Context) (int64, string, error) {
	return s.version, "create_users", nil
}

func TestRunDispatchesCommands(t *testing.T) {
	m := &stubMigrator{}
	ctx := context.Background()

	if err := run(ctx, m, []string{"up"}); err != nil || m.upCalls != 1 {
		t.Fatalf("up: err=%v calls=%d", err, m.upCalls)
	}
	if err := run(ctx, m, []string{"down"}); err != nil || m.downSteps != 1 {
		t.Fatalf("down default: err=%v steps=%d", err, m.downSteps)
	}
	if err := run(ctx, m, []string{"down", "3"}); err != nil || m.downSteps != 3 {
		t.Fatalf("down 3: err=%v steps=%d", err, m.downSteps)
	}
	if err := run(ctx, m, []string{"version"}); err != nil {
		t.Fatalf("version: %v", err)
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	m := &stubMigrator{}
	if err := run(context.Background(), m, []string{"sideways"}); err == nil {
		t.Fatal("expected error for unknown command")
	}
	if err := run(context.Background(), m, []string{"down", "-1"}); err == nil {
		t.Fatal("expected error for negative steps")
	}
}
