package db

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadMigrations(t *testing.T) {
	migrations, err := LoadMigrations(MigrationsFS)
	if err != nil {
		t.Fatalf("unexpected error loading embedded migrations: %v", err)
	}
	if len(migrations) < 2 {
		t.Fatalf("expected at least 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "create_users" {
		t.Fatalf("unexpected first migration: %+v", migrations[0])
	}
	if migrations[1].Version != 2 {
		t.Fatalf("expected second migration version 2, got %d", migrations[1].Version)
	}
	if !strings.Contains(migrations[0].UpSQL, "CREATE TABLE IF NOT EXISTS users") || migrations[0].DownSQL == "" {
		t.Fatal("expected users table migration with a down step")
	}
}

func TestLoadMigrationsRejectsBadInput(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"missing down": {
			"migrations/0001_a.up.sql": {Data: []byte("SELECT 1")},
		},
		"bad name": {
			"migrations/first.up.sql": {Data: []byte("SELECT 1")},
		},
		"empty file": {
			"migrations/0001_a.up.sql":   {Data: []byte("  ")},
			"migrations/0001_a.down.sql": {Data: []byte("SELECT 1")},
		},
		"conflicting names": {
			"migrations/0001_a.up.sql":   {Data: []byte("SELECT 1")},
			"migrations/0001_b.down.sql": {Data: []byte("SELECT 1")},
		},
		"no files": {},
	}
	for name, fsys := range cases {
		if _, err := LoadMigrations(fsys); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestDownRejectsNonPositiveSteps(t *testing.T) {
	m := &Migrator{}
	if _, err := m.Down(context.Background(), 0); err == nil {
		t.Fatal("expected error for zero steps")
	}
}

func TestInitPostgresDisabledWithoutDSN(t *testing.T) {
	Pool = nil
	if err := InitPostgres(context.Background(), "  "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Pool != nil {
		t.Fatal("expected nil pool without DATABASE_URL")
	}
}
