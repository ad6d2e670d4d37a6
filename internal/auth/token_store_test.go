package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	s := NewFileTokenStore(path)

	if tok, err := s.Load(); err != nil || tok != "" {
		t.Fatalf("expected empty token, got %q, %v", tok, err)
	}
	if err := s.Save("abc"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if tok, err := s.Load(); err != nil || tok != "abc" {
		t.Fatalf("expected abc, got %q, %v", tok, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %v", info.Mode().Perm())
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("clearing twice should be fine: %v", err)
	}
	if tok, _ := s.Load(); tok != "" {
		t.Fatalf("expected token gone, got %q", tok)
	}
}
