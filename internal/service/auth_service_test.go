package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"cryptopulse/internal/domain"
	"cryptopulse/internal/repository"
)

type stubVerifier struct {
	id  *domain.Identity
	err error
}

func (s stubVerifier) Verify(ctx context.Context, idToken string) (*domain.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	id := *s.id
	id.IDToken = idToken
	return &id, nil
}

var alice = &domain.Identity{Subject: "google-1", Name: "Alice", Email: "alice@example.com", Picture: "https://pic/a"}

func newTestAuthService(v IdentityVerifier, users UserStore) *AuthService {
	svc := NewAuthService(testTracer, v, users, "test-secret", time.Hour)
	svc.now = func() time.Time { return base }
	return svc
}

func TestSignInIssuesTokenAndStoresUser(t *testing.T) {
	users := repository.NewMemoryUserStore()
	svc := newTestAuthService(stubVerifier{id: alice}, users)

	res, err := svc.SignInWithGoogle(context.Background(), "google-id-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Token == "" || res.User.Name != "Alice" || !res.User.LastLogin.Equal(base) {
		t.Fatalf("unexpected result: %+v", res)
	}

	profile, err := svc.Profile(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("unexpected profile error: %v", err)
	}
	if profile.UID != "google-1" || profile.Email != "alice@example.com" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestSignInRejectsMissingToken(t *testing.T) {
	svc := newTestAuthService(stubVerifier{id: alice}, repository.NewMemoryUserStore())
	if _, err := svc.SignInWithGoogle(context.Background(), " "); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestSignInVerificationFailure(t *testing.T) {
	users := repository.NewMemoryUserStore()
	svc := newTestAuthService(stubVerifier{err: errors.New("bad signature")}, users)

	if _, err := svc.SignInWithGoogle(context.Background(), "tok"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := users.Get(context.Background(), alice.Subject); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatal("failed verification must not store a user")
	}
}

func TestProfileRejectsBadTokens(t *testing.T) {
	svc := newTestAuthService(stubVerifier{id: alice}, repository.NewMemoryUserStore())
	ctx := context.Background()

	if _, err := svc.Profile(ctx, ""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
	if _, err := svc.Profile(ctx, "not.a.jwt"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	other := newTestAuthService(stubVerifier{id: alice}, repository.NewMemoryUserStore())
	other.secret = []byte("different")
	token, _ := other.IssueToken(domain.UserProfile{UID: "x"})
	if _, err := svc.Profile(ctx, token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for foreign signature, got %v", err)
	}
}

func TestProfileRejectsExpiredToken(t *testing.T) {
	svc := newTestAuthService(stubVerifier{id: alice}, repository.NewMemoryUserStore())
	token, err := svc.IssueToken(domain.UserProfile{UID: "google-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.now = func() time.Time { return base.Add(2 * time.Hour) }
	if _, err := svc.Profile(context.Background(), token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
}

func TestProfileFallsBackToClaims(t *testing.T) {
	svc := newTestAuthService(stubVerifier{id: alice}, repository.NewMemoryUserStore())
	token, _ := svc.IssueToken(domain.UserProfile{UID: "gone", Name: "Ghost", Email: "g@example.com"})

	profile, err := svc.Profile(context.Background(), token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Name != "Ghost" || profile.Email != "g@example.com" {
		t.Fatalf("expected claims-based profile, got %+v", profile)
	}
}
