package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cryptopulse/internal/domain"
	"cryptopulse/internal/repository"
	"cryptopulse/internal/service"
)

type stubVerifier struct {
	err error
}

func (s stubVerifier) Verify(ctx context.Context, idToken string) (*domain.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Identity{Subject: "google-123", Name: "Alice", Email: "alice@example.com", Picture: "https://example.com/a.png", IDToken: idToken}, nil
}

func newAuthService(verifyErr error) *service.AuthService {
	return service.NewAuthService(testTracer, stubVerifier{err: verifyErr}, repository.NewMemoryUserStore(), "secret", time.Hour)
}

type authResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    domain.PublicUser `json:"user"`
	Error   string            `json:"error"`
}

func TestGoogleSignInThenProfile(t *testing.T) {
	r := newRouter(New(testTracer, nil, newAuthService(nil)))

	w := postJSON(r, "/api/auth/google", `{"idToken":"google-id-token"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var signIn authResponse
	if err := json.Unmarshal(w.Body.Bytes(), &signIn); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if !signIn.Success || signIn.Token == "" || signIn.User.Email != "alice@example.com" {
		t.Fatalf("unexpected sign-in response: %+v", signIn)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	req.Header.Set("Authorization", "Bearer "+signIn.Token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var profile authResponse
	if err := json.Unmarshal(w.Body.Bytes(), &profile); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if !profile.Success || profile.User.Name != "Alice" {
		t.Fatalf("unexpected profile response: %+v", profile)
	}
}

func TestGoogleSignInErrors(t *testing.T) {
	r := newRouter(New(testTracer, nil, newAuthService(nil)))
	if w := postJSON(r, "/api/auth/google", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing token, got %d", w.Code)
	}

	r = newRouter(New(testTracer, nil, newAuthService(errors.New("bad audience"))))
	if w := postJSON(r, "/api/auth/google", `{"idToken":"forged"}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for rejected token, got %d", w.Code)
	}
}

func TestGoogleSignInRejectsMalformedBody(t *testing.T) {
	r := newRouter(New(testTracer, nil, newAuthService(nil)))

	for _, body := range []string{`{"idToken":`, `not json`, `{"idToken": 42}`} {
		w := postJSON(r, "/api/auth/google", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, w.Code)
		}
		var resp authResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("parse error: %v", err)
		}
		if resp.Success || resp.Error != "invalid request body" {
			t.Fatalf("body %q: unexpected response %+v", body, resp)
		}
	}
}

func TestGetProfileUnauthorized(t *testing.T) {
	r := newRouter(New(testTracer, nil, newAuthService(nil)))

	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer not-a-jwt"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, w.Code)
		}
	}
}

func TestAuthRateLimit(t *testing.T) {
	h := New(testTracer, nil, newAuthService(nil))
	h.SetAuthRateLimit(2)
	r := newRouter(h)

	for i := 0; i < 2; i++ {
		if w := postJSON(r, "/api/auth/google", `{}`); w.Code != http.StatusBadRequest {
			t.Fatalf("request %d: expected 400, got %d", i, w.Code)
		}
	}
	if w := postJSON(r, "/api/auth/google", `{}`); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w := postJSON(r, "/api/sentiment", `{`); w.Code == http.StatusTooManyRequests {
		t.Fatal("rate limit should only apply to auth routes")
	}
}
