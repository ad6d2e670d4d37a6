package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newBackendServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/google", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			IDToken string `json:"idToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.IDToken != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"error":"Authentication failed"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"message":"ok","token":"bearer-1","user":{"name":"Alice","email":"alice@example.com","picture":"p"}}`))
	})
	mux.HandleFunc("/api/users/profile", func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer bearer-1":
			_, _ = w.Write([]byte(`{"success":true,"user":{"name":"Alice","email":"alice@example.com","picture":"p"}}`))
		case "Bearer broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestBackendClientExchange(t *testing.T) {
	b := NewBackendClient(newBackendServer(t).URL + "/")

	token, user, err := b.ExchangeGoogleToken(context.Background(), "good")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "bearer-1" || user.Email != "alice@example.com" {
		t.Fatalf("unexpected exchange result: %s %+v", token, user)
	}

	if _, _, err := b.ExchangeGoogleToken(context.Background(), "bad"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestBackendClientProfile(t *testing.T) {
	b := NewBackendClient(newBackendServer(t).URL)

	user, err := b.Profile(context.Background(), "bearer-1")
	if err != nil || user.Name != "Alice" {
		t.Fatalf("unexpected profile: %+v, %v", user, err)
	}
	if _, err := b.Profile(context.Background(), "expired"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := b.Profile(context.Background(), "broken"); err == nil || errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected non-auth error, got %v", err)
	}
}
