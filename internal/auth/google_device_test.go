package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

func signedIDToken(t *testing.T, sub string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, idClaims{
		Name:             "Alice",
		Email:            "alice@example.com",
		Picture:          "https://example.com/a.png",
		RegisteredClaims: jwt.RegisteredClaims{Subject: sub, Issuer: "https://accounts.google.com"},
	}).SignedString([]byte("not-googles-key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestIdentityFromIDToken(t *testing.T) {
	id, err := IdentityFromIDToken(signedIDToken(t, "google-123"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.Subject != "google-123" || id.Email != "alice@example.com" || id.Name != "Alice" {
		t.Fatalf("unexpected identity: %+v", id)
	}

	if _, err := IdentityFromIDToken("garbage"); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := IdentityFromIDToken(signedIDToken(t, "")); err == nil {
		t.Fatal("expected error for missing subject")
	}
}

func TestGoogleDeviceProviderFlow(t *testing.T) {
	idToken := signedIDToken(t, "google-123")
	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/device/code", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"device_code":      "dev-code",
			"user_code":        "ABCD-EFGH",
			"verification_uri": "https://www.google.com/device",
			"expires_in":       60,
			"interval":         1,
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		if err := r.ParseForm(); err != nil || r.Form.Get("device_code") != "dev-code" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     idToken,
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewGoogleDeviceProvider("client-id", "client-secret")
	p.config.Endpoint = oauth2.Endpoint{
		DeviceAuthURL: srv.URL + "/device/code",
		TokenURL:      srv.URL + "/token",
		AuthStyle:     oauth2.AuthStyleInParams,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	code, err := p.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if code.UserCode != "ABCD-EFGH" || code.VerificationURL != "https://www.google.com/device" {
		t.Fatalf("unexpected device code: %+v", code)
	}

	id, err := p.Await(ctx, code)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if id.Subject != "google-123" || id.IDToken != idToken {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if n := polls.Load(); n != 1 {
		t.Fatalf("expected one token poll, got %d", n)
	}
}

func TestGoogleDeviceProviderRequiresClientID(t *testing.T) {
	if _, err := NewGoogleDeviceProvider("", "").Start(context.Background()); err == nil {
		t.Fatal("expected error without client id")
	}
	if _, err := NewGoogleDeviceProvider("id", "").Await(context.Background(), nil); err == nil {
		t.Fatal("expected error for unstarted flow")
	}
}
