package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cryptopulse/internal/domain"
)

var ErrUnauthorized = errors.New("backend rejected credentials")

// Backend exchanges identities for bearer tokens and resolves them again.
type Backend interface {
	ExchangeGoogleToken(ctx context.Context, idToken string) (string, domain.PublicUser, error)
	Profile(ctx context.Context, token string) (domain.PublicUser, error)
}

// BackendClient talks to the CryptoPulse API.
type BackendClient struct {
	client  *http.Client
	baseURL string
}

func NewBackendClient(baseURL string) *BackendClient {
	return &BackendClient{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type authResponse struct {
	Success bool              `json:"success"`
	Token   string            `json:"token"`
	User    domain.PublicUser `json:"user"`
	Error   string            `json:"error"`
}

func (b *BackendClient) ExchangeGoogleToken(ctx context.Context, idToken string) (string, domain.PublicUser, error) {
	body, err := json.Marshal(map[string]string{"idToken": idToken})
	if err != nil {
		return "", domain.PublicUser{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/auth/google", bytes.NewReader(body))
	if err != nil {
		return "", domain.PublicUser{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	out, err := b.do(req)
	if err != nil {
		return "", domain.PublicUser{}, err
	}
	if out.Token == "" {
		return "", domain.PublicUser{}, errors.New("backend returned no token")
	}
	return out.Token, out.User, nil
}

func (b *BackendClient) Profile(ctx context.Context, token string) (domain.PublicUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/api/users/profile", nil)
	if err != nil {
		return domain.PublicUser{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	out, err := b.do(req)
	if err != nil {
		return domain.PublicUser{}, err
	}
	return out.User, nil
}

func (b *BackendClient) do(req *http.Request) (*authResponse, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth backend: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, strings.TrimSpace(string(raw)))
	case resp.StatusCode != http.StatusOK:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("auth backend error %d: %s", resp.StatusCode, string(raw))
	}

	var out authResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, out.Error)
	}
	return &out, nil
}
