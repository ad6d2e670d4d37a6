package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cryptopulse/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

var ErrInvalidIDToken = errors.New("invalid Google ID token")

var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

// GoogleTokenVerifier checks ID tokens against Google's tokeninfo endpoint.
type GoogleTokenVerifier struct {
	client   *http.Client
	baseURL  string
	clientID string
	tracer   trace.Tracer
	limiter  *callLimiter
	now      func() time.Time
}

// NewGoogleTokenVerifier builds a verifier. When clientID is empty the
// audience is not checked.
func NewGoogleTokenVerifier(tracer trace.Tracer, clientID string) *GoogleTokenVerifier {
	return &GoogleTokenVerifier{
		client:   &http.Client{Timeout: 10 * time.Second},
		baseURL:  googleTokenInfoURL,
		clientID: clientID,
		tracer:   tracer,
		limiter:  newCallLimiter(20, 50*time.Millisecond),
		now:      time.Now,
	}
}

type tokenInfo struct {
	Issuer        string `json:"iss"`
	Subject       string `json:"sub"`
	Audience      string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Expiry        string `json:"exp"`
}

func (v *GoogleTokenVerifier) Verify(ctx context.Context, idToken string) (*domain.Identity, error) {
	ctx, span := v.tracer.Start(ctx, "google.verify-id-token")
	defer span.End()

	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidIDToken)
	}
	if err := v.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := strings.TrimRight(v.baseURL, "/") + "?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("google tokeninfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		return nil, fmt.Errorf("%w: rejected by Google", ErrInvalidIDToken)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("google tokeninfo error %d: %s", resp.StatusCode, string(body))
	}

	var info tokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode tokeninfo response: %w", err)
	}
	if err := v.check(info); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("user.sub", info.Subject))

	return &domain.Identity{
		Subject: info.Subject,
		Name:    info.Name,
		Email:   info.Email,
		Picture: info.Picture,
		IDToken: idToken,
	}, nil
}

func (v *GoogleTokenVerifier) check(info tokenInfo) error {
	if info.Subject == "" {
		return fmt.Errorf("%w: missing subject", ErrInvalidIDToken)
	}
	if !googleIssuers[info.Issuer] {
		return fmt.Errorf("%w: unexpected issuer %q", ErrInvalidIDToken, info.Issuer)
	}
	if v.clientID != "" && info.Audience != v.clientID {
		return fmt.Errorf("%w: audience mismatch", ErrInvalidIDToken)
	}
	if info.Expiry != "" {
		exp, err := strconv.ParseInt(info.Expiry, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: bad exp %q", ErrInvalidIDToken, info.Expiry)
		}
		if v.now().After(time.Unix(exp, 0)) {
			return fmt.Errorf("%w: expired", ErrInvalidIDToken)
		}
	}
	return nil
}
