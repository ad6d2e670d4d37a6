package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cryptopulse/internal/domain"
	"cryptopulse/internal/metrics"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tokenIssuer = "cryptopulse"

var (
	ErrMissingToken = errors.New("token is required")
	ErrUnauthorized = errors.New("unauthorized")
)

type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*domain.Identity, error)
}

type UserStore interface {
	Upsert(ctx context.Context, id domain.Identity, at time.Time) (*domain.UserProfile, error)
	Get(ctx context.Context, uid string) (*domain.UserProfile, error)
}

// Claims is the payload of application bearer tokens.
type Claims struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

type AuthResult struct {
	Token string
	User  domain.UserProfile
}

// AuthService exchanges Google ID tokens for application tokens.
type AuthService struct {
	tracer   trace.Tracer
	verifier IdentityVerifier
	users    UserStore
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewAuthService(tracer trace.Tracer, verifier IdentityVerifier, users UserStore, secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		tracer:   tracer,
		verifier: verifier,
		users:    users,
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
	}
}

// SignInWithGoogle verifies idToken, records the login and issues a token.
func (s *AuthService) SignInWithGoogle(ctx context.Context, idToken string) (*AuthResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth-service.sign-in-google")
	defer span.End()

	if strings.TrimSpace(idToken) == "" {
		return nil, ErrMissingToken
	}

	id, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		metrics.SignIn(false)
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	span.SetAttributes(attribute.String("user.sub", id.Subject))

	user, err := s.users.Upsert(ctx, *id, s.now())
	if err != nil {
		metrics.SignIn(false)
		return nil, fmt.Errorf("record user login: %w", err)
	}

	token, err := s.IssueToken(*user)
	if err != nil {
		metrics.SignIn(false)
		return nil, err
	}
	metrics.SignIn(true)
	return &AuthResult{Token: token, User: *user}, nil
}

func (s *AuthService) IssueToken(u domain.UserProfile) (string, error) {
	now := s.now()
	claims := Claims{
		Name:    u.Name,
		Email:   u.Email,
		Picture: u.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   u.UID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (s *AuthService) ParseToken(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMissingToken
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}
	return claims, nil
}

// Profile resolves a bearer token to the stored user. Tokens for users the
// store no longer knows fall back to the claims they carry.
func (s *AuthService) Profile(ctx context.Context, token string) (*domain.UserProfile, error) {
	ctx, span := s.tracer.Start(ctx, "auth-service.profile")
	defer span.End()

	claims, err := s.ParseToken(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Get(ctx, claims.Subject)
	if errors.Is(err, domain.ErrUserNotFound) {
		return &domain.UserProfile{UID: claims.Subject, Name: claims.Name, Email: claims.Email, Picture: claims.Picture}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", claims.Subject, err)
	}
	return user, nil
}
