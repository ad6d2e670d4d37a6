// Package auth is the client half of sign-in: it obtains a Google identity
// through the OAuth 2.0 device flow, optionally exchanges it with the
// backend for a bearer token and keeps that token on disk.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cryptopulse/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

var ErrNoIDToken = errors.New("token response carries no id_token")

// GoogleEndpoint is Google's OAuth 2.0 endpoint including device
// authorization.
var GoogleEndpoint = oauth2.Endpoint{
	AuthURL:       "https://accounts.google.com/o/oauth2/auth",
	DeviceAuthURL: "https://oauth2.googleapis.com/device/code",
	TokenURL:      "https://oauth2.googleapis.com/token",
	AuthStyle:     oauth2.AuthStyleInParams,
}

// DeviceCode is what the user needs to approve a sign-in on another device.
type DeviceCode struct {
	UserCode        string
	VerificationURL string
	Expiry          time.Time

	response *oauth2.DeviceAuthResponse
}

// IdentityProvider runs a two-step device sign-in.
type IdentityProvider interface {
	Start(ctx context.Context) (*DeviceCode, error)
	Await(ctx context.Context, code *DeviceCode) (*domain.Identity, error)
}

type GoogleDeviceProvider struct {
	config *oauth2.Config
}

func NewGoogleDeviceProvider(clientID, clientSecret string) *GoogleDeviceProvider {
	return &GoogleDeviceProvider{config: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     GoogleEndpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}}
}

func (p *GoogleDeviceProvider) Start(ctx context.Context) (*DeviceCode, error) {
	if p.config.ClientID == "" {
		return nil, errors.New("GOOGLE_CLIENT_ID not set")
	}
	resp, err := p.config.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("google device authorization: %w", err)
	}
	url := resp.VerificationURIComplete
	if url == "" {
		url = resp.VerificationURI
	}
	return &DeviceCode{
		UserCode:        resp.UserCode,
		VerificationURL: url,
		Expiry:          resp.Expiry,
		response:        resp,
	}, nil
}

// Await polls until the user approves, declines or the code expires.
func (p *GoogleDeviceProvider) Await(ctx context.Context, code *DeviceCode) (*domain.Identity, error) {
	if code == nil || code.response == nil {
		return nil, errors.New("device sign-in not started")
	}
	tok, err := p.config.DeviceAccessToken(ctx, code.response)
	if err != nil {
		return nil, fmt.Errorf("google device token: %w", err)
	}
	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return nil, ErrNoIDToken
	}
	return IdentityFromIDToken(idToken)
}

type idClaims struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// IdentityFromIDToken reads profile claims without verifying the signature;
// the backend verifies the token on exchange.
func IdentityFromIDToken(idToken string) (*domain.Identity, error) {
	claims := &idClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return nil, fmt.Errorf("parse id_token: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("id_token has no subject")
	}
	return &domain.Identity{
		Subject: claims.Subject,
		Name:    claims.Name,
		Email:   claims.Email,
		Picture: claims.Picture,
		IDToken: idToken,
	}, nil
}
