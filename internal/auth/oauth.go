package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/oauth2"

	"velowatt/internal/store"
)

const (
	// Strava OAuth endpoints
	AuthURL  = "https://www.strava.com/oauth/authorize"
	TokenURL = "https://www.strava.com/oauth/token"
)

// Scopes required for reading rides (Strava uses comma-separated scopes)
var Scopes = []string{
	"read,activity:read_all",
}

// Config holds the OAuth client credentials
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "http://localhost:8089/callback"
}

// NewOAuthConfig creates an oauth2.Config from our Config
func NewOAuthConfig(cfg Config) *oauth2.Config {
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = fmt.Sprintf("http://localhost:%d/callback", CallbackPort)
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  AuthURL,
			TokenURL: TokenURL,
		},
		RedirectURL: cfg.RedirectURL,
		Scopes:      Scopes,
	}
}

// AuthResult contains the token and athlete info from successful auth
type AuthResult struct {
	Token     *oauth2.Token
	AthleteID int64
	Scope     string
}

// ExtractAthleteID extracts the athlete ID from the token extras
// Strava includes athlete info in the token response
func ExtractAthleteID(token *oauth2.Token) int64 {
	if athlete, ok := token.Extra("athlete").(map[string]any); ok {
		if id, ok := athlete["id"].(float64); ok {
			return int64(id)
		}
	}
	return 0
}

// TokenStore persists OAuth tokens
type TokenStore interface {
	GetAuth(ctx context.Context) (*store.Auth, error)
	SaveAuth(ctx context.Context, auth *store.Auth) error
	UpdateTokens(ctx context.Context, accessToken, refreshToken string, expiry time.Time) error
}

// Connect returns a refreshing token source for the stored Strava
// authorization, running the browser flow first when none is stored or
// the stored one can no longer be refreshed.
func Connect(ctx context.Context, cfg *oauth2.Config, tokens TokenStore, prompt io.Writer) (oauth2.TokenSource, error) {
	stored, err := tokens.GetAuth(ctx)
	if errors.Is(err, store.ErrNoAuth) {
		fmt.Fprintln(prompt, "No Strava authorization found. Starting OAuth flow...")
		if stored, err = authorize(ctx, cfg, tokens, prompt); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("checking auth: %w", err)
	}

	ts := persistingSource(ctx, cfg, stored, tokens)

	// Test the token is valid by getting a fresh one
	if _, err := ts.Token(); err != nil {
		fmt.Fprintln(prompt, "Stored token is invalid or expired. Re-authenticating...")
		if stored, err = authorize(ctx, cfg, tokens, prompt); err != nil {
			return nil, err
		}
		ts = persistingSource(ctx, cfg, stored, tokens)
	}

	return ts, nil
}

func persistingSource(ctx context.Context, cfg *oauth2.Config, a *store.Auth, tokens TokenStore) *TokenSource {
	token := &oauth2.Token{
		AccessToken:  a.AccessToken,
		RefreshToken: a.RefreshToken,
		Expiry:       a.ExpiresAt,
	}
	return NewTokenSource(cfg, token, func(t *oauth2.Token) error {
		return tokens.UpdateTokens(ctx, t.AccessToken, t.RefreshToken, t.Expiry)
	})
}

// authorize runs the browser flow and stores the result
func authorize(ctx context.Context, cfg *oauth2.Config, tokens TokenStore, prompt io.Writer) (*store.Auth, error) {
	result, err := Authenticate(ctx, cfg, prompt)
	if err != nil {
		return nil, fmt.Errorf("authentication: %w", err)
	}

	a := &store.Auth{
		AthleteID:    result.AthleteID,
		Scope:        result.Scope,
		AccessToken:  result.Token.AccessToken,
		RefreshToken: result.Token.RefreshToken,
		ExpiresAt:    result.Token.Expiry,
	}
	if err := tokens.SaveAuth(ctx, a); err != nil {
		return nil, fmt.Errorf("saving auth: %w", err)
	}

	fmt.Fprintf(prompt, "\nSuccessfully authenticated as athlete %d!\n", result.AthleteID)
	if !a.HasScope(store.ScopeActivityReadAll) {
		fmt.Fprintln(prompt, "Private activities were not shared; only public rides will sync.")
	}
	return a, nil
}
