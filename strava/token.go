package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"runlog/internal/fileutil"

	"golang.org/x/oauth2"
)

// ExpiryMargin is how long before expires_at a token is already refreshed.
const ExpiryMargin = 5 * time.Minute

// Token is the persisted token file.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

func (t Token) Expiry() time.Time {
	if t.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(t.ExpiresAt, 0)
}

func (t Token) ValidAt(now time.Time) bool {
	return t.AccessToken != "" && t.ExpiresAt != 0 && now.Before(t.Expiry().Add(-ExpiryMargin))
}

func DefaultTokenPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".runlog", "strava-token.json"), nil
}

func LoadToken(path string) (Token, error) {
	content, err := os.ReadFile(strings.TrimSpace(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Token{}, fmt.Errorf("%w: %s", ErrNoStoredToken, path)
		}
		return Token{}, fmt.Errorf("read token file: %w", err)
	}

	var token Token
	if err := json.Unmarshal(content, &token); err != nil {
		return Token{}, fmt.Errorf("decode token file %s: %w", path, err)
	}
	if token.RefreshToken == "" {
		return Token{}, fmt.Errorf("%w: %s has no refresh token", ErrNoStoredToken, path)
	}
	return token, nil
}

// SaveToken writes the token file readable by the owner only.
func SaveToken(path string, token Token) error {
	content, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	content = append(content, '\n')
	return fileutil.WriteFileAtomic(strings.TrimSpace(path), content, 0o600)
}

// TokenSource hands out access tokens from the token file and refreshes them
// through the OAuth token endpoint once they are within ExpiryMargin of expiry.
type TokenSource struct {
	path   string
	config *oauth2.Config
	Logger *slog.Logger

	source  oauth2.TokenSource
	current Token
}

func NewTokenSource(path string, creds Credentials) (*TokenSource, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("token file path is required")
	}
	return &TokenSource{path: path, config: OAuthConfig(creds), Logger: slog.Default()}, nil
}

func (s *TokenSource) AccessToken(ctx context.Context) (string, error) {
	if s.source == nil {
		stored, err := LoadToken(s.path)
		if err != nil {
			return "", err
		}
		initial := &oauth2.Token{
			AccessToken:  stored.AccessToken,
			RefreshToken: stored.RefreshToken,
			TokenType:    "Bearer",
			Expiry:       stored.Expiry(),
		}
		refresher := s.config.TokenSource(ctx, &oauth2.Token{RefreshToken: stored.RefreshToken})
		s.source = oauth2.ReuseTokenSourceWithExpiry(initial, refresher, ExpiryMargin)
		s.current = stored
	}

	tok, err := s.source.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenRefresh, err)
	}

	if tok.AccessToken != s.current.AccessToken {
		refreshed := tokenFromOAuth(tok)
		if refreshed.RefreshToken == "" {
			refreshed.RefreshToken = s.current.RefreshToken
		}
		if err := SaveToken(s.path, refreshed); err != nil {
			return "", err
		}
		s.current = refreshed
		s.logger().Info("access token refreshed", "expires_at", refreshed.Expiry().Format(time.RFC3339))
	}
	return tok.AccessToken, nil
}

func (s *TokenSource) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// tokenFromOAuth prefers the expires_at field Strava sends over the expiry
// computed from expires_in.
func tokenFromOAuth(tok *oauth2.Token) Token {
	token := Token{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken}
	if !tok.Expiry.IsZero() {
		token.ExpiresAt = tok.Expiry.Unix()
	}
	switch value := tok.Extra("expires_at").(type) {
	case float64:
		token.ExpiresAt = int64(value)
	case int64:
		token.ExpiresAt = value
	case string:
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			token.ExpiresAt = parsed
		}
	}
	return token
}
