package strava

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

const (
	DefaultAuthURL     = "https://www.strava.com/oauth/authorize"
	DefaultTokenURL    = "https://www.strava.com/oauth/token"
	DefaultRedirectURL = "http://localhost:8080/callback"

	// Strava expects its scopes comma separated in a single parameter.
	Scopes = "activity:read,activity:read_all"
)

type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// AuthURL and TokenURL default to the public Strava endpoints.
	AuthURL  string
	TokenURL string
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.ClientID) == "" || strings.TrimSpace(c.ClientSecret) == "" {
		return ErrMissingCredentials
	}
	return nil
}

func OAuthConfig(creds Credentials) *oauth2.Config {
	authURL := strings.TrimSpace(creds.AuthURL)
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	tokenURL := strings.TrimSpace(creds.TokenURL)
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	redirectURL := strings.TrimSpace(creds.RedirectURL)
	if redirectURL == "" {
		redirectURL = DefaultRedirectURL
	}

	return &oauth2.Config{
		ClientID:     strings.TrimSpace(creds.ClientID),
		ClientSecret: strings.TrimSpace(creds.ClientSecret),
		RedirectURL:  redirectURL,
		Scopes:       []string{Scopes},
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AuthCodeURL is the page the user opens to grant access.
func AuthCodeURL(creds Credentials, state string) (string, error) {
	if err := creds.Validate(); err != nil {
		return "", err
	}
	return OAuthConfig(creds).AuthCodeURL(state, oauth2.SetAuthURLParam("approval_prompt", "auto")), nil
}

// Exchange trades an authorization code for the first token pair.
func Exchange(ctx context.Context, creds Credentials, code string) (Token, error) {
	if err := creds.Validate(); err != nil {
		return Token{}, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return Token{}, fmt.Errorf("authorization code is required")
	}

	tok, err := OAuthConfig(creds).Exchange(ctx, code)
	if err != nil {
		return Token{}, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tokenFromOAuth(tok), nil
}
