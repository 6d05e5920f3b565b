package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"runlog/config"
	"runlog/strava"
)

// resolveTokenPath prefers the flag, then paths.token_file, then the file
// under the runlog home directory.
func resolveTokenPath(explicitPath, configuredPath string) (string, error) {
	if strings.TrimSpace(explicitPath) != "" {
		return explicitPath, nil
	}
	if strings.TrimSpace(configuredPath) != "" {
		return configuredPath, nil
	}
	return strava.DefaultTokenPath()
}

func resolveProfileDir(explicitDir string) (string, bool, error) {
	if strings.TrimSpace(explicitDir) != "" {
		return explicitDir, false, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("resolve home directory: %w", err)
	}
	base := filepath.Join(home, ".runlog")
	if err := os.MkdirAll(base, 0o700); err != nil {
		return "", false, fmt.Errorf("create directory %q: %w", base, err)
	}
	profileDir, err := os.MkdirTemp(base, "chrome-profile-*")
	if err != nil {
		return "", false, fmt.Errorf("create temporary profile dir: %w", err)
	}
	return profileDir, true, nil
}

func stravaCredentials(cfg *config.Config) strava.Credentials {
	return strava.Credentials{
		ClientID:     cfg.Strava.ClientID,
		ClientSecret: cfg.Strava.ClientSecret,
		RedirectURL:  cfg.Strava.RedirectURL,
	}
}

// parseAuthorizationRedirect checks whether currentURL is the OAuth redirect.
// It reports done once the redirect was reached, with either a code or an error.
func parseAuthorizationRedirect(currentURL, redirectURL, expectedState string) (string, bool, error) {
	current, err := url.Parse(strings.TrimSpace(currentURL))
	if err != nil || current.Host == "" {
		return "", false, nil
	}
	redirect, err := url.Parse(strings.TrimSpace(redirectURL))
	if err != nil {
		return "", false, fmt.Errorf("parse redirect url: %w", err)
	}
	if !strings.EqualFold(current.Host, redirect.Host) || strings.TrimRight(current.Path, "/") != strings.TrimRight(redirect.Path, "/") {
		return "", false, nil
	}

	query := current.Query()
	if denied := query.Get("error"); denied != "" {
		return "", true, fmt.Errorf("authorization was not granted: %s", denied)
	}
	if expectedState != "" && query.Get("state") != expectedState {
		return "", true, errors.New("authorization redirect carries an unexpected state")
	}
	code := strings.TrimSpace(query.Get("code"))
	if code == "" {
		return "", true, errors.New("authorization redirect has no code")
	}
	return code, true, nil
}

// extractAuthorizationCode accepts either the bare code or the full redirect
// URL pasted from the browser address bar.
func extractAuthorizationCode(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("authorization code is required")
	}
	if !strings.Contains(input, "://") {
		return input, nil
	}
	parsed, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("parse redirect url: %w", err)
	}
	if denied := parsed.Query().Get("error"); denied != "" {
		return "", fmt.Errorf("authorization was not granted: %s", denied)
	}
	code := strings.TrimSpace(parsed.Query().Get("code"))
	if code == "" {
		return "", errors.New("redirect url has no code parameter")
	}
	return code, nil
}
