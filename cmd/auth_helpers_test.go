package cmd

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveTokenPath(t *testing.T) {
	t.Run("explicit path wins", func(t *testing.T) {
		got, err := resolveTokenPath("./token.json", "configured.json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "./token.json" {
			t.Fatalf("expected explicit path, got %q", got)
		}
	})

	t.Run("uses configured path", func(t *testing.T) {
		got, err := resolveTokenPath("", "configured.json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "configured.json" {
			t.Fatalf("expected configured path, got %q", got)
		}
	})

	t.Run("uses home fallback", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		got, err := resolveTokenPath("", " ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := filepath.Join(home, ".runlog", "strava-token.json")
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	})
}

func TestResolveProfileDir(t *testing.T) {
	t.Run("explicit path wins", func(t *testing.T) {
		got, isTemp, err := resolveProfileDir("./profile")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "./profile" {
			t.Fatalf("expected explicit path, got %q", got)
		}
		if isTemp {
			t.Fatalf("did not expect explicit profile to be marked as temp")
		}
	})

	t.Run("creates temp profile dir by default", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		got, isTemp, err := resolveProfileDir("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !isTemp {
			t.Fatalf("expected temp profile flag")
		}
		if !strings.HasPrefix(got, filepath.Join(home, ".runlog", "chrome-profile-")) {
			t.Fatalf("unexpected temp profile path: %q", got)
		}
	})
}

func TestParseAuthorizationRedirect(t *testing.T) {
	const redirect = "http://localhost:8080/callback"

	tests := []struct {
		name     string
		current  string
		state    string
		wantCode string
		wantDone bool
		wantErr  bool
	}{
		{name: "strava page is not the redirect", current: "https://www.strava.com/oauth/authorize?client_id=1", state: "s1"},
		{name: "chrome error page is ignored", current: "chrome-error://chromewebdata/", state: "s1"},
		{name: "code with matching state", current: redirect + "?state=s1&code=abc&scope=read,activity:read_all", state: "s1", wantCode: "abc", wantDone: true},
		{name: "trailing slash matches", current: redirect + "/?state=s1&code=abc", state: "s1", wantCode: "abc", wantDone: true},
		{name: "access denied", current: redirect + "?state=s1&error=access_denied", state: "s1", wantDone: true, wantErr: true},
		{name: "state mismatch", current: redirect + "?state=other&code=abc", state: "s1", wantDone: true, wantErr: true},
		{name: "missing code", current: redirect + "?state=s1", state: "s1", wantDone: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, done, err := parseAuthorizationRedirect(tt.current, redirect, tt.state)
			if done != tt.wantDone {
				t.Fatalf("expected done=%t, got %t", tt.wantDone, done)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if code != tt.wantCode {
				t.Fatalf("expected code %q, got %q", tt.wantCode, code)
			}
		})
	}
}

func TestExtractAuthorizationCode(t *testing.T) {
	code, err := extractAuthorizationCode("  abc123\n")
	if err != nil || code != "abc123" {
		t.Fatalf("expected bare code, got %q (%v)", code, err)
	}

	code, err = extractAuthorizationCode("http://localhost:8080/callback?state=x&code=def456&scope=read")
	if err != nil || code != "def456" {
		t.Fatalf("expected code from redirect url, got %q (%v)", code, err)
	}

	if _, err := extractAuthorizationCode("http://localhost:8080/callback?error=access_denied"); err == nil {
		t.Fatalf("expected error for denied authorization")
	}
	if _, err := extractAuthorizationCode("   "); err == nil {
		t.Fatalf("expected error for empty input")
	}
}
