package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestValidateYAMLContent_DefaultsFillMissingKeys(t *testing.T) {
	t.Parallel()

	cfg, err := ValidateYAMLContent([]byte("paths:\n  output: \"out.json\"\n"))
	if err != nil {
		t.Fatalf("expected config to validate: %v", err)
	}
	if cfg.Paths.Output != "out.json" {
		t.Fatalf("unexpected output path: %q", cfg.Paths.Output)
	}
	if cfg.Paths.Cache != "workout_cache.json" || cfg.Classify.VersionTag != "v1" || cfg.Strava.PerPage != 100 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.AIParse.Model != "gpt-4o" {
		t.Fatalf("unexpected model: %q", cfg.AIParse.Model)
	}
}

func TestValidateYAMLContent_ExampleIsValid(t *testing.T) {
	t.Parallel()

	cfg, err := ValidateYAMLContent([]byte(ExampleYAML()))
	if err != nil {
		t.Fatalf("expected example config to validate: %v", err)
	}
	if cfg.Paths.Database != "runlog.db" {
		t.Fatalf("unexpected database path: %q", cfg.Paths.Database)
	}
}

func TestValidateYAMLContent_RejectsPerPageAboveLimit(t *testing.T) {
	t.Parallel()

	_, err := ValidateYAMLContent([]byte("strava:\n  per_page: 500\n"))
	if err == nil {
		t.Fatalf("expected validation error for per_page")
	}
	if !strings.Contains(err.Error(), "PerPage") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateYAMLContent_RejectsBadCutoff(t *testing.T) {
	t.Parallel()

	_, err := ValidateYAMLContent([]byte("strava:\n  cutoff: \"last week\"\n"))
	if err == nil {
		t.Fatalf("expected validation error for cutoff")
	}
	if !strings.Contains(err.Error(), "strava.cutoff") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStravaConfig_CutoffTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cutoff string
		want   time.Time
	}{
		{name: "default", cutoff: DefaultCutoff, want: time.Date(2025, 9, 13, 4, 0, 0, 0, time.UTC)},
		{name: "date only is eastern midnight", cutoff: "2025-01-10", want: time.Date(2025, 1, 10, 5, 0, 0, 0, time.UTC)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := StravaConfig{Cutoff: tc.cutoff}.CutoffTime()
			if err != nil {
				t.Fatalf("parse cutoff: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("expected %s, got %s", tc.want, got.UTC())
			}
		})
	}
}

func TestBindEnv_ReadsCredentialsFromEnvironment(t *testing.T) {
	t.Setenv("STRAVA_CLIENT_ID", "12345")
	t.Setenv("STRAVA_CLIENT_SECRET", "shh")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	local := viper.New()
	setDefaults(local)
	BindEnv(local)

	cfg, err := loadAndValidateFromViper(local)
	if err != nil {
		t.Fatalf("expected config to validate: %v", err)
	}
	if cfg.Strava.ClientID != "12345" || cfg.Strava.ClientSecret != "shh" {
		t.Fatalf("credentials not read from environment: %+v", cfg.Strava)
	}
	if cfg.AIParse.APIKey != "sk-test" {
		t.Fatalf("unexpected api key: %q", cfg.AIParse.APIKey)
	}
}
