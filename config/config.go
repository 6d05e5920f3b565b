package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"runlog/internal/timeutil"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	KeyPathsOutput    = "paths.output"
	KeyPathsCache     = "paths.cache"
	KeyPathsTokenFile = "paths.token_file"
	KeyPathsDatabase  = "paths.database"

	KeyStravaClientID     = "strava.client_id"
	KeyStravaClientSecret = "strava.client_secret"
	KeyStravaBaseURL      = "strava.base_url"
	KeyStravaRedirectURL  = "strava.redirect_url"
	KeyStravaCutoff       = "strava.cutoff"
	KeyStravaPerPage      = "strava.per_page"
	KeyStravaMaxPages     = "strava.max_pages"

	KeyClassifyVersionTag     = "classify.version_tag"
	KeyClassifyNonInteractive = "classify.non_interactive"

	KeyAIParseModel        = "aiparse.model"
	KeyAIParseProgressFile = "aiparse.progress_file"
	KeyAIParseAPIKey       = "aiparse.api_key"
)

const DefaultCutoff = "2025-09-13T00:00:00-04:00"

type Config struct {
	Paths    PathsConfig    `mapstructure:"paths" yaml:"paths"`
	Strava   StravaConfig   `mapstructure:"strava" yaml:"strava"`
	Classify ClassifyConfig `mapstructure:"classify" yaml:"classify"`
	AIParse  AIParseConfig  `mapstructure:"aiparse" yaml:"aiparse"`
}

type PathsConfig struct {
	Output    string `mapstructure:"output" yaml:"output" validate:"required"`
	Cache     string `mapstructure:"cache" yaml:"cache" validate:"required"`
	TokenFile string `mapstructure:"token_file" yaml:"token_file" validate:"required"`
	// Database enables the SQLite mirror when set.
	Database string `mapstructure:"database" yaml:"database"`
}

type StravaConfig struct {
	ClientID     string `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"client_secret"`
	BaseURL      string `mapstructure:"base_url" yaml:"base_url" validate:"required,url"`
	RedirectURL  string `mapstructure:"redirect_url" yaml:"redirect_url" validate:"required,url"`
	Cutoff       string `mapstructure:"cutoff" yaml:"cutoff" validate:"required"`
	PerPage      int    `mapstructure:"per_page" yaml:"per_page" validate:"min=1,max=200"`
	MaxPages     int    `mapstructure:"max_pages" yaml:"max_pages" validate:"min=0"`
}

type ClassifyConfig struct {
	VersionTag     string `mapstructure:"version_tag" yaml:"version_tag" validate:"required"`
	NonInteractive bool   `mapstructure:"non_interactive" yaml:"non_interactive"`
}

type AIParseConfig struct {
	Model        string `mapstructure:"model" yaml:"model" validate:"required"`
	ProgressFile string `mapstructure:"progress_file" yaml:"progress_file" validate:"required"`
	APIKey       string `mapstructure:"api_key" yaml:"api_key"`
}

// CutoffTime accepts an RFC3339 timestamp or a plain date, which is read as
// midnight Eastern time.
func (s StravaConfig) CutoffTime() (time.Time, error) {
	value := strings.TrimSpace(s.Cutoff)
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", value, timeutil.Eastern())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid strava.cutoff %q: use RFC3339 or YYYY-MM-DD", s.Cutoff)
	}
	return parsed, nil
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// BindEnv maps STRAVA_CLIENT_ID style variables onto their keys and reads
// the OpenAI key from OPENAI_API_KEY.
func BindEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv(KeyAIParseAPIKey, "OPENAI_API_KEY")
	_ = v.BindEnv(KeyStravaRedirectURL, "STRAVA_REDIRECT_URI", "STRAVA_REDIRECT_URL")
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# runlog configuration
paths:
  output: "activities.json"
  cache: "workout_cache.json"
  token_file: ".strava_tokens.json"
  # SQLite mirror used by export and history. Leave empty to disable.
  database: "runlog.db"

strava:
  # Prefer the STRAVA_CLIENT_ID and STRAVA_CLIENT_SECRET environment variables.
  client_id: ""
  client_secret: ""
  base_url: "https://www.strava.com/api/v3"
  redirect_url: "http://localhost:8080/callback"
  cutoff: "2025-09-13T00:00:00-04:00"
  per_page: 100
  max_pages: 0

classify:
  version_tag: "v1"
  non_interactive: false

aiparse:
  model: "gpt-4o"
  progress_file: "progress.json"
`
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if _, err := cfg.Strava.CutoffTime(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyPathsOutput, "activities.json")
	v.SetDefault(KeyPathsCache, "workout_cache.json")
	v.SetDefault(KeyPathsTokenFile, ".strava_tokens.json")
	v.SetDefault(KeyPathsDatabase, "")

	v.SetDefault(KeyStravaClientID, "")
	v.SetDefault(KeyStravaClientSecret, "")
	v.SetDefault(KeyStravaBaseURL, "https://www.strava.com/api/v3")
	v.SetDefault(KeyStravaRedirectURL, "http://localhost:8080/callback")
	v.SetDefault(KeyStravaCutoff, DefaultCutoff)
	v.SetDefault(KeyStravaPerPage, 100)
	v.SetDefault(KeyStravaMaxPages, 0)

	v.SetDefault(KeyClassifyVersionTag, "v1")
	v.SetDefault(KeyClassifyNonInteractive, false)

	v.SetDefault(KeyAIParseModel, "gpt-4o")
	v.SetDefault(KeyAIParseProgressFile, "progress.json")
	v.SetDefault(KeyAIParseAPIKey, "")
}
