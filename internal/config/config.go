// Package config loads dashboard settings from a YAML file, a .env file and
// KODIAK_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configFileEnvVar = "KODIAK_DASHBOARD_CONFIG"
	apiURLEnvVar     = "KODIAK_API_URL"
	sessionEnvVar    = "KODIAK_SESSION"
	teamEnvVar       = "KODIAK_TEAM_ID"
	clientIDEnvVar   = "KODIAK_OAUTH_CLIENT_ID"
	logLevelEnvVar   = "KODIAK_LOG_LEVEL"

	defaultConfigRelativePath = ".config/kodiak-dashboard/config.yaml"
	defaultBaseURL            = "https://app.kodiakhq.com/api"
)

type Config struct {
	API     APIConfig     `yaml:"api"`
	TeamID  string        `yaml:"team_id,omitempty"`
	OAuth   OAuthConfig   `yaml:"oauth,omitempty"`
	TUI     TUIConfig     `yaml:"tui"`
	Logging LoggingConfig `yaml:"logging"`

	path string
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Session string        `yaml:"session,omitempty"`
	Timeout time.Duration `yaml:"timeout"`
}

type OAuthConfig struct {
	ClientID    string `yaml:"client_id,omitempty"`
	RedirectURL string `yaml:"redirect_url,omitempty"`
}

type TUIConfig struct {
	// Interval is the auto-refresh period; zero disables polling.
	Interval  time.Duration `yaml:"interval"`
	NoColor   bool          `yaml:"no_color"`
	AltScreen bool          `yaml:"alt_screen"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: defaultBaseURL,
			Timeout: 10 * time.Second,
		},
		TUI: TUIConfig{
			AltScreen: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path (or the default location when path is
// empty), then applies .env and environment overrides. A missing file is not
// an error.
func Load(path string) (Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return cfg, err
	}

	// .env never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

// LoadFile reads only the config file, without env overrides. Use it when the
// result is written back with Save.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	resolved, err := ResolvePath(path)
	if err != nil {
		return cfg, err
	}
	cfg.path = resolved

	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config file %s: %w", resolved, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decode config file %s: %w", resolved, err)
		}
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(apiURLEnvVar, &c.API.BaseURL)
	set(sessionEnvVar, &c.API.Session)
	set(teamEnvVar, &c.TeamID)
	set(clientIDEnvVar, &c.OAuth.ClientID)
	set(logLevelEnvVar, &c.Logging.Level)
}

// ResolvePath picks the config file location: explicit path, then
// $KODIAK_DASHBOARD_CONFIG, then ~/.config/kodiak-dashboard/config.yaml.
func ResolvePath(path string) (string, error) {
	if p := strings.TrimSpace(path); p != "" {
		return expandPath(p)
	}
	if p := strings.TrimSpace(os.Getenv(configFileEnvVar)); p != "" {
		return expandPath(p)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, defaultConfigRelativePath), nil
}

func (c Config) Path() string { return c.path }

func (c Config) Validate() error {
	raw := strings.TrimSpace(c.API.BaseURL)
	if raw == "" {
		return errors.New("api.base_url must be set")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url %q must use http or https", raw)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be > 0, got %s", c.API.Timeout)
	}
	if c.TUI.Interval < 0 {
		return fmt.Errorf("tui.interval must be >= 0, got %s", c.TUI.Interval)
	}
	return nil
}

// Save writes the config back to its file with owner-only permissions since
// it may hold a session cookie.
func (c Config) Save() error {
	if c.path == "" {
		return errors.New("config has no file path")
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("write config file %s: %w", c.path, err)
	}
	return nil
}

func expandPath(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return filepath.Abs(p)
}
