// Package common provides shared utilities for stravamark
package common

import (
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for stravamark
type Config struct {
	Environment string        `toml:"environment"`
	Auth        AuthConfig    `toml:"auth"`
	Export      ExportConfig  `toml:"export"`
	Clients     ClientsConfig `toml:"clients"`
	Logging     LoggingConfig `toml:"logging"`
}

// AuthConfig holds token persistence configuration.
// Client credentials are environment-only and never written to disk.
type AuthConfig struct {
	TokenFile string `toml:"token_file"`
}

// ExportConfig holds output configuration for the Markdown exporter
type ExportConfig struct {
	OutputDir string `toml:"output_dir"`
	Days      int    `toml:"days"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Strava StravaConfig `toml:"strava"`
}

// StravaConfig holds Strava API configuration
type StravaConfig struct {
	BaseURL      string `toml:"base_url"`
	AuthURL      string `toml:"auth_url"`
	TokenURL     string `toml:"token_url"`
	RedirectPort int    `toml:"redirect_port"`
	Scope        string `toml:"scope"`
	RateLimit    int    `toml:"rate_limit"`
	Timeout      string `toml:"timeout"`

	// Supplied by the environment at startup, never persisted.
	ClientID     string `toml:"-"`
	ClientSecret string `toml:"-"`
}

// GetTimeout parses and returns the timeout duration
func (c *StravaConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// HasCredentials reports whether both client id and secret are set
func (c *StravaConfig) HasCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Auth: AuthConfig{
			TokenFile: ".strava_tokens.json",
		},
		Export: ExportConfig{
			OutputDir: "./activities",
			Days:      30,
		},
		Clients: ClientsConfig{
			Strava: StravaConfig{
				BaseURL:      "https://www.strava.com/api/v3",
				AuthURL:      "https://www.strava.com/oauth/authorize",
				TokenURL:     "https://www.strava.com/oauth/token",
				RedirectPort: 8080,
				Scope:        "read,activity:read_all",
				RateLimit:    2,
				Timeout:      "30s",
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("STRAVAMARK_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("STRAVAMARK_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if dir := os.Getenv("STRAVAMARK_OUTPUT_DIR"); dir != "" {
		config.Export.OutputDir = dir
	}

	if path := os.Getenv("STRAVAMARK_TOKEN_FILE"); path != "" {
		config.Auth.TokenFile = path
	}

	// API credentials are environment-only
	if id := os.Getenv("STRAVA_CLIENT_ID"); id != "" {
		config.Clients.Strava.ClientID = id
	}
	if secret := os.Getenv("STRAVA_CLIENT_SECRET"); secret != "" {
		config.Clients.Strava.ClientSecret = secret
	}
}
