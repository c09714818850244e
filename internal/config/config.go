package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Config holds all configuration for the application. The Spotify client
// identifier and redirect URL always arrive here, from file or environment,
// never as compiled-in literals.
type Config struct {
	HTTPPort    int    `json:"http_port" validate:"gte=0"`
	MetricsPort int    `json:"metrics_port" validate:"gte=0"`
	LogLevel    string `json:"log_level" validate:"oneof=debug info warn error"`
	DBPath      string `json:"db_path" validate:"required"`

	Spotify struct {
		ClientID    string   `json:"client_id" validate:"required"`
		RedirectURL string   `json:"redirect_url" validate:"required,url"`
		Scopes      []string `json:"scopes" validate:"min=1,dive,required"`
	} `json:"spotify"`
}

// Default returns a Config with development defaults. The client ID has no
// default; it must come from the config file or SPOTIFY_CLIENT_ID.
func Default() *Config {
	cfg := &Config{
		HTTPPort:    8080,
		MetricsPort: 9090,
		LogLevel:    "info",
		DBPath:      "./tunewave.db",
	}
	cfg.Spotify.RedirectURL = "http://localhost:8080/callback"
	cfg.Spotify.Scopes = []string{"user-top-read", "user-library-read", "playlist-read-private"}
	return cfg
}

// Load reads configuration from a file and overrides with environment
// variables. An empty path skips the file and starts from defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides overrides config fields with environment variables.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_REDIRECT_URL"); v != "" {
		c.Spotify.RedirectURL = v
	}
	if v := os.Getenv("SPOTIFY_SCOPES"); v != "" {
		c.Spotify.Scopes = strings.Fields(v)
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	if v := os.Getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing HTTP_PORT: %w", err)
		}
		c.HTTPPort = port
	}
	if v := os.Getenv("METRICS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing METRICS_PORT: %w", err)
		}
		c.MetricsPort = port
	}

	return nil
}

// validate checks the config against its struct tags.
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
