// Package config provides configuration loading and validation for the CLI
// and server. Values come from a JSON file, the environment, or CLI flags,
// with flags winning over file values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds the runtime configuration. All fields are optional; missing
// values use defaults or must be provided via CLI flags.
type Config struct {
	// Collaborators
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL; empty selects the in-memory store

	// Sessions
	TokenSecret     string `json:"token_secret,omitempty"`      // HMAC secret for share tokens
	SessionTTLHours int    `json:"session_ttl_hours,omitempty"` // Share token lifetime

	// Storage
	BlobDir string `json:"blob_dir,omitempty"` // Root directory for rendered documents

	// Behavior
	UseBrowser          bool `json:"use_browser,omitempty"`           // Use headless browser for SPA job boards
	Verbose             bool `json:"verbose,omitempty"`               // Print detailed stage output
	StageTimeoutSeconds int  `json:"stage_timeout_seconds,omitempty"` // Per-stage collaborator timeout

	// Server
	Port int `json:"port,omitempty"`
}

// Environment variable names.
const (
	EnvAPIKey      = "GEMINI_API_KEY"
	EnvDatabaseURL = "DATABASE_URL"
	EnvTokenSecret = "CVAGENT_TOKEN_SECRET"
	EnvBlobDir     = "CVAGENT_BLOB_DIR"
)

// LoadConfig loads configuration from a JSON file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds a config from environment variables. Call after godotenv has
// loaded any .env file.
func FromEnv() *Config {
	return &Config{
		APIKey:      os.Getenv(EnvAPIKey),
		DatabaseURL: os.Getenv(EnvDatabaseURL),
		TokenSecret: os.Getenv(EnvTokenSecret),
		BlobDir:     os.Getenv(EnvBlobDir),
	}
}

// Validate checks that the configuration has valid values. Required fields
// are checked later, after merging with CLI flags.
func (c *Config) Validate() error {
	if c.SessionTTLHours < 0 {
		return fmt.Errorf("config error: 'session_ttl_hours' must be non-negative")
	}
	if c.StageTimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'stage_timeout_seconds' must be non-negative")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be a valid port number")
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. Bool fields are not merged; CLI flags always win for those.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.TokenSecret == "" {
		result.TokenSecret = defaults.TokenSecret
	}
	if result.BlobDir == "" {
		result.BlobDir = defaults.BlobDir
	}
	if result.SessionTTLHours == 0 {
		result.SessionTTLHours = defaults.SessionTTLHours
	}
	if result.StageTimeoutSeconds == 0 {
		result.StageTimeoutSeconds = defaults.StageTimeoutSeconds
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	return result
}

// SessionTTL returns the configured share token lifetime, or zero when unset
// so callers can apply their own default.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// StageTimeout returns the configured per-stage timeout, or zero when unset.
func (c *Config) StageTimeout() time.Duration {
	return time.Duration(c.StageTimeoutSeconds) * time.Second
}
