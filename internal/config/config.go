/*
Package config loads runtime settings from the environment.

Variables are mapped onto [Config] with caarlos0/env. A .env file in the
working directory is read first when present; real environment variables
win over it.

Usage:

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	imageBase := cfg.ImageBase()
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// State backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// ErrMissingAPIKey is returned by RequireAPIKey when neither API_KEY nor
// REACT_APP_API_KEY is set.
var ErrMissingAPIKey = errors.New("config: API_KEY is required")

// Config holds all runtime configuration for moviesearch.
type Config struct {
	// Catalog API
	APIKey         string `env:"API_KEY"`
	LegacyAPIKey   string `env:"REACT_APP_API_KEY"`
	CatalogBaseURL string `env:"CATALOG_BASE_URL" envDefault:"https://api.themoviedb.org"`
	Language       string `env:"CATALOG_LANGUAGE" envDefault:"en-US"`

	// Card images; only this host is ever referenced.
	ImageHost       string `env:"IMAGE_HOST"        envDefault:"media.themoviedb.org"`
	ImagePathPrefix string `env:"IMAGE_PATH_PREFIX" envDefault:"/t/p/w1066_and_h600_bestv2"`

	// View state persistence
	StateBackend string `env:"STATE_BACKEND" envDefault:"file"`
	StateDir     string `env:"STATE_DIR"`
	RedisURL     string `env:"REDIS_URL"     envDefault:"redis://localhost:6379/0"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`
	LogFile   string `env:"LOG_FILE"`

	// MetricsAddr enables the /health and /metrics listener when set.
	MetricsAddr string `env:"METRICS_ADDR"`
}

// Load reads an optional .env file, then parses the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}
	return finish(cfg)
}

// LoadFrom parses vars instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = cfg.LegacyAPIKey
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that env tags cannot express. The API key is
// checked separately so commands that never reach the catalog can run
// without one.
func (c *Config) Validate() error {
	switch c.StateBackend {
	case BackendFile, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("config: unknown STATE_BACKEND %q (want file, redis or memory)", c.StateBackend)
	}

	if c.ImageHost == "" || strings.ContainsAny(c.ImageHost, "/:") {
		return fmt.Errorf("config: IMAGE_HOST must be a bare host name (got %q)", c.ImageHost)
	}
	if c.ImagePathPrefix != "" && !strings.HasPrefix(c.ImagePathPrefix, "/") {
		return fmt.Errorf("config: IMAGE_PATH_PREFIX must start with / (got %q)", c.ImagePathPrefix)
	}

	return nil
}

// RequireAPIKey fails when no catalog credential is configured.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// ImageBase returns the URL prefix card image paths are joined onto.
func (c *Config) ImageBase() string {
	return "https://" + c.ImageHost + strings.TrimRight(c.ImagePathPrefix, "/")
}

// StateDirectory returns STATE_DIR, defaulting to ~/.moviesearch.
func (c *Config) StateDirectory() (string, error) {
	if c.StateDir != "" {
		return c.StateDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".moviesearch"), nil
}

// LogFilePath returns LOG_FILE, defaulting to moviesearch.log in the state
// directory.
func (c *Config) LogFilePath() (string, error) {
	if c.LogFile != "" {
		return c.LogFile, nil
	}
	dir, err := c.StateDirectory()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "moviesearch.log"), nil
}
