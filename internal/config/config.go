// Package config defines verge's configuration and how it is loaded.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cache backends.
const (
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is console or json.
	LogFormat string `koanf:"log_format"`

	// DBPath is the SQLite file for the cache and report history.
	DBPath string `koanf:"db_path"`

	APIBaseURL        string        `koanf:"api_base_url"`
	UserAgent         string        `koanf:"user_agent"`
	RequestTimeout    time.Duration `koanf:"request_timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	MaxRetries        int           `koanf:"max_retries"`

	// OpponentWorkers bounds concurrent opponent lookups per run.
	OpponentWorkers int `koanf:"opponent_workers"`

	// CacheBackend is sqlite, redis or none.
	CacheBackend string `koanf:"cache_backend"`
	RedisURL     string `koanf:"redis_url"`
	// CacheTTL applies when the API does not say how long data is fresh.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	ListenAddr     string   `koanf:"listen_addr"`
	AllowedOrigins []string `koanf:"allowed_origins"`

	AnalyzeModel string `koanf:"analyze_model"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "warn",
		LogFormat:         "console",
		DBPath:            filepath.Join(userHome(), ".verge", "verge.db"),
		APIBaseURL:        "https://ch.tetr.io/api/",
		UserAgent:         "verge/1.0 (+https://github.com/pable/go-tl-verge)",
		RequestTimeout:    30 * time.Second,
		RequestsPerSecond: 5,
		MaxRetries:        3,
		OpponentWorkers:   4,
		CacheBackend:      CacheSQLite,
		CacheTTL:          5 * time.Minute,
		ListenAddr:        ":8080",
		AllowedOrigins:    []string{"*"},
		AnalyzeModel:      "claude-haiku-4-5-20251001",
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.APIBaseURL == "":
		return fmt.Errorf("%w: api_base_url must not be empty", ErrInvalidConfig)
	case c.RequestsPerSecond <= 0:
		return fmt.Errorf("%w: requests_per_second must be positive", ErrInvalidConfig)
	case c.OpponentWorkers <= 0:
		return fmt.Errorf("%w: opponent_workers must be positive", ErrInvalidConfig)
	case c.MaxRetries < 0:
		return fmt.Errorf("%w: max_retries must not be negative", ErrInvalidConfig)
	case c.CacheTTL <= 0:
		return fmt.Errorf("%w: cache_ttl must be positive", ErrInvalidConfig)
	}
	switch c.CacheBackend {
	case CacheSQLite, CacheNone:
	case CacheRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%w: cache_backend redis needs redis_url", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown cache_backend %q", ErrInvalidConfig, c.CacheBackend)
	}
	return nil
}

func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
