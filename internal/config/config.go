// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the packstudio configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"PACKS_DB_PATH" envDefault:"./data/packstudio.db"`
	ServerHost string `env:"PACKS_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"PACKS_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"PACKS_ENV" envDefault:"development"`
	LogLevel   string `env:"PACKS_LOG_LEVEL" envDefault:"info"`

	// Seeding configuration
	DoSeed bool `env:"PACKS_DO_SEED" envDefault:"false"` // Insert demo packs, items and blocks

	// Cache configuration
	RedisURL     string        `env:"PACKS_REDIS_URL"`                             // Optional Redis URL for shared caching
	CachePrefix  string        `env:"PACKS_CACHE_PREFIX" envDefault:"packstudio:"` // Redis key prefix
	CacheTTL     time.Duration `env:"PACKS_CACHE_TTL" envDefault:"10m"`
	CacheMaxSize int           `env:"PACKS_CACHE_MAX_SIZE" envDefault:"1000"` // Max memory cache entries

	// Media uploads
	UploadsDir      string  `env:"PACKS_UPLOADS_DIR" envDefault:"./uploads"`
	UploadsBaseURL  string  `env:"PACKS_UPLOADS_BASE_URL" envDefault:"/uploads"`
	UploadMaxSize   int64   `env:"PACKS_UPLOAD_MAX_SIZE" envDefault:"20971520"`
	UploadMaxDim    int     `env:"PACKS_UPLOAD_MAX_DIMENSION" envDefault:"2560"`
	UploadRateLimit float64 `env:"PACKS_UPLOAD_RATE" envDefault:"2"` // Uploads per second per operator
	UploadBurst     int     `env:"PACKS_UPLOAD_BURST" envDefault:"5"`

	// Favorites reconciliation
	FavoritesSweep      string        `env:"PACKS_FAVORITES_SWEEP" envDefault:"@every 30s"`
	FavoritesRetries    uint64        `env:"PACKS_FAVORITES_RETRIES" envDefault:"4"`
	FavoritesRetryDelay time.Duration `env:"PACKS_FAVORITES_RETRY_DELAY" envDefault:"200ms"`

	// Event log retention
	EventsPrune     string        `env:"PACKS_EVENTS_PRUNE" envDefault:"@daily"`
	EventsRetention time.Duration `env:"PACKS_EVENTS_RETENTION" envDefault:"720h"`

	// JobTimeout bounds a single scheduled job run.
	JobTimeout time.Duration `env:"PACKS_JOB_TIMEOUT" envDefault:"1m"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// SlogLevel maps LogLevel to a slog level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("PACKS_SERVER_PORT out of range: %d", c.ServerPort))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("PACKS_DB_PATH must not be empty"))
	}
	if c.UploadMaxSize <= 0 {
		errs = append(errs, fmt.Errorf("PACKS_UPLOAD_MAX_SIZE must be positive, got %d", c.UploadMaxSize))
	}
	if c.UploadRateLimit <= 0 || c.UploadBurst <= 0 {
		errs = append(errs, errors.New("PACKS_UPLOAD_RATE and PACKS_UPLOAD_BURST must be positive"))
	}
	if c.EventsRetention < time.Hour {
		errs = append(errs, fmt.Errorf("PACKS_EVENTS_RETENTION must be at least 1h, got %s", c.EventsRetention))
	}
	return errors.Join(errs...)
}
