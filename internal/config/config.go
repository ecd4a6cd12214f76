// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the form server configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-sql-driver/mysql"
)

// Supported database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBDriver   string `env:"FORMS_DB_DRIVER" envDefault:"sqlite"`
	DBPath     string `env:"FORMS_DB_PATH" envDefault:"./data/forms.db"`
	DBDSN      string `env:"FORMS_DB_DSN"`
	ServerHost string `env:"FORMS_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"FORMS_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"FORMS_ENV" envDefault:"development"`
	LogLevel   string `env:"FORMS_LOG_LEVEL" envDefault:"info"`

	DefinitionsDir string `env:"FORMS_DEFINITIONS_DIR" envDefault:"./forms"`
	TemplatesDir   string `env:"FORMS_TEMPLATES_DIR" envDefault:"./forms/templates"`

	// Cache configuration
	RedisURL       string `env:"FORMS_REDIS_URL"`                          // Optional Redis URL for shared lookup caching
	CachePrefix    string `env:"FORMS_CACHE_PREFIX" envDefault:"forms:"`   // Redis key prefix
	LookupCacheTTL int    `env:"FORMS_LOOKUP_CACHE_TTL" envDefault:"300"`  // Lookup cache TTL in seconds, 0 disables caching
	CacheMaxSize   int    `env:"FORMS_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Help content
	HelpFetchTimeout int  `env:"FORMS_HELP_FETCH_TIMEOUT" envDefault:"5"` // Seconds
	HelpAllowPrivate bool `env:"FORMS_HELP_ALLOW_PRIVATE" envDefault:"false"`

	EventRetentionDays int `env:"FORMS_EVENT_RETENTION_DAYS" envDefault:"30"`

	// Submission rate limiting per client IP, 0 disables it
	SubmitRateLimit float64 `env:"FORMS_SUBMIT_RATE_LIMIT" envDefault:"1"`  // Requests per second
	SubmitRateBurst int     `env:"FORMS_SUBMIT_RATE_BURST" envDefault:"10"` // Maximum burst

	// CSRFTrustedOrigins lists host[:port] values allowed to post cross-origin.
	CSRFTrustedOrigins []string `env:"FORMS_CSRF_TRUSTED_ORIGINS" envSeparator:","`
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

// DataSource returns the driver-specific data source: the file path for
// SQLite, the DSN for MySQL.
func (c Config) DataSource() string {
	if c.DBDriver == DriverMySQL {
		return c.DBDSN
	}
	return c.DBPath
}

// LookupTTL returns the lookup cache TTL.
func (c Config) LookupTTL() time.Duration {
	return time.Duration(c.LookupCacheTTL) * time.Second
}

// HelpTimeout returns the help URL fetch timeout.
func (c Config) HelpTimeout() time.Duration {
	return time.Duration(c.HelpFetchTimeout) * time.Second
}

// EventRetention returns how long event log rows are kept.
func (c Config) EventRetention() time.Duration {
	return time.Duration(c.EventRetentionDays) * 24 * time.Hour
}

// SlogLevel maps LogLevel onto slog, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	switch cfg.DBDriver {
	case DriverSQLite:
		if cfg.DBPath == "" {
			return nil, fmt.Errorf("FORMS_DB_PATH is required for the sqlite driver")
		}
	case DriverMySQL:
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("FORMS_DB_DSN is required for the mysql driver")
		}
		if _, err := mysql.ParseDSN(cfg.DBDSN); err != nil {
			return nil, fmt.Errorf("FORMS_DB_DSN is not a valid MySQL DSN: %w", err)
		}
	default:
		return nil, fmt.Errorf("FORMS_DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverMySQL, cfg.DBDriver)
	}

	if cfg.LookupCacheTTL < 0 {
		return nil, fmt.Errorf("FORMS_LOOKUP_CACHE_TTL must not be negative, got %d", cfg.LookupCacheTTL)
	}
	if cfg.HelpFetchTimeout <= 0 {
		return nil, fmt.Errorf("FORMS_HELP_FETCH_TIMEOUT must be positive, got %d", cfg.HelpFetchTimeout)
	}
	if cfg.EventRetentionDays < 0 {
		return nil, fmt.Errorf("FORMS_EVENT_RETENTION_DAYS must not be negative, got %d", cfg.EventRetentionDays)
	}

	if cfg.SubmitRateLimit < 0 {
		return nil, fmt.Errorf("FORMS_SUBMIT_RATE_LIMIT must not be negative, got %g", cfg.SubmitRateLimit)
	}
	if cfg.SubmitRateLimit > 0 && cfg.SubmitRateBurst < 1 {
		return nil, fmt.Errorf("FORMS_SUBMIT_RATE_BURST must be at least 1, got %d", cfg.SubmitRateBurst)
	}

	if cfg.HelpAllowPrivate && !cfg.IsDevelopment() {
		slog.Warn("FORMS_HELP_ALLOW_PRIVATE is enabled outside development; " +
			"help URLs may reach internal network addresses")
	}

	return cfg, nil
}
