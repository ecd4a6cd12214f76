// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"fmt"
	"log/slog"
	"time"
)

// Config selects and configures a cache backend.
type Config struct {
	// RedisURL selects Redis when set; otherwise a memory cache is used.
	RedisURL   string
	Prefix     string
	DefaultTTL time.Duration
	MaxSize    int
}

// New creates the cache described by cfg.
func New(cfg Config) (Cache, error) {
	if cfg.RedisURL != "" {
		c, err := NewRedisCache(RedisCacheOptions{
			URL:        cfg.RedisURL,
			Prefix:     cfg.Prefix,
			DefaultTTL: cfg.DefaultTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		slog.Info("using redis cache", "prefix", cfg.Prefix)
		return c, nil
	}
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL: cfg.DefaultTTL,
		MaxSize:    cfg.MaxSize,
	}), nil
}
