// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"log/slog"
	"time"
)

// Config holds configuration for cache creation.
type Config struct {
	// RedisURL selects the Redis backend when set.
	// Example: redis://localhost:6379/0
	RedisURL string

	// Prefix is the key prefix for Redis.
	Prefix string

	DefaultTTL time.Duration
}

// New creates a Redis cache when RedisURL is set and reachable, otherwise
// a memory cache.
func New(cfg Config) Cache {
	if cfg.RedisURL != "" {
		rc, err := NewRedisCache(RedisCacheOptions{
			URL:        cfg.RedisURL,
			Prefix:     cfg.Prefix,
			DefaultTTL: cfg.DefaultTTL,
		})
		if err == nil {
			slog.Info("using redis cache", "prefix", cfg.Prefix)
			return rc
		}
		slog.Warn("redis unavailable, falling back to memory cache", "error", err)
	}
	return NewMemoryCache(cfg.DefaultTTL)
}
