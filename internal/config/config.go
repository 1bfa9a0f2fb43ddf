// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultWebhookURL is the endpoint that receives content change notifications.
const DefaultWebhookURL = "https://social-posts-prod.apigateway.co/vplugin/webhook/blog-post"

// Config holds the application configuration loaded from environment variables.
type Config struct {
	Env        string `env:"PC_ENV" envDefault:"development"`
	DBPath     string `env:"PC_DB_PATH" envDefault:"./data/postconnector.db"`
	ServerHost string `env:"PC_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"PC_SERVER_PORT" envDefault:"8080"`
	LogLevel   string `env:"PC_LOG_LEVEL" envDefault:"info"`
	UploadsDir string `env:"PC_UPLOADS_DIR" envDefault:"./uploads"`

	// Public base URL used for permalinks and webhook payloads.
	SiteURL  string `env:"PC_SITE_URL" envDefault:"http://localhost:8080"`
	Timezone string `env:"PC_TIMEZONE" envDefault:"UTC"`

	APIPrefix    string   `env:"PC_API_PREFIX" envDefault:"/wp-json/sm-connect/v1"`
	APIRateLimit float64  `env:"PC_API_RATE_LIMIT" envDefault:"10"` // requests per second per IP, 0 disables
	APIRateBurst int      `env:"PC_API_RATE_BURST" envDefault:"20"`
	CORSOrigins  []string `env:"PC_CORS_ORIGINS" envSeparator:","`

	WebhookURL     string        `env:"PC_WEBHOOK_URL" envDefault:"https://social-posts-prod.apigateway.co/vplugin/webhook/blog-post"`
	WebhookTimeout time.Duration `env:"PC_WEBHOOK_TIMEOUT" envDefault:"10s"`

	ImageMaxBytes int64         `env:"PC_IMAGE_MAX_BYTES" envDefault:"20971520"`
	ImageTimeout  time.Duration `env:"PC_IMAGE_TIMEOUT" envDefault:"30s"`

	ReleaseAPIURL string `env:"PC_RELEASE_API_URL" envDefault:"https://api.github.com/repos/vplugins/blog-post-connector/releases/latest"`

	// Cache configuration
	RedisURL    string `env:"PC_REDIS_URL"` // Optional Redis URL for the shared cache
	CachePrefix string `env:"PC_CACHE_PREFIX" envDefault:"postconnector:"`
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

// SlogLevel returns the configured log level.
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

// Location returns the site time zone. Load has already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
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
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	return cfg, nil
}

func (c *Config) validate() error {
	if err := requireHTTPURL("PC_SITE_URL", c.SiteURL); err != nil {
		return err
	}
	if c.WebhookURL != "" {
		if err := requireHTTPURL("PC_WEBHOOK_URL", c.WebhookURL); err != nil {
			return err
		}
	}
	if !strings.HasPrefix(c.APIPrefix, "/") {
		return fmt.Errorf("PC_API_PREFIX must start with /, got %q", c.APIPrefix)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("PC_LOG_LEVEL must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("PC_TIMEZONE: %w", err)
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("PC_SERVER_PORT out of range: %d", c.ServerPort)
	}
	if c.APIRateLimit < 0 {
		return fmt.Errorf("PC_API_RATE_LIMIT must not be negative")
	}
	if c.WebhookTimeout <= 0 {
		return fmt.Errorf("PC_WEBHOOK_TIMEOUT must be positive")
	}
	if c.ImageMaxBytes <= 0 {
		return fmt.Errorf("PC_IMAGE_MAX_BYTES must be positive")
	}
	return nil
}

func requireHTTPURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", name, raw)
	}
	return nil
}
