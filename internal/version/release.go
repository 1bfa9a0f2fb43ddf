// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package version

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/post-connector/internal/cache"
	"github.com/olegiv/post-connector/internal/metrics"
)

// Release lookup defaults.
const (
	DefaultReleaseURL = "https://api.github.com/repos/vplugins/blog-post-connector/releases/latest"
	ReleaseCacheTTL   = 12 * time.Hour
	ReleaseCacheKey   = "sm_post_connector_latest_release"
	releaseTimeout    = 5 * time.Second
	maxReleaseBody    = 1 << 20
)

// Release is the cached result of a release lookup.
type Release struct {
	Version string `json:"version"`
}

// ReleaseCheckerConfig configures a ReleaseChecker.
type ReleaseCheckerConfig struct {
	URL       string
	UserAgent string
	Cache     cache.Cache
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Client    *http.Client
}

// ReleaseChecker looks up the latest published release, caching successful
// lookups for ReleaseCacheTTL.
type ReleaseChecker struct {
	url       string
	userAgent string
	client    *http.Client
	cache     *cache.TypedCache[Release]
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewReleaseChecker creates a ReleaseChecker. A memory cache is used when
// cfg.Cache is nil.
func NewReleaseChecker(cfg ReleaseCheckerConfig) *ReleaseChecker {
	if cfg.URL == "" {
		cfg.URL = DefaultReleaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "PostConnector/" + PluginVersion
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewMemoryCache(ReleaseCacheTTL)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: releaseTimeout}
	}
	return &ReleaseChecker{
		url:       cfg.URL,
		userAgent: cfg.UserAgent,
		client:    cfg.Client,
		cache:     cache.NewTypedCache[Release](cfg.Cache, ReleaseCacheTTL),
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
	}
}

// Latest returns the latest release version without a leading "v".
// It returns false when the lookup fails.
func (c *ReleaseChecker) Latest(ctx context.Context) (string, bool) {
	rel, hit, err := c.cache.GetOrSet(ctx, ReleaseCacheKey, func() (*Release, error) {
		return c.fetch(ctx)
	})
	c.metrics.RecordCacheLookup(hit)
	if err != nil {
		c.logger.Warn("failed to fetch latest release", "url", c.url, "error", err)
		return "", false
	}
	return rel.Version, true
}

// Forget drops the cached release.
func (c *ReleaseChecker) Forget(ctx context.Context) error {
	return c.cache.Delete(ctx, ReleaseCacheKey)
}

func (c *ReleaseChecker) fetch(ctx context.Context) (*Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxReleaseBody)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding release: %w", err)
	}
	if body.TagName == "" {
		return nil, fmt.Errorf("release has no tag_name")
	}

	return &Release{Version: strings.TrimPrefix(body.TagName, "v")}, nil
}
