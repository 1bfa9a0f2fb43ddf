// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package webhook notifies the configured external endpoint about content
// lifecycle events.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/post-connector/internal/content"
	"github.com/olegiv/post-connector/internal/lifecycle"
	"github.com/olegiv/post-connector/internal/metrics"
	"github.com/olegiv/post-connector/internal/store"
)

// ListenerName and ListenerPriority identify the dispatcher on the bus.
const (
	ListenerName     = "webhook"
	ListenerPriority = 10
)

// TokenValidator checks a bearer token against the stored one.
type TokenValidator interface {
	Validate(ctx context.Context, candidate string) (bool, error)
}

// SecretSource provides the optional payload signing secret.
type SecretSource interface {
	SecretKey(ctx context.Context) string
}

// Config holds dispatcher configuration.
type Config struct {
	URL       string
	Timeout   time.Duration
	SiteURL   string
	UserAgent string
	Tokens    TokenValidator
	Secrets   SecretSource
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	// Client overrides the HTTP client built from Timeout.
	Client *http.Client
}

// Dispatcher turns lifecycle events into webhook deliveries.
type Dispatcher struct {
	url       string
	domain    string
	userAgent string
	client    *http.Client
	queries   *store.Queries
	tokens    TokenValidator
	secrets   SecretSource
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewDispatcher creates a webhook dispatcher. When db is nil deliveries are
// not recorded.
func NewDispatcher(db *sql.DB, cfg Config) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Client == nil {
		cfg.Client = newHTTPClient(cfg.Timeout)
	}

	d := &Dispatcher{
		url:       strings.TrimSpace(cfg.URL),
		domain:    strings.TrimRight(cfg.SiteURL, "/"),
		userAgent: cfg.UserAgent,
		client:    cfg.Client,
		tokens:    cfg.Tokens,
		secrets:   cfg.Secrets,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger.With("component", "webhook"),
	}
	if db != nil {
		d.queries = store.New(db)
	}
	return d
}

// Register subscribes the dispatcher to bus.
func (d *Dispatcher) Register(bus *lifecycle.Bus) {
	bus.Subscribe(lifecycle.Listener{
		Name:     ListenerName,
		Priority: ListenerPriority,
		Fn:       d.Handle,
	})
}

// Handle filters ev and delivers its payload. Delivery failures are logged
// and never returned.
func (d *Dispatcher) Handle(ctx context.Context, ev lifecycle.Event) error {
	if skip, reason := d.skip(ctx, ev); skip {
		d.logger.Debug("webhook not triggered", "kind", ev.Kind, "reason", reason)
		return nil
	}

	action, payload, err := BuildPayload(d.domain, ev, d.permalink)
	if err != nil {
		return err
	}

	if d.url == "" {
		d.logger.Warn("webhook URL not configured", "action", action)
		return nil
	}

	d.Send(ctx, action, payload)
	return nil
}

// skip reports whether ev must not produce a delivery, and why.
func (d *Dispatcher) skip(ctx context.Context, ev lifecycle.Event) (bool, string) {
	switch ev.Kind {
	case lifecycle.PostSaved:
		switch ev.Origin {
		case lifecycle.OriginCron, lifecycle.OriginAutosave, lifecycle.OriginRevision:
			return true, "origin " + string(ev.Origin)
		}
		if d.isAPICall(ctx) {
			return true, "connector API call"
		}
		if skip, reason := skipPost(ev.Post); skip {
			return true, reason
		}
		if ev.Post.Status == content.StatusTrash {
			return true, "post is trashed"
		}
		return false, ""

	case lifecycle.PostDeleted, lifecycle.PostTrashed, lifecycle.PostRestored:
		return skipPost(ev.Post)

	case lifecycle.UserSaved, lifecycle.UserDeleted:
		if ev.User == nil || !content.CanEditPosts(ev.User.Role) {
			return true, "user cannot edit posts"
		}
	}
	return false, ""
}

func skipPost(p *lifecycle.Post) (bool, string) {
	if p == nil {
		return true, "no post"
	}
	if p.Type != content.PostTypePost {
		return true, "post type is not post"
	}
	if !p.Provenance {
		return true, "post not written by the connector"
	}
	return false, ""
}

// isAPICall re-validates the bearer token presented on the request that
// raised the event.
func (d *Dispatcher) isAPICall(ctx context.Context) bool {
	token := lifecycle.BearerToken(ctx)
	if token == "" || d.tokens == nil {
		return false
	}
	ok, err := d.tokens.Validate(ctx, token)
	if err != nil {
		d.logger.Error("failed to validate token", "error", err)
		return false
	}
	return ok
}

func (d *Dispatcher) permalink(p *lifecycle.Post) string {
	return content.Permalink(d.domain, p.Slug, p.Date)
}

// GenerateSignature generates an HMAC-SHA256 signature for the payload.
func GenerateSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature verifies an HMAC-SHA256 signature.
func VerifySignature(payload []byte, signature, secret string) bool {
	expectedSig := GenerateSignature(payload, secret)
	return hmac.Equal([]byte(signature), []byte(expectedSig))
}
