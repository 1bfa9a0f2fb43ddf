// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that also persists warnings and
// errors into the events table.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/olegiv/post-connector/internal/store"
)

// Event levels stored in the events table.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories.
const (
	CategoryAuth      = "auth"
	CategoryPost      = "post"
	CategoryWebhook   = "webhook"
	CategoryMedia     = "media"
	CategoryScheduler = "scheduler"
	CategoryImport    = "import"
	CategoryCache     = "cache"
	CategorySystem    = "system"
)

// CategoryKey is the attribute that sets an event's category explicitly.
const CategoryKey = "category"

// EventLogHandler is a slog.Handler that wraps another handler and also writes
// records at or above its level to the events table.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
	attrs   []slog.Attr
}

// NewEventLogHandler wraps inner, persisting WARN and above.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel wraps inner, persisting records at level and above.
func NewEventLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.writeEvent(ctx, r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &EventLogHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
		attrs:   merged,
	}
}

// WithGroup implements slog.Handler. Grouped attributes are stored flat.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
		attrs:   h.attrs,
	}
}

func (h *EventLogHandler) writeEvent(ctx context.Context, r slog.Record) {
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})

	// Detached so events survive a cancelled request.
	_ = h.queries.CreateEvent(context.WithoutCancel(ctx), store.CreateEventParams{
		Level:     eventLevel(r.Level),
		Category:  category(r.Message, attrs),
		Message:   r.Message,
		Metadata:  metadata(attrs),
		CreatedAt: r.Time.UTC(),
	})
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return EventLevelError
	case level >= slog.LevelWarn:
		return EventLevelWarning
	default:
		return EventLevelInfo
	}
}

// category returns the explicit category attribute, or one inferred from
// the message.
func category(message string, attrs []slog.Attr) string {
	for _, a := range attrs {
		if a.Key == CategoryKey {
			return a.Value.String()
		}
	}

	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "token") || strings.Contains(msg, "denied"):
		return CategoryAuth
	case strings.Contains(msg, "webhook"):
		return CategoryWebhook
	case strings.Contains(msg, "image") || strings.Contains(msg, "media"):
		return CategoryMedia
	case strings.Contains(msg, "schedul"):
		return CategoryScheduler
	case strings.Contains(msg, "import"):
		return CategoryImport
	case strings.Contains(msg, "cache") || strings.Contains(msg, "release"):
		return CategoryCache
	case strings.Contains(msg, "post"):
		return CategoryPost
	default:
		return CategorySystem
	}
}

// metadata encodes attributes other than the category as a JSON object of
// strings.
func metadata(attrs []slog.Attr) string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		if a.Key == CategoryKey || a.Key == "" {
			continue
		}
		m[a.Key] = a.Value.Resolve().String()
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}
