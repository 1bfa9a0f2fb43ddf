// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content provides the content services: post, term and user
// writes against the store, each raising a lifecycle event once committed.
package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/post-connector/internal/lifecycle"
	"github.com/olegiv/post-connector/internal/store"
)

// Post statuses.
const (
	StatusPublish = "publish"
	StatusFuture  = "future"
	StatusDraft   = "draft"
	StatusPending = "pending"
	StatusPrivate = "private"
	StatusTrash   = "trash"
)

// PostTypePost is the standard post type.
const PostTypePost = "post"

// Provenance meta keys set on posts written through the connector API.
const (
	MetaAddedByPlugin   = "added_by_sm_plugin"
	MetaUpdatedByPlugin = "updated_by_sm_plugin"
)

// User roles.
const (
	RoleSubscriber    = "subscriber"
	RoleContributor   = "contributor"
	RoleAuthor        = "author"
	RoleEditor        = "editor"
	RoleAdministrator = "administrator"
)

// ErrNotFound is returned when the target entity does not exist.
var ErrNotFound = errors.New("not found")

// CanEditPosts reports whether role is allowed to write posts.
func CanEditPosts(role string) bool {
	switch role {
	case RoleContributor, RoleAuthor, RoleEditor, RoleAdministrator:
		return true
	}
	return false
}

// ValidRole reports whether role is known.
func ValidRole(role string) bool {
	return role == RoleSubscriber || CanEditPosts(role)
}

// Service performs content writes and publishes lifecycle events.
type Service struct {
	db      *sql.DB
	queries *store.Queries
	bus     *lifecycle.Bus
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a content service. bus may be nil.
func NewService(db *sql.DB, bus *lifecycle.Bus, logger *slog.Logger) *Service {
	return &Service{
		db:      db,
		queries: store.New(db),
		bus:     bus,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// Now returns the current time as stored by the service.
func (s *Service) Now() time.Time {
	return s.now()
}

// Queries returns the read-side query handle.
func (s *Service) Queries() *store.Queries {
	return s.queries
}

// inTx runs fn in a transaction and commits when fn succeeds.
func (s *Service) inTx(ctx context.Context, fn func(q *store.Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(s.queries.WithTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, ev lifecycle.Event) {
	s.bus.Publish(ctx, ev)
}

// Permalink builds the public URL of a post: {siteURL}/{yyyy}/{mm}/{slug}/.
func Permalink(siteURL, slug string, date time.Time) string {
	return fmt.Sprintf("%s/%04d/%02d/%s/",
		strings.TrimRight(siteURL, "/"), date.Year(), int(date.Month()), slug)
}

func notFound(err error, what string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("getting %s %d: %w", what, id, err)
}
