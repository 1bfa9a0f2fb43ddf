// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package lifecycle carries content lifecycle events from the content
// services to their listeners.
package lifecycle

import (
	"context"
	"time"
)

// Kind identifies what happened.
type Kind string

// Event kinds.
const (
	PostSaved     Kind = "post.saved"
	PostTrashed   Kind = "post.trashed"
	PostRestored  Kind = "post.restored"
	PostDeleted   Kind = "post.deleted"
	CategorySaved Kind = "category.saved"
	CategoryGone  Kind = "category.deleted"
	TagSaved      Kind = "tag.saved"
	TagGone       Kind = "tag.deleted"
	UserSaved     Kind = "user.saved"
	UserDeleted   Kind = "user.deleted"
)

// Origin identifies what caused an event.
type Origin string

// Event origins.
const (
	OriginAdmin    Origin = "admin"
	OriginAPI      Origin = "api"
	OriginCron     Origin = "cron"
	OriginAutosave Origin = "autosave"
	OriginRevision Origin = "revision"
	OriginImport   Origin = "import"
)

// Post is a snapshot of a post taken when the event was raised.
type Post struct {
	ID         int64
	Type       string
	Title      string
	Content    string
	Status     string
	Slug       string
	AuthorID   int64
	AuthorName string
	Date       time.Time
	Modified   time.Time
	Categories []int64
	Tags       []Term
	Provenance bool
}

// Term is a category or tag snapshot.
type Term struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// User is a user snapshot.
type User struct {
	ID          int64
	DisplayName string
	Email       string
	Role        string
}

// Event is a single lifecycle event. Which snapshot is set depends on Kind:
// Post for post kinds, Term for category and tag kinds, User for user kinds.
type Event struct {
	Kind   Kind
	Origin Origin
	// Update is true when a saved entity already existed.
	Update bool
	Post   *Post
	Term   *Term
	User   *User
}

type ctxKey int

const (
	originKey ctxKey = iota
	bearerKey
)

// WithOrigin marks ctx as originating from o.
func WithOrigin(ctx context.Context, o Origin) context.Context {
	return context.WithValue(ctx, originKey, o)
}

// OriginFrom returns the origin stored in ctx, OriginAdmin if none.
func OriginFrom(ctx context.Context) Origin {
	if o, ok := ctx.Value(originKey).(Origin); ok && o != "" {
		return o
	}
	return OriginAdmin
}

// WithBearerToken stores the bearer token presented on the request that
// produced ctx.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey, token)
}

// BearerToken returns the bearer token stored in ctx, if any.
func BearerToken(ctx context.Context) string {
	token, _ := ctx.Value(bearerKey).(string)
	return token
}
