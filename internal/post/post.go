// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package post implements the connector's post operations: validated
// create and update, read and delete.
package post

import (
	"context"
	"log/slog"
	"time"

	"github.com/olegiv/post-connector/internal/content"
	"github.com/olegiv/post-connector/internal/media"
	"github.com/olegiv/post-connector/internal/store"
)

// ContentWriter is the subset of content.Service used by post operations.
type ContentWriter interface {
	CreatePost(ctx context.Context, in content.PostInput) (store.Post, error)
	UpdatePost(ctx context.Context, id int64, in content.PostInput) (store.Post, error)
	TrashPost(ctx context.Context, id int64) (store.Post, error)
	DeletePost(ctx context.Context, id int64) error
	SetFeaturedMedia(ctx context.Context, postID, mediaID int64) error
	TitleExists(ctx context.Context, title, postType string) (bool, error)
}

// Images downloads remote images and stores them in the media library.
type Images interface {
	Fetch(ctx context.Context, rawURL string) (*media.Download, error)
	Save(ctx context.Context, dl *media.Download, uploadedBy int64) (store.Media, error)
}

// Defaults supplies configured defaults for new posts.
type Defaults interface {
	DefaultAuthor(ctx context.Context) int64
	DefaultCategory(ctx context.Context) int64
	DefaultPostType(ctx context.Context) string
}

// Service runs post operations against the content services.
type Service struct {
	queries  *store.Queries
	writer   ContentWriter
	images   Images
	defaults Defaults
	siteURL  string
	location *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

// Config holds Service dependencies.
type Config struct {
	Queries  *store.Queries
	Writer   ContentWriter
	Images   Images
	Defaults Defaults
	SiteURL  string
	// Location interprets dates sent without a zone. Defaults to UTC.
	Location *time.Location
	Logger   *slog.Logger
}

// NewService creates a post service.
func NewService(cfg Config) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		queries:  cfg.Queries,
		writer:   cfg.Writer,
		images:   cfg.Images,
		defaults: cfg.Defaults,
		siteURL:  cfg.SiteURL,
		location: loc,
		logger:   cfg.Logger,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// Permalink returns the public URL of p.
func (s *Service) Permalink(p store.Post) string {
	return content.Permalink(s.siteURL, p.Slug, p.PostDate)
}
