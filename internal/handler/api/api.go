// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the connector REST API handlers.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/post-connector/internal/middleware"
	"github.com/olegiv/post-connector/internal/post"
	"github.com/olegiv/post-connector/internal/store"
	"github.com/olegiv/post-connector/internal/version"
)

// ReleaseSource reports the latest published release.
type ReleaseSource interface {
	Latest(ctx context.Context) (string, bool)
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	queries *store.Queries
	posts   *post.Service
	release ReleaseSource
	build   version.Info
	logger  *slog.Logger
}

// Config holds Handler dependencies.
type Config struct {
	Queries *store.Queries
	Posts   *post.Service
	Release ReleaseSource
	Build   version.Info
	Logger  *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{
		queries: cfg.Queries,
		posts:   cfg.Posts,
		release: cfg.Release,
		build:   cfg.Build,
		logger:  cfg.Logger,
	}
}

// Routes registers the API endpoints on r. Authentication is applied by the
// caller.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/create-post", h.CreatePost)
	r.Post("/update-post", h.UpdatePost)
	r.Put("/update-post", h.UpdatePost)
	r.Delete("/delete-post", h.DeletePost)
	r.Get("/get-post", h.GetPost)

	r.Get("/categories", h.ListCategories)
	r.Get("/get-categories", h.ListCategories)
	r.Get("/tags", h.ListTags)
	r.Get("/authors", h.ListAuthors)
	r.Get("/get-authors", h.ListAuthors)

	r.Get("/status", h.Status)
}

// writeSuccess writes a 200 envelope with the message for code.
func writeSuccess(w http.ResponseWriter, code string, data any) {
	middleware.WriteEnvelope(w, http.StatusOK, post.Message(code), data)
}

// writeError writes an error envelope for err. Errors that are not a
// *post.Error are reported as a 500 with the fallback code.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	pe := post.AsError(err, fallback)
	if pe.Status >= http.StatusInternalServerError {
		h.logger.Error("api request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"code", pe.Code,
			"error", err,
		)
	}
	middleware.WriteEnvelope(w, pe.Status, pe.Message(), middleware.ErrorData{Code: pe.Code})
}
