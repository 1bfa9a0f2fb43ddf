// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/olegiv/post-connector/internal/middleware"
	"github.com/olegiv/post-connector/internal/post"
)

// CreatePost handles POST /create-post.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	h.upsert(w, r, false)
}

// UpdatePost handles POST|PUT /update-post.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	h.upsert(w, r, true)
}

func (h *Handler) upsert(w http.ResponseWriter, r *http.Request, isUpdate bool) {
	fallback, success := post.CodeFailedToCreate, post.CodePostCreated
	if isUpdate {
		fallback, success = post.CodeFailedToUpdate, post.CodePostUpdated
	}

	values, ok := h.values(w, r)
	if !ok {
		return
	}

	res, err := h.posts.Upsert(r.Context(), post.DecodeFields(values), isUpdate)
	if err != nil {
		h.writeError(w, r, err, fallback)
		return
	}
	writeSuccess(w, success, res)
}

// GetPost handles GET /get-post?id=.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	values, ok := h.values(w, r)
	if !ok {
		return
	}

	view, err := h.posts.Get(r.Context(), post.ParseID(values[post.ParamID]))
	if err != nil {
		h.writeError(w, r, err, post.CodeFailedToRead)
		return
	}
	writeSuccess(w, post.CodePostRetrieved, view)
}

// DeletePost handles DELETE /delete-post?id=&trash=. trash=true removes the
// post permanently; anything else moves it to the trash.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	values, ok := h.values(w, r)
	if !ok {
		return
	}

	permanently := paramString(values[post.ParamTrash]) == "true"
	code, err := h.posts.Delete(r.Context(), post.ParseID(values[post.ParamID]), permanently)
	if err != nil {
		h.writeError(w, r, err, post.CodeFailedToDelete)
		return
	}
	writeSuccess(w, code, []any{})
}

// values reads request parameters, writing a 400 envelope on failure.
func (h *Handler) values(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	values, err := requestValues(r)
	if err == nil {
		return values, true
	}

	h.logger.Warn("invalid request body", "path", r.URL.Path, "error", err)
	code, message := post.CodeMissingParameters, post.Message(post.CodeMissingParameters)
	if errors.Is(err, errInvalidJSON) {
		code, message = CodeInvalidJSON, "Invalid JSON body."
	}
	middleware.WriteEnvelope(w, http.StatusBadRequest, message, middleware.ErrorData{Code: code})
	return nil, false
}

func paramString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case bool:
		if x {
			return "true"
		}
		return "false"
	case []any:
		if len(x) > 0 {
			return paramString(x[0])
		}
	}
	return ""
}
