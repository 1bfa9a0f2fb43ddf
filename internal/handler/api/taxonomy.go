// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/olegiv/post-connector/internal/post"
)

// TermItem is a category, tag or author in list responses.
type TermItem struct {
	Name     string `json:"name"`
	ID       int64  `json:"id"`
	NumPosts int64  `json:"num_posts"`
}

// IndexedList encodes as a JSON object keyed by 1-based position, in order:
// {"1": {...}, "2": {...}}.
type IndexedList []TermItem

// MarshalJSON implements json.Marshaler.
func (l IndexedList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, item := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(i + 1)))
		buf.WriteByte(':')
		b, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ListCategories handles GET /categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	rows, err := h.queries.ListCategoriesWithPostCount(r.Context())
	if err != nil {
		h.writeError(w, r, err, post.CodeGenericError)
		return
	}

	items := make(IndexedList, 0, len(rows))
	for _, row := range rows {
		items = append(items, TermItem{Name: row.Name, ID: row.ID, NumPosts: row.PostCount})
	}
	writeSuccess(w, post.CodeCategoriesRetrieved, map[string]IndexedList{"categories": items})
}

// ListTags handles GET /tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	rows, err := h.queries.ListTagsWithPostCount(r.Context())
	if err != nil {
		h.writeError(w, r, err, post.CodeGenericError)
		return
	}

	items := make(IndexedList, 0, len(rows))
	for _, row := range rows {
		items = append(items, TermItem{Name: row.Name, ID: row.ID, NumPosts: row.PostCount})
	}
	writeSuccess(w, post.CodeTagsRetrieved, map[string]IndexedList{"tags": items})
}

// ListAuthors handles GET /authors. Only users who can write posts are listed.
func (h *Handler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	rows, err := h.queries.ListAuthorsWithPostCount(r.Context())
	if err != nil {
		h.writeError(w, r, err, post.CodeGenericError)
		return
	}

	items := make(IndexedList, 0, len(rows))
	for _, row := range rows {
		items = append(items, TermItem{Name: row.DisplayName, ID: row.ID, NumPosts: row.PostCount})
	}
	writeSuccess(w, post.CodeAuthorsRetrieved, map[string]IndexedList{"authors": items})
}
