// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package post

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/olegiv/post-connector/internal/content"
	"github.com/olegiv/post-connector/internal/store"
)

// View is the denormalized post returned by Get.
type View struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Status        string   `json:"status"`
	Author        string   `json:"author"`
	Categories    []string `json:"categories"`
	Tags          []string `json:"tags"`
	FeaturedImage *string  `json:"featured_image"`
	Date          string   `json:"date"`
	ModifiedDate  string   `json:"modified_date"`
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// RenderContent renders stored content as Markdown with inline HTML kept,
// then sanitizes the result.
func RenderContent(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering content: %w", err)
	}
	return contentPolicy.Sanitize(buf.String()), nil
}

// Get returns the post id unless it is missing or trashed.
func (s *Service) Get(ctx context.Context, id int64) (View, error) {
	if id <= 0 {
		return View{}, badRequest(CodePostIDRequired)
	}

	p, err := s.queries.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return View{}, notFound()
		}
		return View{}, internal(CodeFailedToRead, err)
	}
	if p.Status == content.StatusTrash {
		return View{}, notFound()
	}

	view, err := s.buildView(ctx, p)
	if err != nil {
		return View{}, internal(CodeFailedToRead, err)
	}
	return view, nil
}

func (s *Service) buildView(ctx context.Context, p store.Post) (View, error) {
	rendered, err := RenderContent(p.Content)
	if err != nil {
		return View{}, err
	}

	view := View{
		ID:           p.ID,
		Title:        p.Title,
		Content:      rendered,
		Status:       p.Status,
		Categories:   []string{},
		Tags:         []string{},
		Date:         p.PostDate.In(s.location).Format(DateLayout),
		ModifiedDate: p.UpdatedAt.In(s.location).Format(DateLayout),
	}

	author, err := s.queries.GetUser(ctx, p.AuthorID)
	switch {
	case err == nil:
		view.Author = author.DisplayName
	case !errors.Is(err, sql.ErrNoRows):
		return View{}, fmt.Errorf("getting author: %w", err)
	}

	cats, err := s.queries.ListPostCategories(ctx, p.ID)
	if err != nil {
		return View{}, fmt.Errorf("listing categories: %w", err)
	}
	for _, c := range cats {
		view.Categories = append(view.Categories, c.Name)
	}

	tags, err := s.queries.ListPostTags(ctx, p.ID)
	if err != nil {
		return View{}, fmt.Errorf("listing tags: %w", err)
	}
	for _, t := range tags {
		view.Tags = append(view.Tags, t.Name)
	}

	if p.FeaturedMediaID.Valid {
		m, err := s.queries.GetMedia(ctx, p.FeaturedMediaID.Int64)
		switch {
		case err == nil:
			view.FeaturedImage = &m.Url
		case !errors.Is(err, sql.ErrNoRows):
			return View{}, fmt.Errorf("getting featured media: %w", err)
		}
	}

	return view, nil
}
