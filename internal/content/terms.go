// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olegiv/post-connector/internal/lifecycle"
	"github.com/olegiv/post-connector/internal/store"
)

// TermInput holds category or tag fields. An empty Slug is derived from Name.
type TermInput struct {
	Name        string
	Slug        string
	Description string
}

// ErrNameRequired is returned when a term or user lacks its name.
var ErrNameRequired = errors.New("name is required")

func (in TermInput) normalized() (TermInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Name == "" {
		return in, ErrNameRequired
	}
	if in.Slug == "" {
		in.Slug = in.Name
	}
	return in, nil
}

func termFromCategory(c store.Category) lifecycle.Term {
	return lifecycle.Term{ID: c.ID, Name: c.Name, Slug: c.Slug, Description: c.Description}
}

func termFromTag(t store.Tag) lifecycle.Term {
	return lifecycle.Term{ID: t.ID, Name: t.Name, Slug: t.Slug, Description: t.Description}
}

// CreateCategory inserts a category.
func (s *Service) CreateCategory(ctx context.Context, in TermInput) (store.Category, error) {
	in, err := in.normalized()
	if err != nil {
		return store.Category{}, err
	}
	now := s.now()

	slug, err := uniqueSlug(ctx, in.Slug, "category", categorySlugTaken(s.queries, 0))
	if err != nil {
		return store.Category{}, err
	}
	cat, err := s.queries.CreateCategory(ctx, store.CreateCategoryParams{
		Name:        in.Name,
		Slug:        slug,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return store.Category{}, fmt.Errorf("creating category: %w", err)
	}

	term := termFromCategory(cat)
	s.publish(ctx, lifecycle.Event{Kind: lifecycle.CategorySaved, Term: &term})
	return cat, nil
}

// UpdateCategory overwrites a category's fields.
func (s *Service) UpdateCategory(ctx context.Context, id int64, in TermInput) (store.Category, error) {
	in, err := in.normalized()
	if err != nil {
		return store.Category{}, err
	}
	if _, err := s.queries.GetCategory(ctx, id); err != nil {
		return store.Category{}, notFound(err, "category", id)
	}

	slug, err := uniqueSlug(ctx, in.Slug, "category", categorySlugTaken(s.queries, id))
	if err != nil {
		return store.Category{}, err
	}
	cat, err := s.queries.UpdateCategory(ctx, store.UpdateCategoryParams{
		Name:        in.Name,
		Slug:        slug,
		Description: in.Description,
		UpdatedAt:   s.now(),
		ID:          id,
	})
	if err != nil {
		return store.Category{}, fmt.Errorf("updating category %d: %w", id, err)
	}

	term := termFromCategory(cat)
	s.publish(ctx, lifecycle.Event{Kind: lifecycle.CategorySaved, Update: true, Term: &term})
	return cat, nil
}

// DeleteCategory removes a category and its post links.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	cat, err := s.queries.GetCategory(ctx, id)
	if err != nil {
		return notFound(err, "category", id)
	}
	if err := s.queries.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("deleting category %d: %w", id, err)
	}

	term := termFromCategory(cat)
	s.publish(ctx, lifecycle.Event{Kind: lifecycle.CategoryGone, Term: &term})
	return nil
}

// CreateTag inserts a tag.
func (s *Service) CreateTag(ctx context.Context, in TermInput) (store.Tag, error) {
	in, err := in.normalized()
	if err != nil {
		return store.Tag{}, err
	}
	now := s.now()

	slug, err := uniqueSlug(ctx, in.Slug, "tag", tagSlugTaken(s.queries, 0))
	if err != nil {
		return store.Tag{}, err
	}
	tag, err := s.queries.CreateTag(ctx, store.CreateTagParams{
		Name:        in.Name,
		Slug:        slug,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return store.Tag{}, fmt.Errorf("creating tag: %w", err)
	}

	s.publishTags(ctx, []store.Tag{tag})
	return tag, nil
}

// UpdateTag overwrites a tag's fields.
func (s *Service) UpdateTag(ctx context.Context, id int64, in TermInput) (store.Tag, error) {
	in, err := in.normalized()
	if err != nil {
		return store.Tag{}, err
	}
	if _, err := s.queries.GetTag(ctx, id); err != nil {
		return store.Tag{}, notFound(err, "tag", id)
	}

	slug, err := uniqueSlug(ctx, in.Slug, "tag", tagSlugTaken(s.queries, id))
	if err != nil {
		return store.Tag{}, err
	}
	tag, err := s.queries.UpdateTag(ctx, store.UpdateTagParams{
		Name:        in.Name,
		Slug:        slug,
		Description: in.Description,
		UpdatedAt:   s.now(),
		ID:          id,
	})
	if err != nil {
		return store.Tag{}, fmt.Errorf("updating tag %d: %w", id, err)
	}

	term := termFromTag(tag)
	s.publish(ctx, lifecycle.Event{Kind: lifecycle.TagSaved, Update: true, Term: &term})
	return tag, nil
}

// DeleteTag removes a tag and its post links.
func (s *Service) DeleteTag(ctx context.Context, id int64) error {
	tag, err := s.queries.GetTag(ctx, id)
	if err != nil {
		return notFound(err, "tag", id)
	}
	if err := s.queries.DeleteTag(ctx, id); err != nil {
		return fmt.Errorf("deleting tag %d: %w", id, err)
	}

	term := termFromTag(tag)
	s.publish(ctx, lifecycle.Event{Kind: lifecycle.TagGone, Term: &term})
	return nil
}

// ensureTag finds a tag by name, ignoring case, or creates it.
func ensureTag(ctx context.Context, q *store.Queries, name string, now time.Time) (store.Tag, bool, error) {
	tag, err := q.GetTagByName(ctx, name)
	if err == nil {
		return tag, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return store.Tag{}, false, fmt.Errorf("finding tag %q: %w", name, err)
	}

	slug, err := uniqueSlug(ctx, name, "tag", tagSlugTaken(q, 0))
	if err != nil {
		return store.Tag{}, false, err
	}
	tag, err = q.CreateTag(ctx, store.CreateTagParams{
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return store.Tag{}, false, fmt.Errorf("creating tag %q: %w", name, err)
	}
	return tag, true, nil
}

func categorySlugTaken(q *store.Queries, excludeID int64) func(context.Context, string) (bool, error) {
	return func(ctx context.Context, slug string) (bool, error) {
		n, err := q.CountCategoriesBySlug(ctx, store.CountTermsBySlugParams{Slug: slug, ExcludeID: excludeID})
		return n > 0, err
	}
}

func tagSlugTaken(q *store.Queries, excludeID int64) func(context.Context, string) (bool, error) {
	return func(ctx context.Context, slug string) (bool, error) {
		n, err := q.CountTagsBySlug(ctx, store.CountTermsBySlugParams{Slug: slug, ExcludeID: excludeID})
		return n > 0, err
	}
}
