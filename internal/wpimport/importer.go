// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package wpimport

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/olegiv/post-connector/internal/content"
	"github.com/olegiv/post-connector/internal/lifecycle"
)

// MetaSourceID records the WordPress post ID on imported posts.
const MetaSourceID = "_wp_import_id"

// Options controls an import run.
type Options struct {
	// SkipExisting skips posts whose title already exists locally.
	SkipExisting bool
	// FallbackAuthor owns posts whose WordPress author was not imported.
	FallbackAuthor int64
	// FallbackCategory is assigned to posts that carry no category.
	FallbackCategory int64
}

// Result holds the results of an import operation.
type Result struct {
	UsersImported      int
	UsersSkipped       int
	CategoriesImported int
	CategoriesSkipped  int
	TagsImported       int
	TagsSkipped        int
	PostsImported      int
	PostsSkipped       int
	Errors             []string
}

// TotalImported returns the total number of items imported.
func (r *Result) TotalImported() int {
	return r.UsersImported + r.CategoriesImported + r.TagsImported + r.PostsImported
}

// HasErrors returns true if there were any errors during import.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Source is the WordPress data read by the importer.
type Source interface {
	Users(ctx context.Context) ([]User, error)
	Terms(ctx context.Context) ([]Term, error)
	Posts(ctx context.Context) ([]Post, error)
	Relationships(ctx context.Context) ([]Relationship, error)
}

// Importer writes WordPress data through the content services.
type Importer struct {
	content *content.Service
	logger  *slog.Logger
}

// NewImporter creates an importer.
func NewImporter(svc *content.Service, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{content: svc, logger: logger}
}

// idMap maps WordPress IDs to local IDs.
type idMap map[int64]int64

// Import copies users, terms and posts in that order. Entries that fail are
// recorded in Result.Errors and the run continues; only read failures abort.
func (im *Importer) Import(ctx context.Context, src Source, opts Options) (*Result, error) {
	if opts.FallbackAuthor == 0 {
		opts.FallbackAuthor = 1
	}
	if opts.FallbackCategory == 0 {
		opts.FallbackCategory = 1
	}
	ctx = lifecycle.WithOrigin(ctx, lifecycle.OriginImport)
	result := &Result{}

	users, err := src.Users(ctx)
	if err != nil {
		return nil, err
	}
	userIDs := im.importUsers(ctx, users, result)

	terms, err := src.Terms(ctx)
	if err != nil {
		return nil, err
	}
	categoryIDs, tagNames := im.importTerms(ctx, terms, result)

	posts, err := src.Posts(ctx)
	if err != nil {
		return nil, err
	}
	rels, err := src.Relationships(ctx)
	if err != nil {
		return nil, err
	}
	im.importPosts(ctx, posts, rels, userIDs, categoryIDs, tagNames, opts, result)

	im.logger.Info("wordpress import finished",
		"users", result.UsersImported,
		"categories", result.CategoriesImported,
		"tags", result.TagsImported,
		"posts", result.PostsImported,
		"errors", len(result.Errors))
	return result, nil
}

func (im *Importer) importUsers(ctx context.Context, users []User, result *Result) idMap {
	q := im.content.Queries()
	ids := make(idMap, len(users))

	for _, u := range users {
		if existing, err := q.GetUserByLogin(ctx, u.Login); err == nil {
			ids[u.ID] = existing.ID
			result.UsersSkipped++
			continue
		} else if !errors.Is(err, sql.ErrNoRows) {
			result.addError("user %q: %v", u.Login, err)
			continue
		}
		if existing, err := q.GetUserByEmail(ctx, u.Email); err == nil {
			ids[u.ID] = existing.ID
			result.UsersSkipped++
			continue
		}

		role := u.Role
		if !content.ValidRole(role) {
			role = content.RoleSubscriber
		}
		created, err := im.content.CreateUser(ctx, content.UserInput{
			Login:       u.Login,
			Email:       u.Email,
			DisplayName: u.DisplayName,
			Role:        role,
		})
		if err != nil {
			result.addError("user %q: %v", u.Login, err)
			continue
		}
		ids[u.ID] = created.ID
		result.UsersImported++
	}
	return ids
}

// importTerms returns local category IDs and tag names keyed by WordPress
// term ID. Tags are attached to posts by name.
func (im *Importer) importTerms(ctx context.Context, terms []Term, result *Result) (idMap, map[int64]string) {
	q := im.content.Queries()
	categories := make(idMap)
	tags := make(map[int64]string)

	for _, t := range terms {
		in := content.TermInput{Name: t.Name, Slug: t.Slug, Description: t.Description}

		switch t.Taxonomy {
		case TaxonomyCategory:
			if existing, err := q.GetCategoryBySlug(ctx, t.Slug); err == nil {
				categories[t.ID] = existing.ID
				result.CategoriesSkipped++
				continue
			}
			created, err := im.content.CreateCategory(ctx, in)
			if err != nil {
				result.addError("category %q: %v", t.Name, err)
				continue
			}
			categories[t.ID] = created.ID
			result.CategoriesImported++

		case TaxonomyTag:
			if existing, err := q.GetTagByName(ctx, t.Name); err == nil {
				tags[t.ID] = existing.Name
				result.TagsSkipped++
				continue
			}
			created, err := im.content.CreateTag(ctx, in)
			if err != nil {
				result.addError("tag %q: %v", t.Name, err)
				continue
			}
			tags[t.ID] = created.Name
			result.TagsImported++
		}
	}
	return categories, tags
}

func (im *Importer) importPosts(ctx context.Context, posts []Post, rels []Relationship, users, categories idMap, tags map[int64]string, opts Options, result *Result) {
	postCategories := make(map[int64][]int64)
	postTags := make(map[int64][]string)
	for _, rel := range rels {
		switch rel.Taxonomy {
		case TaxonomyCategory:
			if id, ok := categories[rel.TermID]; ok {
				postCategories[rel.PostID] = append(postCategories[rel.PostID], id)
			}
		case TaxonomyTag:
			if name, ok := tags[rel.TermID]; ok {
				postTags[rel.PostID] = append(postTags[rel.PostID], name)
			}
		}
	}

	for _, p := range posts {
		if opts.SkipExisting {
			exists, err := im.content.TitleExists(ctx, p.Title, content.PostTypePost)
			if err != nil {
				result.addError("post %d: %v", p.ID, err)
				continue
			}
			if exists {
				result.PostsSkipped++
				continue
			}
		}

		author, ok := users[p.AuthorID]
		if !ok {
			author = opts.FallbackAuthor
		}
		cats := postCategories[p.ID]
		if len(cats) == 0 {
			cats = []int64{opts.FallbackCategory}
		}

		_, err := im.content.CreatePost(ctx, content.PostInput{
			Type:       content.PostTypePost,
			Title:      p.Title,
			Content:    p.Content,
			Status:     p.Status,
			AuthorID:   author,
			Date:       p.Date,
			Categories: cats,
			Tags:       postTags[p.ID],
			Meta:       map[string]string{MetaSourceID: strconv.FormatInt(p.ID, 10)},
		})
		if err != nil {
			result.addError("post %d %q: %v", p.ID, p.Title, err)
			continue
		}
		result.PostsImported++
	}
}
