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
	"github.com/olegiv/post-connector/internal/util"
)

// PostInput holds the values written by CreatePost and UpdatePost.
type PostInput struct {
	Type     string
	Title    string
	Content  string
	Status   string
	AuthorID int64
	// Date is the post date. Zero means now on create and unchanged on update.
	Date time.Time
	// Categories and Tags replace the post's terms. Nil leaves them as they are
	// on update. Unknown category IDs are skipped; missing tags are created.
	Categories []int64
	Tags       []string
	Meta       map[string]string
}

// CreatePost inserts a post with its terms and meta in one transaction.
func (s *Service) CreatePost(ctx context.Context, in PostInput) (store.Post, error) {
	now := s.now()
	if in.Type == "" {
		in.Type = PostTypePost
	}
	if in.Status == "" {
		in.Status = StatusDraft
	}
	if in.Date.IsZero() {
		in.Date = now
	}

	var (
		post    store.Post
		newTags []store.Tag
	)
	err := s.inTx(ctx, func(q *store.Queries) error {
		slug, err := uniqueSlug(ctx, in.Title, "post", postSlugTaken(q, in.Type, 0))
		if err != nil {
			return err
		}

		post, err = q.CreatePost(ctx, store.CreatePostParams{
			Type:      in.Type,
			Title:     in.Title,
			Slug:      slug,
			Content:   in.Content,
			Status:    in.Status,
			AuthorID:  in.AuthorID,
			PostDate:  in.Date.UTC().Truncate(time.Second),
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("creating post: %w", err)
		}

		newTags, err = s.writePostTerms(ctx, q, post.ID, in.Categories, in.Tags, now)
		if err != nil {
			return err
		}
		return writePostMeta(ctx, q, post.ID, in.Meta)
	})
	if err != nil {
		return store.Post{}, err
	}

	s.logger.Info("post created", "post_id", post.ID, "status", post.Status, "origin", lifecycle.OriginFrom(ctx))
	s.publishTags(ctx, newTags)
	s.publishPost(ctx, lifecycle.PostSaved, post, false)

	return post, nil
}

// UpdatePost overwrites a post's fields. The slug is regenerated only when
// the title changes.
func (s *Service) UpdatePost(ctx context.Context, id int64, in PostInput) (store.Post, error) {
	now := s.now()

	var (
		post    store.Post
		newTags []store.Tag
	)
	err := s.inTx(ctx, func(q *store.Queries) error {
		existing, err := q.GetPost(ctx, id)
		if err != nil {
			return notFound(err, "post", id)
		}

		slug := existing.Slug
		if in.Title != existing.Title {
			slug, err = uniqueSlug(ctx, in.Title, "post", postSlugTaken(q, existing.Type, id))
			if err != nil {
				return err
			}
		}

		date := existing.PostDate
		if !in.Date.IsZero() {
			date = in.Date.UTC().Truncate(time.Second)
		}

		post, err = q.UpdatePost(ctx, store.UpdatePostParams{
			Title:     in.Title,
			Slug:      slug,
			Content:   in.Content,
			Status:    in.Status,
			AuthorID:  in.AuthorID,
			PostDate:  date,
			UpdatedAt: now,
			ID:        id,
		})
		if err != nil {
			return fmt.Errorf("updating post %d: %w", id, err)
		}

		newTags, err = s.writePostTerms(ctx, q, id, in.Categories, in.Tags, now)
		if err != nil {
			return err
		}
		return writePostMeta(ctx, q, id, in.Meta)
	})
	if err != nil {
		return store.Post{}, err
	}

	s.logger.Info("post updated", "post_id", post.ID, "status", post.Status, "origin", lifecycle.OriginFrom(ctx))
	s.publishTags(ctx, newTags)
	s.publishPost(ctx, lifecycle.PostSaved, post, true)

	return post, nil
}

// TrashPost moves a post to the trash, remembering its previous status.
// Trashing a trashed post is a no-op.
func (s *Service) TrashPost(ctx context.Context, id int64) (store.Post, error) {
	post, err := s.queries.GetPost(ctx, id)
	if err != nil {
		return store.Post{}, notFound(err, "post", id)
	}
	if post.Status == StatusTrash {
		return post, nil
	}

	post, err = s.queries.UpdatePostStatus(ctx, store.UpdatePostStatusParams{
		Status:        StatusTrash,
		TrashedStatus: post.Status,
		UpdatedAt:     s.now(),
		ID:            id,
	})
	if err != nil {
		return store.Post{}, fmt.Errorf("trashing post %d: %w", id, err)
	}

	s.logger.Info("post trashed", "post_id", id)
	s.publishPost(ctx, lifecycle.PostTrashed, post, true)

	return post, nil
}

// RestorePost takes a post out of the trash and gives it back the status it
// had, or draft if that is unknown.
func (s *Service) RestorePost(ctx context.Context, id int64) (store.Post, error) {
	post, err := s.queries.GetPost(ctx, id)
	if err != nil {
		return store.Post{}, notFound(err, "post", id)
	}
	if post.Status != StatusTrash {
		return post, nil
	}

	status := post.TrashedStatus
	if status == "" {
		status = StatusDraft
	}
	post, err = s.queries.UpdatePostStatus(ctx, store.UpdatePostStatusParams{
		Status:    status,
		UpdatedAt: s.now(),
		ID:        id,
	})
	if err != nil {
		return store.Post{}, fmt.Errorf("restoring post %d: %w", id, err)
	}

	s.logger.Info("post restored", "post_id", id, "status", status)
	s.publishPost(ctx, lifecycle.PostRestored, post, true)

	return post, nil
}

// DeletePost removes a post permanently. Listeners receive a snapshot taken
// before the delete.
func (s *Service) DeletePost(ctx context.Context, id int64) error {
	var snap lifecycle.Post
	err := s.inTx(ctx, func(q *store.Queries) error {
		post, err := q.GetPost(ctx, id)
		if err != nil {
			return notFound(err, "post", id)
		}
		snap, err = s.snapshotPost(ctx, q, post)
		if err != nil {
			return err
		}
		if err := q.DeletePost(ctx, id); err != nil {
			return fmt.Errorf("deleting post %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("post deleted", "post_id", id)
	s.publish(ctx, lifecycle.Event{Kind: lifecycle.PostDeleted, Update: true, Post: &snap})

	return nil
}

// PublishScheduled publishes future posts whose date is at or before now.
// It returns the number of posts published.
func (s *Service) PublishScheduled(ctx context.Context, now time.Time) (int, error) {
	due, err := s.queries.ListScheduledPostsDue(ctx, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("listing scheduled posts: %w", err)
	}

	published := 0
	for _, p := range due {
		post, err := s.queries.UpdatePostStatus(ctx, store.UpdatePostStatusParams{
			Status:    StatusPublish,
			UpdatedAt: s.now(),
			ID:        p.ID,
		})
		if err != nil {
			s.logger.Error("failed to publish scheduled post", "post_id", p.ID, "error", err)
			continue
		}
		published++
		s.publishPost(ctx, lifecycle.PostSaved, post, true)
	}

	return published, nil
}

// SetFeaturedMedia links mediaID as the post's featured image.
func (s *Service) SetFeaturedMedia(ctx context.Context, postID, mediaID int64) error {
	err := s.queries.SetPostFeaturedMedia(ctx, store.SetPostFeaturedMediaParams{
		FeaturedMediaID: util.NullInt64Positive(mediaID),
		UpdatedAt:       s.now(),
		ID:              postID,
	})
	if err != nil {
		return fmt.Errorf("setting featured media of post %d: %w", postID, err)
	}
	return nil
}

// TitleExists reports whether a non-trashed post of postType has title.
func (s *Service) TitleExists(ctx context.Context, title, postType string) (bool, error) {
	count, err := s.queries.CountPostsByTitle(ctx, store.CountPostsByTitleParams{Title: title, Type: postType})
	if err != nil {
		return false, fmt.Errorf("counting posts by title: %w", err)
	}
	return count > 0, nil
}

func (s *Service) writePostTerms(ctx context.Context, q *store.Queries, postID int64, categories []int64, tags []string, now time.Time) ([]store.Tag, error) {
	if categories != nil {
		if err := q.ClearPostCategories(ctx, postID); err != nil {
			return nil, fmt.Errorf("clearing categories: %w", err)
		}
		for _, catID := range categories {
			if _, err := q.GetCategory(ctx, catID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					s.logger.Debug("skipping unknown category", "post_id", postID, "category_id", catID)
					continue
				}
				return nil, fmt.Errorf("getting category %d: %w", catID, err)
			}
			if err := q.AddPostCategory(ctx, store.AddPostCategoryParams{PostID: postID, CategoryID: catID}); err != nil {
				return nil, fmt.Errorf("linking category %d: %w", catID, err)
			}
		}
	}

	if tags == nil {
		return nil, nil
	}
	if err := q.ClearPostTags(ctx, postID); err != nil {
		return nil, fmt.Errorf("clearing tags: %w", err)
	}
	var created []store.Tag
	for _, name := range tags {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tag, isNew, err := ensureTag(ctx, q, name, now)
		if err != nil {
			return nil, err
		}
		if isNew {
			created = append(created, tag)
		}
		if err := q.AddPostTag(ctx, store.AddPostTagParams{PostID: postID, TagID: tag.ID}); err != nil {
			return nil, fmt.Errorf("linking tag %q: %w", name, err)
		}
	}
	return created, nil
}

func writePostMeta(ctx context.Context, q *store.Queries, postID int64, meta map[string]string) error {
	for key, value := range meta {
		if err := q.SetPostMeta(ctx, store.SetPostMetaParams{PostID: postID, MetaKey: key, MetaValue: value}); err != nil {
			return fmt.Errorf("setting post meta %s: %w", key, err)
		}
	}
	return nil
}

func postSlugTaken(q *store.Queries, postType string, excludeID int64) func(context.Context, string) (bool, error) {
	return func(ctx context.Context, slug string) (bool, error) {
		n, err := q.CountPostsBySlug(ctx, store.CountPostsBySlugParams{Slug: slug, Type: postType, ExcludeID: excludeID})
		return n > 0, err
	}
}

func (s *Service) publishTags(ctx context.Context, tags []store.Tag) {
	for _, t := range tags {
		term := termFromTag(t)
		s.publish(ctx, lifecycle.Event{Kind: lifecycle.TagSaved, Term: &term})
	}
}

func (s *Service) publishPost(ctx context.Context, kind lifecycle.Kind, post store.Post, update bool) {
	snap, err := s.snapshotPost(ctx, s.queries, post)
	if err != nil {
		s.logger.Error("failed to snapshot post", "post_id", post.ID, "error", err)
		return
	}
	s.publish(ctx, lifecycle.Event{Kind: kind, Update: update, Post: &snap})
}

// snapshotPost collects the post with its author name, terms and provenance.
func (s *Service) snapshotPost(ctx context.Context, q *store.Queries, post store.Post) (lifecycle.Post, error) {
	snap := lifecycle.Post{
		ID:       post.ID,
		Type:     post.Type,
		Title:    post.Title,
		Content:  post.Content,
		Status:   post.Status,
		Slug:     post.Slug,
		AuthorID: post.AuthorID,
		Date:     post.PostDate,
		Modified: post.UpdatedAt,
	}

	author, err := q.GetUser(ctx, post.AuthorID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return snap, fmt.Errorf("getting author %d: %w", post.AuthorID, err)
	}
	snap.AuthorName = author.DisplayName

	cats, err := q.ListPostCategories(ctx, post.ID)
	if err != nil {
		return snap, fmt.Errorf("listing categories of post %d: %w", post.ID, err)
	}
	snap.Categories = make([]int64, 0, len(cats))
	for _, c := range cats {
		snap.Categories = append(snap.Categories, c.ID)
	}

	tags, err := q.ListPostTags(ctx, post.ID)
	if err != nil {
		return snap, fmt.Errorf("listing tags of post %d: %w", post.ID, err)
	}
	snap.Tags = make([]lifecycle.Term, 0, len(tags))
	for _, t := range tags {
		snap.Tags = append(snap.Tags, termFromTag(t))
	}

	marked, err := q.CountPostMetaKeys(ctx, store.CountPostMetaKeysParams{
		PostID: post.ID,
		Key1:   MetaAddedByPlugin,
		Key2:   MetaUpdatedByPlugin,
	})
	if err != nil {
		return snap, fmt.Errorf("reading provenance of post %d: %w", post.ID, err)
	}
	snap.Provenance = marked > 0

	return snap, nil
}
