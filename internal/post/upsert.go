// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package post

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/post-connector/internal/content"
	"github.com/olegiv/post-connector/internal/media"
	"github.com/olegiv/post-connector/internal/store"
)

// Result is returned by a successful Upsert.
type Result struct {
	PostID int64  `json:"post_id"`
	URL    string `json:"post_url"`
}

var contentPolicy = bluemonday.UGCPolicy()

var allowedStatuses = map[string]bool{
	content.StatusPublish: true,
	content.StatusFuture:  true,
	content.StatusDraft:   true,
}

// Upsert validates f and creates a post, or updates the post f.ID when
// isUpdate is set. Validation failures are returned as *Error.
func (s *Service) Upsert(ctx context.Context, f Fields, isUpdate bool) (Result, error) {
	failCode := CodeFailedToCreate
	if isUpdate {
		failCode = CodeFailedToUpdate
	}

	var existing store.Post
	if isUpdate {
		if f.ID <= 0 {
			return Result{}, badRequest(CodePostIDRequired)
		}
		p, err := s.queries.GetPost(ctx, f.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return Result{}, notFound()
			}
			return Result{}, internal(failCode, err)
		}
		if p.Status == content.StatusTrash {
			return Result{}, notFound()
		}
		existing = p
	}

	if f.Status != "" && !allowedStatuses[f.Status] {
		return Result{}, badRequest(CodeInvalidStatus)
	}

	var date time.Time
	if f.Date != "" {
		d, err := ParseDate(f.Date, s.location)
		if err != nil {
			return Result{}, badRequest(CodeInvalidDate)
		}
		date = d
	}

	// An update without a status keeps the stored one, and the date rules
	// apply to that status as well.
	status := f.Status
	if status == "" && isUpdate {
		status = existing.Status
	}

	now := s.now()
	switch status {
	case content.StatusFuture:
		if date.IsZero() {
			if f.Status != "" {
				return Result{}, badRequest(CodeDateRequired)
			}
			// Inherited schedule.
			date = existing.PostDate
		}
		if !date.After(now) {
			return Result{}, badRequest(CodeDateMustBeFuture)
		}
	case content.StatusPublish:
		if !date.IsZero() && date.After(now) {
			return Result{}, badRequest(CodeDateMustBePast)
		}
	}

	postType := s.defaults.DefaultPostType(ctx)
	if !isUpdate && f.Title != "" {
		exists, err := s.writer.TitleExists(ctx, f.Title, postType)
		if err != nil {
			return Result{}, internal(failCode, err)
		}
		if exists {
			return Result{}, badRequest(CodeTitleExists)
		}
	}

	authorID := f.Author
	if authorID == 0 {
		if isUpdate {
			authorID = existing.AuthorID
		} else {
			authorID = s.defaults.DefaultAuthor(ctx)
		}
	}
	if _, err := s.queries.GetUser(ctx, authorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Result{}, badRequest(CodeInvalidAuthor)
		}
		return Result{}, internal(failCode, err)
	}

	var image *media.Download
	if f.FeaturedImage != "" {
		dl, err := s.images.Fetch(ctx, f.FeaturedImage)
		if err != nil {
			s.logger.Warn("featured image download failed", "url", f.FeaturedImage, "error", err)
			return Result{}, badRequest(CodeImageDownloadFailed)
		}
		image = dl
	}

	in := s.buildInput(ctx, f, existing, isUpdate, authorID, postType, date, now)

	var (
		saved store.Post
		err   error
	)
	if isUpdate {
		saved, err = s.writer.UpdatePost(ctx, existing.ID, in)
	} else {
		saved, err = s.writer.CreatePost(ctx, in)
	}
	if err != nil {
		s.logger.Error("post write failed", "update", isUpdate, "post_id", f.ID, "error", err)
		return Result{}, internal(failCode, err)
	}

	if image != nil {
		s.attachImage(ctx, saved.ID, authorID, image)
	}

	return Result{PostID: saved.ID, URL: s.Permalink(saved)}, nil
}

func (s *Service) buildInput(ctx context.Context, f Fields, existing store.Post, isUpdate bool, authorID int64, postType string, date, now time.Time) content.PostInput {
	in := content.PostInput{
		Type:       postType,
		Title:      f.Title,
		Content:    contentPolicy.Sanitize(f.Content),
		Status:     f.Status,
		AuthorID:   authorID,
		Categories: f.Categories,
		Tags:       f.Tags,
	}

	if isUpdate {
		in.Type = existing.Type
		if f.Title == "" {
			in.Title = existing.Title
		}
		if f.Content == "" {
			in.Content = existing.Content
		}
		if f.Status == "" {
			in.Status = existing.Status
		}
		in.Meta = map[string]string{content.MetaUpdatedByPlugin: "1"}
	} else {
		if in.Status == "" {
			in.Status = content.StatusDraft
		}
		if len(in.Categories) == 0 {
			in.Categories = []int64{s.defaults.DefaultCategory(ctx)}
		}
		in.Meta = map[string]string{content.MetaAddedByPlugin: "1"}
	}

	switch {
	case in.Status == content.StatusFuture && !date.IsZero():
		in.Date = date
	case in.Status == content.StatusFuture && isUpdate:
		in.Date = existing.PostDate
	case in.Status == content.StatusPublish && !date.IsZero() && !date.After(now):
		in.Date = date
	default:
		in.Date = now
	}

	return in
}

// attachImage stores an already downloaded image and makes it the post's
// featured image. Failures are logged; the post write stands.
func (s *Service) attachImage(ctx context.Context, postID, uploadedBy int64, dl *media.Download) {
	m, err := s.images.Save(ctx, dl, uploadedBy)
	if err != nil {
		s.logger.Error("failed to store featured image", "post_id", postID, "url", dl.SourceURL, "error", err)
		return
	}
	if err := s.writer.SetFeaturedMedia(ctx, postID, m.ID); err != nil {
		s.logger.Error("failed to set featured image", "post_id", postID, "media_id", m.ID, "error", err)
		return
	}
	s.logger.Info("featured image attached", "post_id", postID, "media_id", m.ID)
}
