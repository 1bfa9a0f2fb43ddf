// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"fmt"

	"github.com/olegiv/post-connector/internal/lifecycle"
)

// DateLayout is the wire format of post dates in payloads.
const DateLayout = "2006-01-02 15:04:05"

// Webhook actions.
const (
	ActionCreated         = "created"
	ActionUpdated         = "updated"
	ActionDeleted         = "deleted"
	ActionTrashed         = "trashed"
	ActionRestored        = "restored"
	ActionCategoryCreated = "category_created"
	ActionCategoryUpdated = "category_updated"
	ActionCategoryDeleted = "category_deleted"
	ActionTagCreated      = "tag_created"
	ActionTagUpdated      = "tag_updated"
	ActionTagDeleted      = "tag_deleted"
	ActionAuthorCreated   = "author_registered"
	ActionAuthorUpdated   = "author_updated"
	ActionAuthorDeleted   = "author_deleted"
)

// SavePayload is sent when a post is created or updated.
type SavePayload struct {
	PostID int64    `json:"post_id"`
	Action string   `json:"action"`
	Domain string   `json:"domain"`
	Post   PostData `json:"post"`
}

// PostData is the post body of a SavePayload.
type PostData struct {
	Title      string           `json:"title"`
	Content    string           `json:"content"`
	Status     string           `json:"status"`
	Author     string           `json:"author"`
	Date       string           `json:"date"`
	Modified   string           `json:"modified"`
	Permalink  string           `json:"permalink"`
	Categories []int64          `json:"categories"`
	Tags       []lifecycle.Term `json:"tags"`
}

// StatusPayload is sent when a post is deleted, trashed or restored.
type StatusPayload struct {
	PostID int64  `json:"post_id"`
	Title  string `json:"title"`
	Status string `json:"status"`
	Action string `json:"action"`
	Domain string `json:"domain"`
}

// CategoryPayload is sent when a category is created or updated.
type CategoryPayload struct {
	Action   string         `json:"action"`
	Domain   string         `json:"domain"`
	Category lifecycle.Term `json:"category"`
}

// CategoryDeletedPayload is sent when a category is deleted.
type CategoryDeletedPayload struct {
	Action     string `json:"action"`
	Domain     string `json:"domain"`
	CategoryID int64  `json:"category_id"`
}

// TagPayload is sent when a tag is created or updated.
type TagPayload struct {
	Action string         `json:"action"`
	Domain string         `json:"domain"`
	Tag    lifecycle.Term `json:"tag"`
}

// TagDeletedPayload is sent when a tag is deleted.
type TagDeletedPayload struct {
	Action string `json:"action"`
	Domain string `json:"domain"`
	TagID  int64  `json:"tag_id"`
}

// AuthorPayload is sent when a posting user is registered or updated.
type AuthorPayload struct {
	Action string     `json:"action"`
	Domain string     `json:"domain"`
	Author AuthorData `json:"author"`
}

// AuthorData is the author body of an AuthorPayload.
type AuthorData struct {
	ID    int64    `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  []string `json:"role"`
}

// AuthorDeletedPayload is sent when a posting user is deleted.
type AuthorDeletedPayload struct {
	Action   string `json:"action"`
	Domain   string `json:"domain"`
	AuthorID int64  `json:"author_id"`
}

// BuildPayload returns the action name and payload for ev.
// permalink is only used for post save events.
func BuildPayload(domain string, ev lifecycle.Event, permalink func(*lifecycle.Post) string) (string, any, error) {
	switch ev.Kind {
	case lifecycle.PostSaved:
		if ev.Post == nil {
			return "", nil, fmt.Errorf("%s event without post", ev.Kind)
		}
		action := ActionCreated
		if ev.Update {
			action = ActionUpdated
		}
		return action, savePayload(domain, action, ev.Post, permalink), nil

	case lifecycle.PostDeleted, lifecycle.PostTrashed, lifecycle.PostRestored:
		if ev.Post == nil {
			return "", nil, fmt.Errorf("%s event without post", ev.Kind)
		}
		action := map[lifecycle.Kind]string{
			lifecycle.PostDeleted:  ActionDeleted,
			lifecycle.PostTrashed:  ActionTrashed,
			lifecycle.PostRestored: ActionRestored,
		}[ev.Kind]
		return action, StatusPayload{
			PostID: ev.Post.ID,
			Title:  ev.Post.Title,
			Status: action,
			Action: action,
			Domain: domain,
		}, nil

	case lifecycle.CategorySaved, lifecycle.CategoryGone, lifecycle.TagSaved, lifecycle.TagGone:
		if ev.Term == nil {
			return "", nil, fmt.Errorf("%s event without term", ev.Kind)
		}
		return termPayload(domain, ev)

	case lifecycle.UserSaved, lifecycle.UserDeleted:
		if ev.User == nil {
			return "", nil, fmt.Errorf("%s event without user", ev.Kind)
		}
		if ev.Kind == lifecycle.UserDeleted {
			return ActionAuthorDeleted, AuthorDeletedPayload{
				Action:   ActionAuthorDeleted,
				Domain:   domain,
				AuthorID: ev.User.ID,
			}, nil
		}
		action := ActionAuthorCreated
		if ev.Update {
			action = ActionAuthorUpdated
		}
		return action, AuthorPayload{
			Action: action,
			Domain: domain,
			Author: AuthorData{
				ID:    ev.User.ID,
				Name:  ev.User.DisplayName,
				Email: ev.User.Email,
				Role:  []string{ev.User.Role},
			},
		}, nil
	}

	return "", nil, fmt.Errorf("unsupported event kind %q", ev.Kind)
}

func savePayload(domain, action string, p *lifecycle.Post, permalink func(*lifecycle.Post) string) SavePayload {
	categories := p.Categories
	if categories == nil {
		categories = []int64{}
	}
	tags := p.Tags
	if tags == nil {
		tags = []lifecycle.Term{}
	}

	data := PostData{
		Title:      p.Title,
		Content:    p.Content,
		Status:     p.Status,
		Author:     p.AuthorName,
		Date:       p.Date.Format(DateLayout),
		Modified:   p.Modified.Format(DateLayout),
		Categories: categories,
		Tags:       tags,
	}
	if permalink != nil {
		data.Permalink = permalink(p)
	}

	return SavePayload{PostID: p.ID, Action: action, Domain: domain, Post: data}
}

func termPayload(domain string, ev lifecycle.Event) (string, any, error) {
	t := *ev.Term
	switch ev.Kind {
	case lifecycle.CategorySaved:
		action := ActionCategoryCreated
		if ev.Update {
			action = ActionCategoryUpdated
		}
		return action, CategoryPayload{Action: action, Domain: domain, Category: t}, nil
	case lifecycle.CategoryGone:
		return ActionCategoryDeleted, CategoryDeletedPayload{
			Action: ActionCategoryDeleted, Domain: domain, CategoryID: t.ID,
		}, nil
	case lifecycle.TagSaved:
		action := ActionTagCreated
		if ev.Update {
			action = ActionTagUpdated
		}
		return action, TagPayload{Action: action, Domain: domain, Tag: t}, nil
	default:
		return ActionTagDeleted, TagDeletedPayload{
			Action: ActionTagDeleted, Domain: domain, TagID: t.ID,
		}, nil
	}
}
