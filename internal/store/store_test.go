// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

// testDB creates a temporary migrated and seeded test database.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "store-test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := Seed(context.Background(), db); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	return db
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func TestDSN(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"data.db", "data.db?_pragma="},
		{"file:data.db?mode=rwc", "file:data.db?mode=rwc&_pragma="},
	}

	for _, tt := range tests {
		got := dsn(tt.path)
		if len(got) < len(tt.want) || got[:len(tt.want)] != tt.want {
			t.Errorf("dsn(%q) = %q, want prefix %q", tt.path, got, tt.want)
		}
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := Seed(ctx, db); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	q := New(db)
	count, err := q.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if count != 1 {
		t.Errorf("users = %d, want 1", count)
	}

	cat, err := q.GetCategory(ctx, 1)
	if err != nil {
		t.Fatalf("GetCategory(1): %v", err)
	}
	if cat.Slug != DefaultCategorySlug {
		t.Errorf("category slug = %q, want %q", cat.Slug, DefaultCategorySlug)
	}
}

func TestPostLifecycle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)
	ts := now()

	post, err := q.CreatePost(ctx, CreatePostParams{
		Type:      "post",
		Title:     "Hello",
		Slug:      "hello",
		Content:   "<p>Body</p>",
		Status:    "draft",
		AuthorID:  1,
		PostDate:  ts,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if post.ID == 0 || post.Title != "Hello" || post.Status != "draft" {
		t.Fatalf("unexpected post: %+v", post)
	}
	if !post.PostDate.Equal(ts) {
		t.Errorf("PostDate = %v, want %v", post.PostDate, ts)
	}

	if err := q.AddPostCategory(ctx, AddPostCategoryParams{PostID: post.ID, CategoryID: 1}); err != nil {
		t.Fatalf("AddPostCategory: %v", err)
	}
	cats, err := q.ListPostCategories(ctx, post.ID)
	if err != nil {
		t.Fatalf("ListPostCategories: %v", err)
	}
	if len(cats) != 1 || cats[0].ID != 1 {
		t.Errorf("categories = %+v, want [1]", cats)
	}

	count, err := q.CountPostsByTitle(ctx, CountPostsByTitleParams{Title: "Hello", Type: "post"})
	if err != nil {
		t.Fatalf("CountPostsByTitle: %v", err)
	}
	if count != 1 {
		t.Errorf("CountPostsByTitle = %d, want 1", count)
	}

	trashed, err := q.UpdatePostStatus(ctx, UpdatePostStatusParams{
		Status: "trash", TrashedStatus: "draft", UpdatedAt: ts, ID: post.ID,
	})
	if err != nil {
		t.Fatalf("UpdatePostStatus: %v", err)
	}
	if trashed.Status != "trash" || trashed.TrashedStatus != "draft" {
		t.Errorf("trashed = %+v", trashed)
	}

	count, _ = q.CountPostsByTitle(ctx, CountPostsByTitleParams{Title: "Hello", Type: "post"})
	if count != 0 {
		t.Errorf("CountPostsByTitle after trash = %d, want 0", count)
	}

	if err := q.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if _, err := q.GetPost(ctx, post.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetPost after delete: err = %v, want sql.ErrNoRows", err)
	}
	cats, _ = q.ListPostCategories(ctx, post.ID)
	if len(cats) != 0 {
		t.Errorf("category links survived delete: %+v", cats)
	}
}

func TestListScheduledPostsDue(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)
	ts := now()

	for _, tc := range []struct {
		title string
		date  time.Time
	}{
		{"past", ts.Add(-time.Hour)},
		{"future", ts.Add(time.Hour)},
	} {
		if _, err := q.CreatePost(ctx, CreatePostParams{
			Type: "post", Title: tc.title, Slug: tc.title, Status: "future",
			AuthorID: 1, PostDate: tc.date, CreatedAt: ts, UpdatedAt: ts,
		}); err != nil {
			t.Fatalf("CreatePost(%s): %v", tc.title, err)
		}
	}

	due, err := q.ListScheduledPostsDue(ctx, ts)
	if err != nil {
		t.Fatalf("ListScheduledPostsDue: %v", err)
	}
	if len(due) != 1 || due[0].Title != "past" {
		t.Errorf("due = %+v, want only %q", due, "past")
	}
}

func TestTermCounts(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)
	ts := now()

	tag, err := q.CreateTag(ctx, CreateTagParams{Name: "Go", Slug: "go", CreatedAt: ts, UpdatedAt: ts})
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	post, err := q.CreatePost(ctx, CreatePostParams{
		Type: "post", Title: "T", Slug: "t", Status: "publish",
		AuthorID: 1, PostDate: ts, CreatedAt: ts, UpdatedAt: ts,
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if err := q.AddPostTag(ctx, AddPostTagParams{PostID: post.ID, TagID: tag.ID}); err != nil {
		t.Fatalf("AddPostTag: %v", err)
	}

	byName, err := q.GetTagByName(ctx, "go")
	if err != nil {
		t.Fatalf("GetTagByName: %v", err)
	}
	if byName.ID != tag.ID {
		t.Errorf("GetTagByName ID = %d, want %d", byName.ID, tag.ID)
	}

	rows, err := q.ListTagsWithPostCount(ctx)
	if err != nil {
		t.Fatalf("ListTagsWithPostCount: %v", err)
	}
	if len(rows) != 1 || rows[0].PostCount != 1 {
		t.Errorf("tag counts = %+v", rows)
	}

	authors, err := q.ListAuthorsWithPostCount(ctx)
	if err != nil {
		t.Fatalf("ListAuthorsWithPostCount: %v", err)
	}
	if len(authors) != 1 || authors[0].PostCount != 1 {
		t.Errorf("authors = %+v", authors)
	}
}

func TestOptions(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	if _, err := q.GetOption(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetOption(missing) err = %v, want sql.ErrNoRows", err)
	}

	for _, v := range []string{"one", "two"} {
		if err := q.UpsertOption(ctx, UpsertOptionParams{Name: "k", Value: v, UpdatedAt: now()}); err != nil {
			t.Fatalf("UpsertOption: %v", err)
		}
	}
	got, err := q.GetOption(ctx, "k")
	if err != nil {
		t.Fatalf("GetOption: %v", err)
	}
	if got != "two" {
		t.Errorf("GetOption = %q, want %q", got, "two")
	}

	if err := q.DeleteOption(ctx, "k"); err != nil {
		t.Fatalf("DeleteOption: %v", err)
	}
	if _, err := q.GetOption(ctx, "k"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetOption after delete err = %v, want sql.ErrNoRows", err)
	}
}
