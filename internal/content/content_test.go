// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/post-connector/internal/lifecycle"
	"github.com/olegiv/post-connector/internal/store"
	"github.com/olegiv/post-connector/internal/testutil"
)

type recorder struct {
	events []lifecycle.Event
}

func (r *recorder) listen(_ context.Context, ev lifecycle.Event) error {
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) kinds() []lifecycle.Kind {
	kinds := make([]lifecycle.Kind, 0, len(r.events))
	for _, ev := range r.events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

func (r *recorder) last() lifecycle.Event {
	return r.events[len(r.events)-1]
}

func newTestService(t *testing.T) (*Service, *recorder, *sql.DB) {
	t.Helper()

	db := testutil.TestDB(t)
	logger := testutil.DiscardLogger()
	bus := lifecycle.NewBus(logger)
	rec := &recorder{}
	bus.Subscribe(lifecycle.Listener{Name: "recorder", Fn: rec.listen})

	return NewService(db, bus, logger), rec, db
}

func TestCreatePostDefaultsAndTerms(t *testing.T) {
	svc, rec, _ := newTestService(t)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, PostInput{
		Title:      "Hello World",
		Content:    "<p>Body</p>",
		AuthorID:   1,
		Categories: []int64{1, 999},
		Tags:       []string{" Go ", "", "news"},
		Meta:       map[string]string{MetaAddedByPlugin: "1"},
	})
	require.NoError(t, err)

	assert.Equal(t, PostTypePost, post.Type)
	assert.Equal(t, StatusDraft, post.Status)
	assert.Equal(t, "hello-world", post.Slug)
	assert.False(t, post.PostDate.IsZero())

	assert.Equal(t, []lifecycle.Kind{lifecycle.TagSaved, lifecycle.TagSaved, lifecycle.PostSaved}, rec.kinds())

	saved := rec.last()
	require.NotNil(t, saved.Post)
	assert.False(t, saved.Update)
	assert.True(t, saved.Post.Provenance)
	assert.Equal(t, []int64{1}, saved.Post.Categories)
	assert.Equal(t, store.DefaultAdminName, saved.Post.AuthorName)
	require.Len(t, saved.Post.Tags, 2)
	assert.Equal(t, "Go", saved.Post.Tags[0].Name)
}

func TestCreatePostUniqueSlug(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreatePost(ctx, PostInput{Title: "Same", AuthorID: 1})
	require.NoError(t, err)
	second, err := svc.CreatePost(ctx, PostInput{Title: "Same", AuthorID: 1})
	require.NoError(t, err)
	third, err := svc.CreatePost(ctx, PostInput{Title: "!!!", AuthorID: 1})
	require.NoError(t, err)

	assert.Equal(t, "same", first.Slug)
	assert.Equal(t, "same-2", second.Slug)
	assert.Equal(t, "post", third.Slug)
}

func TestCreatePostReusesTagIgnoringCase(t *testing.T) {
	svc, rec, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateTag(ctx, TermInput{Name: "Golang"})
	require.NoError(t, err)
	rec.events = nil

	_, err = svc.CreatePost(ctx, PostInput{Title: "T", AuthorID: 1, Tags: []string{"golang"}})
	require.NoError(t, err)

	assert.Equal(t, []lifecycle.Kind{lifecycle.PostSaved}, rec.kinds())
	assert.Equal(t, "Golang", rec.last().Post.Tags[0].Name)
}

func TestUpdatePostKeepsTermsWhenNil(t *testing.T) {
	svc, rec, db := newTestService(t)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, PostInput{Title: "Old", AuthorID: 1, Categories: []int64{1}, Tags: []string{"keep"}})
	require.NoError(t, err)

	updated, err := svc.UpdatePost(ctx, post.ID, PostInput{
		Title:    "New Title",
		Content:  "changed",
		Status:   StatusPublish,
		AuthorID: 1,
		Meta:     map[string]string{MetaUpdatedByPlugin: "1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "new-title", updated.Slug)
	assert.Equal(t, StatusPublish, updated.Status)
	assert.True(t, updated.PostDate.Equal(post.PostDate))

	q := store.New(db)
	tags, err := q.ListPostTags(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, tags, 1)

	ev := rec.last()
	assert.Equal(t, lifecycle.PostSaved, ev.Kind)
	assert.True(t, ev.Update)
	assert.True(t, ev.Post.Provenance)
}

func TestUpdatePostNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.UpdatePost(context.Background(), 404, PostInput{Title: "x", AuthorID: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTrashAndRestorePost(t *testing.T) {
	svc, rec, _ := newTestService(t)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, PostInput{Title: "T", Status: StatusPublish, AuthorID: 1})
	require.NoError(t, err)

	trashed, err := svc.TrashPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusTrash, trashed.Status)
	assert.Equal(t, StatusPublish, trashed.TrashedStatus)
	assert.Equal(t, lifecycle.PostTrashed, rec.last().Kind)

	exists, err := svc.TitleExists(ctx, "T", PostTypePost)
	require.NoError(t, err)
	assert.False(t, exists)

	restored, err := svc.RestorePost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPublish, restored.Status)
	assert.Equal(t, lifecycle.PostRestored, rec.last().Kind)
}

func TestDeletePostPublishesSnapshot(t *testing.T) {
	svc, rec, db := newTestService(t)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, PostInput{
		Title: "Gone", AuthorID: 1,
		Meta: map[string]string{MetaAddedByPlugin: "1"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeletePost(ctx, post.ID))

	ev := rec.last()
	assert.Equal(t, lifecycle.PostDeleted, ev.Kind)
	assert.Equal(t, "Gone", ev.Post.Title)
	assert.True(t, ev.Post.Provenance)

	_, err = store.New(db).GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	assert.ErrorIs(t, svc.DeletePost(ctx, post.ID), ErrNotFound)
}

func TestPublishScheduled(t *testing.T) {
	svc, rec, _ := newTestService(t)
	ctx := context.Background()
	now := svc.Now()

	due, err := svc.CreatePost(ctx, PostInput{Title: "Due", Status: StatusFuture, AuthorID: 1, Date: now.Add(-time.Minute)})
	require.NoError(t, err)
	_, err = svc.CreatePost(ctx, PostInput{Title: "Later", Status: StatusFuture, AuthorID: 1, Date: now.Add(time.Hour)})
	require.NoError(t, err)
	rec.events = nil

	n, err := svc.PublishScheduled(lifecycle.WithOrigin(ctx, lifecycle.OriginCron), now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, rec.events, 1)
	assert.Equal(t, due.ID, rec.last().Post.ID)
	assert.Equal(t, StatusPublish, rec.last().Post.Status)
	assert.Equal(t, lifecycle.OriginCron, rec.last().Origin)
}

func TestCategoryLifecycle(t *testing.T) {
	svc, rec, _ := newTestService(t)
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, TermInput{Name: "News", Description: "Daily"})
	require.NoError(t, err)
	assert.Equal(t, "news", cat.Slug)

	dup, err := svc.CreateCategory(ctx, TermInput{Name: "News"})
	require.NoError(t, err)
	assert.Equal(t, "news-2", dup.Slug)

	updated, err := svc.UpdateCategory(ctx, cat.ID, TermInput{Name: "World News", Slug: "news"})
	require.NoError(t, err)
	assert.Equal(t, "news", updated.Slug)
	assert.True(t, rec.last().Update)

	require.NoError(t, svc.DeleteCategory(ctx, cat.ID))
	assert.Equal(t, lifecycle.CategoryGone, rec.last().Kind)
	assert.Equal(t, cat.ID, rec.last().Term.ID)

	_, err = svc.CreateCategory(ctx, TermInput{Name: "  "})
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestTagLifecycle(t *testing.T) {
	svc, rec, _ := newTestService(t)
	ctx := context.Background()

	tag, err := svc.CreateTag(ctx, TermInput{Name: "Go"})
	require.NoError(t, err)
	assert.Equal(t, lifecycle.TagSaved, rec.last().Kind)

	_, err = svc.UpdateTag(ctx, tag.ID, TermInput{Name: "Golang"})
	require.NoError(t, err)
	assert.True(t, rec.last().Update)

	require.NoError(t, svc.DeleteTag(ctx, tag.ID))
	assert.Equal(t, lifecycle.TagGone, rec.last().Kind)

	assert.ErrorIs(t, svc.DeleteTag(ctx, tag.ID), ErrNotFound)
}

func TestUserLifecycle(t *testing.T) {
	svc, rec, db := newTestService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, UserInput{Login: "jane", Email: "jane@example.com", Role: RoleAuthor})
	require.NoError(t, err)
	assert.Equal(t, "jane", user.DisplayName)
	assert.Equal(t, lifecycle.UserSaved, rec.last().Kind)

	_, err = svc.CreateUser(ctx, UserInput{Login: "bad", Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrInvalidEmail)
	_, err = svc.CreateUser(ctx, UserInput{Login: "bad", Email: "bad@example.com", Role: "root"})
	assert.ErrorIs(t, err, ErrInvalidRole)

	updated, err := svc.UpdateUser(ctx, user.ID, UserInput{Email: "jane@example.org", DisplayName: "Jane D", Role: RoleEditor})
	require.NoError(t, err)
	assert.Equal(t, "jane", updated.Login)
	assert.Equal(t, "Jane D", updated.DisplayName)

	post, err := svc.CreatePost(ctx, PostInput{Title: "By Jane", AuthorID: user.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteUser(ctx, user.ID, user.ID), ErrInvalidReassign)
	assert.ErrorIs(t, svc.DeleteUser(ctx, user.ID, 999), ErrInvalidReassign)

	require.NoError(t, svc.DeleteUser(ctx, user.ID, 1))
	assert.Equal(t, lifecycle.UserDeleted, rec.last().Kind)

	got, err := store.New(db).GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.AuthorID)
}

func TestCanEditPosts(t *testing.T) {
	assert.True(t, CanEditPosts(RoleContributor))
	assert.True(t, CanEditPosts(RoleAdministrator))
	assert.False(t, CanEditPosts(RoleSubscriber))
	assert.False(t, CanEditPosts(""))
}

func TestPermalink(t *testing.T) {
	date := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		site string
		want string
	}{
		{"https://blog.example.com", "https://blog.example.com/2024/03/hello/"},
		{"https://blog.example.com/", "https://blog.example.com/2024/03/hello/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Permalink(tt.site, "hello", date))
	}
}
