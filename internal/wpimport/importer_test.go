// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package wpimport

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/post-connector/internal/content"
	"github.com/olegiv/post-connector/internal/lifecycle"
	"github.com/olegiv/post-connector/internal/store"
	"github.com/olegiv/post-connector/internal/testutil"
)

type importEnv struct {
	svc     *content.Service
	origins []lifecycle.Origin
}

func newImportEnv(t *testing.T) *importEnv {
	t.Helper()

	db := testutil.TestDB(t)
	logger := testutil.DiscardLogger()
	env := &importEnv{}
	bus := lifecycle.NewBus(logger)
	bus.Subscribe(lifecycle.Listener{Name: "test", Fn: func(_ context.Context, ev lifecycle.Event) error {
		env.origins = append(env.origins, ev.Origin)
		return nil
	}})
	env.svc = content.NewService(db, bus, logger)
	return env
}

func TestImport(t *testing.T) {
	env := newImportEnv(t)
	ctx := context.Background()

	result, err := NewImporter(env.svc, nil).Import(ctx, testReader(t), Options{})
	require.NoError(t, err)
	assert.False(t, result.HasErrors(), "errors: %v", result.Errors)

	// admin exists from the seed; ghost's unknown role falls back to subscriber.
	assert.Equal(t, 2, result.UsersImported)
	assert.Equal(t, 1, result.UsersSkipped)
	assert.Equal(t, 1, result.CategoriesImported)
	assert.Equal(t, 1, result.CategoriesSkipped)
	assert.Equal(t, 1, result.TagsImported)
	assert.Equal(t, 2, result.PostsImported)
	assert.Equal(t, 6, result.TotalImported())

	q := env.svc.Queries()
	jane, err := q.GetUserByLogin(ctx, "jane")
	require.NoError(t, err)
	assert.Equal(t, content.RoleAuthor, jane.Role)
	ghost, err := q.GetUserByLogin(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, content.RoleSubscriber, ghost.Role)

	news, err := q.GetCategoryBySlug(ctx, "news")
	require.NoError(t, err)
	assert.Equal(t, "Company news", news.Description)

	for _, origin := range env.origins {
		assert.Equal(t, lifecycle.OriginImport, origin)
	}
}

func TestImport_PostMapping(t *testing.T) {
	env := newImportEnv(t)
	ctx := context.Background()

	_, err := NewImporter(env.svc, nil).Import(ctx, testReader(t), Options{})
	require.NoError(t, err)

	q := env.svc.Queries()
	jane, err := q.GetUserByLogin(ctx, "jane")
	require.NoError(t, err)

	// Local IDs 1 and 2 in import order.
	hello, err := q.GetPost(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Hello Go", hello.Title)
	assert.Equal(t, content.StatusPublish, hello.Status)
	assert.Equal(t, jane.ID, hello.AuthorID)
	assert.Equal(t, "2024-05-01 09:30:00", hello.PostDate.UTC().Format("2006-01-02 15:04:05"))

	cats, err := q.ListPostCategories(ctx, hello.ID)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "news", cats[0].Slug)

	tags, err := q.ListPostTags(ctx, hello.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "golang", tags[0].Name)

	source, err := q.GetPostMeta(ctx, store.GetPostMetaParams{PostID: hello.ID, MetaKey: MetaSourceID})
	require.NoError(t, err)
	assert.Equal(t, "100", source)

	// Author 9 does not exist in WordPress; no category on the draft.
	draft, err := q.GetPost(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, content.StatusDraft, draft.Status)
	assert.Equal(t, int64(1), draft.AuthorID)
	cats, err = q.ListPostCategories(ctx, draft.ID)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, store.DefaultCategorySlug, cats[0].Slug)
}

func TestImport_SkipExisting(t *testing.T) {
	env := newImportEnv(t)
	ctx := context.Background()
	im := NewImporter(env.svc, nil)

	_, err := im.Import(ctx, testReader(t), Options{})
	require.NoError(t, err)

	second, err := im.Import(ctx, testReader(t), Options{SkipExisting: true})
	require.NoError(t, err)
	assert.Equal(t, 0, second.TotalImported())
	assert.Equal(t, 3, second.UsersSkipped)
	assert.Equal(t, 2, second.CategoriesSkipped)
	assert.Equal(t, 1, second.TagsSkipped)
	assert.Equal(t, 2, second.PostsSkipped)
}

type failingSource struct {
	Source
	err error
}

func (f failingSource) Terms(context.Context) ([]Term, error) {
	return nil, f.err
}

func TestImport_ReadFailureAborts(t *testing.T) {
	env := newImportEnv(t)
	readErr := errors.New("connection reset")

	src := failingSource{Source: testReader(t), err: readErr}
	result, err := NewImporter(env.svc, nil).Import(context.Background(), src, Options{})
	assert.ErrorIs(t, err, readErr)
	assert.Nil(t, result)
}
