// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package post

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/post-connector/internal/content"
	"github.com/olegiv/post-connector/internal/lifecycle"
	"github.com/olegiv/post-connector/internal/media"
	"github.com/olegiv/post-connector/internal/store"
	"github.com/olegiv/post-connector/internal/testutil"
)

type fixedDefaults struct {
	author, category int64
}

func (d fixedDefaults) DefaultAuthor(context.Context) int64   { return d.author }
func (d fixedDefaults) DefaultCategory(context.Context) int64 { return d.category }
func (d fixedDefaults) DefaultPostType(context.Context) string {
	return content.PostTypePost
}

// fakeImages serves downloads from memory and stores media rows for real.
type fakeImages struct {
	queries  *store.Queries
	fetchErr error
	saveErr  error
	fetched  []string
}

func (f *fakeImages) Fetch(_ context.Context, rawURL string) (*media.Download, error) {
	f.fetched = append(f.fetched, rawURL)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return &media.Download{Data: []byte("img"), ContentType: "image/png", SourceURL: rawURL, Filename: "a.png"}, nil
}

func (f *fakeImages) Save(ctx context.Context, dl *media.Download, uploadedBy int64) (store.Media, error) {
	if f.saveErr != nil {
		return store.Media{}, f.saveErr
	}
	return f.queries.CreateMedia(ctx, store.CreateMediaParams{
		Uuid:       "u-1",
		Filename:   dl.Filename,
		MimeType:   dl.ContentType,
		Size:       int64(len(dl.Data)),
		Width:      1,
		Height:     1,
		Url:        "https://blog.example.com/uploads/originals/u-1/a.png",
		SourceUrl:  dl.SourceURL,
		UploadedBy: uploadedBy,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	})
}

type fixture struct {
	svc     *Service
	content *content.Service
	images  *fakeImages
	queries *store.Queries
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.TestDB(t)
	logger := testutil.DiscardLogger()
	cs := content.NewService(db, lifecycle.NewBus(logger), logger)
	images := &fakeImages{queries: cs.Queries()}

	svc := NewService(Config{
		Queries:  cs.Queries(),
		Writer:   cs,
		Images:   images,
		Defaults: fixedDefaults{author: 1, category: 1},
		SiteURL:  "https://blog.example.com",
		Logger:   logger,
	})
	return &fixture{svc: svc, content: cs, images: images, queries: cs.Queries()}
}

func requireCode(t *testing.T, err error, code string, status int) {
	t.Helper()
	require.Error(t, err)
	var pe *Error
	require.True(t, errors.As(err, &pe), "error %v is not *Error", err)
	assert.Equal(t, code, pe.Code)
	assert.Equal(t, status, pe.Status)
}

func wire(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

func TestUpsertCreateDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Upsert(ctx, Fields{Title: "Hello", Content: `<p onclick="x()">Body</p><script>bad()</script>`}, false)
	require.NoError(t, err)
	require.Positive(t, res.PostID)

	p, err := f.queries.GetPost(ctx, res.PostID)
	require.NoError(t, err)
	assert.Equal(t, content.StatusDraft, p.Status)
	assert.Equal(t, int64(1), p.AuthorID)
	assert.Equal(t, "<p>Body</p>", p.Content)
	assert.Equal(t, f.svc.Permalink(p), res.URL)

	cats, err := f.queries.ListPostCategories(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, int64(1), cats[0].ID)

	marker, err := f.queries.GetPostMeta(ctx, store.GetPostMetaParams{PostID: p.ID, MetaKey: content.MetaAddedByPlugin})
	require.NoError(t, err)
	assert.Equal(t, "1", marker)
}

func TestUpsertValidation(t *testing.T) {
	now := time.Now().UTC()
	past := wire(now.Add(-48 * time.Hour))
	future := wire(now.Add(48 * time.Hour))

	tests := []struct {
		name     string
		fields   Fields
		isUpdate bool
		fetchErr error
		code     string
		status   int
	}{
		{"update without id", Fields{Status: "bogus"}, true, nil, CodePostIDRequired, http.StatusBadRequest},
		{"update unknown id", Fields{ID: 999}, true, nil, CodePostNotFound, http.StatusNotFound},
		{"bad status", Fields{Title: "A", Status: "pending"}, false, nil, CodeInvalidStatus, http.StatusBadRequest},
		{"future without date", Fields{Title: "A", Status: "future"}, false, nil, CodeDateRequired, http.StatusBadRequest},
		{"future with past date", Fields{Title: "A", Status: "future", Date: past}, false, nil, CodeDateMustBeFuture, http.StatusBadRequest},
		{"publish with future date", Fields{Title: "A", Status: "publish", Date: future}, false, nil, CodeDateMustBePast, http.StatusBadRequest},
		{"unparseable date", Fields{Title: "A", Date: "next tuesday"}, false, nil, CodeInvalidDate, http.StatusBadRequest},
		{"duplicate title", Fields{Title: "Existing"}, false, nil, CodeTitleExists, http.StatusBadRequest},
		{"unknown author", Fields{Title: "A", Author: 999}, false, nil, CodeInvalidAuthor, http.StatusBadRequest},
		{"image download", Fields{Title: "A", FeaturedImage: "https://img.example.com/a.png"}, false, errors.New("404"), CodeImageDownloadFailed, http.StatusBadRequest},
		{"title check before author", Fields{Title: "Existing", Author: 999}, false, nil, CodeTitleExists, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			_, err := f.svc.Upsert(ctx, Fields{Title: "Existing"}, false)
			require.NoError(t, err)

			f.images.fetchErr = tt.fetchErr
			_, err = f.svc.Upsert(ctx, tt.fields, tt.isUpdate)
			requireCode(t, err, tt.code, tt.status)

			exists, err := f.content.TitleExists(ctx, "A", content.PostTypePost)
			require.NoError(t, err)
			assert.False(t, exists, "post written despite validation failure")
		})
	}
}

func TestUpsertDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	future := now.Add(72 * time.Hour)
	past := now.Add(-72 * time.Hour)

	res, err := f.svc.Upsert(ctx, Fields{Title: "Scheduled", Status: "future", Date: wire(future)}, false)
	require.NoError(t, err)
	p, _ := f.queries.GetPost(ctx, res.PostID)
	assert.Equal(t, content.StatusFuture, p.Status)
	assert.True(t, p.PostDate.Equal(future), "post date %v, want %v", p.PostDate, future)

	// Updating a scheduled post without a date keeps its schedule.
	_, err = f.svc.Upsert(ctx, Fields{ID: res.PostID, Content: "new"}, true)
	require.NoError(t, err)
	p, _ = f.queries.GetPost(ctx, res.PostID)
	assert.True(t, p.PostDate.Equal(future))

	// Without a status the stored one still governs which dates are valid.
	_, err = f.svc.Upsert(ctx, Fields{ID: res.PostID, Date: wire(past)}, true)
	requireCode(t, err, CodeDateMustBeFuture, http.StatusBadRequest)
	p, _ = f.queries.GetPost(ctx, res.PostID)
	assert.Equal(t, content.StatusFuture, p.Status)
	assert.True(t, p.PostDate.Equal(future), "post date %v, want %v", p.PostDate, future)

	later := future.Add(24 * time.Hour)
	_, err = f.svc.Upsert(ctx, Fields{ID: res.PostID, Date: wire(later)}, true)
	require.NoError(t, err)
	p, _ = f.queries.GetPost(ctx, res.PostID)
	assert.True(t, p.PostDate.Equal(later), "post date %v, want %v", p.PostDate, later)

	res, err = f.svc.Upsert(ctx, Fields{Title: "Backdated", Status: "publish", Date: wire(past)}, false)
	require.NoError(t, err)
	p, _ = f.queries.GetPost(ctx, res.PostID)
	assert.True(t, p.PostDate.Equal(past))

	_, err = f.svc.Upsert(ctx, Fields{ID: res.PostID, Date: wire(future)}, true)
	requireCode(t, err, CodeDateMustBePast, http.StatusBadRequest)
	p, _ = f.queries.GetPost(ctx, res.PostID)
	assert.Equal(t, content.StatusPublish, p.Status)
	assert.True(t, p.PostDate.Equal(past))

	res, err = f.svc.Upsert(ctx, Fields{Title: "Draft", Date: wire(past)}, false)
	require.NoError(t, err)
	p, _ = f.queries.GetPost(ctx, res.PostID)
	assert.False(t, p.PostDate.Before(now), "draft date should be now, got %v", p.PostDate)
}

func TestUpsertUpdateMergesFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Upsert(ctx, Fields{
		Title:      "Original",
		Content:    "<p>Body</p>",
		Categories: []int64{1},
		Tags:       []string{"go"},
	}, false)
	require.NoError(t, err)

	updated, err := f.svc.Upsert(ctx, Fields{ID: created.PostID, Status: "publish"}, true)
	require.NoError(t, err)
	assert.Equal(t, created.PostID, updated.PostID)

	p, err := f.queries.GetPost(ctx, created.PostID)
	require.NoError(t, err)
	assert.Equal(t, "Original", p.Title)
	assert.Equal(t, "<p>Body</p>", p.Content)
	assert.Equal(t, content.StatusPublish, p.Status)

	tags, err := f.queries.ListPostTags(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "go", tags[0].Name)

	marker, err := f.queries.GetPostMeta(ctx, store.GetPostMetaParams{PostID: p.ID, MetaKey: content.MetaUpdatedByPlugin})
	require.NoError(t, err)
	assert.Equal(t, "1", marker)
}

func TestUpsertUpdateTrashedPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Upsert(ctx, Fields{Title: "Gone"}, false)
	require.NoError(t, err)
	_, err = f.svc.Delete(ctx, res.PostID, false)
	require.NoError(t, err)

	_, err = f.svc.Upsert(ctx, Fields{ID: res.PostID, Title: "Back"}, true)
	requireCode(t, err, CodePostNotFound, http.StatusNotFound)
}

func TestUpsertFeaturedImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Upsert(ctx, Fields{Title: "Pic", FeaturedImage: "https://img.example.com/a.png"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://img.example.com/a.png"}, f.images.fetched)

	view, err := f.svc.Get(ctx, res.PostID)
	require.NoError(t, err)
	require.NotNil(t, view.FeaturedImage)
	assert.Contains(t, *view.FeaturedImage, "/uploads/originals/u-1/a.png")
}

func TestUpsertImageSaveFailureKeepsPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.images.saveErr = errors.New("disk full")

	res, err := f.svc.Upsert(ctx, Fields{Title: "Pic", FeaturedImage: "https://img.example.com/a.png"}, false)
	require.NoError(t, err)

	view, err := f.svc.Get(ctx, res.PostID)
	require.NoError(t, err)
	assert.Nil(t, view.FeaturedImage)
}

func TestGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, 0)
	requireCode(t, err, CodePostIDRequired, http.StatusBadRequest)
	_, err = f.svc.Get(ctx, 42)
	requireCode(t, err, CodePostNotFound, http.StatusNotFound)

	res, err := f.svc.Upsert(ctx, Fields{
		Title:   "Read me",
		Content: "# Heading\n\n<em>inline</em>",
		Tags:    []string{"b", "a"},
	}, false)
	require.NoError(t, err)

	view, err := f.svc.Get(ctx, res.PostID)
	require.NoError(t, err)
	assert.Equal(t, "Read me", view.Title)
	assert.Contains(t, view.Content, "<h1")
	assert.Contains(t, view.Content, "<em>inline</em>")
	assert.Equal(t, store.DefaultAdminName, view.Author)
	assert.Equal(t, []string{store.DefaultCategoryName}, view.Categories)
	assert.Equal(t, []string{"a", "b"}, view.Tags)
	assert.Nil(t, view.FeaturedImage)

	out, err := json.Marshal(view)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"featured_image":null`)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Delete(ctx, 0, false)
	requireCode(t, err, CodePostIDRequired, http.StatusBadRequest)
	_, err = f.svc.Delete(ctx, 77, true)
	requireCode(t, err, CodePostNotFound, http.StatusNotFound)

	res, err := f.svc.Upsert(ctx, Fields{Title: "Temp"}, false)
	require.NoError(t, err)

	code, err := f.svc.Delete(ctx, res.PostID, false)
	require.NoError(t, err)
	assert.Equal(t, CodeMovedToTrash, code)

	_, err = f.svc.Get(ctx, res.PostID)
	requireCode(t, err, CodePostNotFound, http.StatusNotFound)

	code, err = f.svc.Delete(ctx, res.PostID, false)
	require.NoError(t, err)
	assert.Equal(t, CodeMovedToTrash, code)

	code, err = f.svc.Delete(ctx, res.PostID, true)
	require.NoError(t, err)
	assert.Equal(t, CodePermanentlyDeleted, code)

	_, err = f.queries.GetPost(ctx, res.PostID)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestDecodeFields(t *testing.T) {
	var values map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "12",
		"title": "  <b>Bold</b> &amp; brave ",
		"status": "publish",
		"author": 3,
		"category": "1, x, -2, 3,",
		"tag": [" go ", "", "news"],
		"featured_image": " https://img.example.com/a.png "
	}`), &values))

	got := DecodeFields(values)
	assert.Equal(t, int64(12), got.ID)
	assert.Equal(t, "Bold & brave", got.Title)
	assert.Equal(t, "publish", got.Status)
	assert.Equal(t, int64(3), got.Author)
	assert.Equal(t, []int64{1, 3}, got.Categories)
	assert.Equal(t, []string{"go", "news"}, got.Tags)
	assert.Equal(t, "https://img.example.com/a.png", got.FeaturedImage)
}

func TestDecodeFieldsEncodedMarkup(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"encoded script", "&lt;script&gt;alert(1)&lt;/script&gt;Hi", "Hi"},
		{"encoded tag", "&lt;img src=x onerror=alert(1)&gt;Pic", "Pic"},
		{"double encoded", "&amp;lt;b&amp;gt;x", "&lt;b&gt;x"},
		{"comparison", "1 < 2", "1 &lt; 2"},
		{"quotes", "Don&#39;t &quot;stop&quot;", `Don't "stop"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeFields(map[string]any{
				ParamTitle: tt.input,
				ParamTag:   []any{tt.input},
			})
			assert.Equal(t, tt.want, got.Title)
			require.Len(t, got.Tags, 1)
			assert.Equal(t, tt.want, got.Tags[0])
			assert.NotContains(t, got.Title, "<")
			assert.NotContains(t, got.Tags[0], "<")
		})
	}
}

func TestParseIDList(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []int64
	}{
		{"nil", nil, nil},
		{"string", "4,5", []int64{4, 5}},
		{"numbers", []any{json.Number("7"), float64(8), 9.5}, []int64{7, 8}},
		{"strings", []string{"10", "zero", "0"}, []int64{10}},
		{"single", float64(2), []int64{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseIDList(tt.in))
		})
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	for _, s := range []string{"2025-06-01 09:30:00", "2025-06-01T09:30:00Z", "2025-06-01T11:30:00+02:00", "2025-06-01 09:30"} {
		got, err := ParseDate(s, time.UTC)
		require.NoError(t, err, s)
		assert.True(t, got.Equal(want), "%s parsed as %v", s, got)
	}

	_, err := ParseDate("01/06/2025", time.UTC)
	assert.Error(t, err)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Post created successfully", Message(CodePostCreated))
	assert.Equal(t, "unknown_code", Message("unknown_code"))
}
