// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/post-connector/internal/content"
	"github.com/olegiv/post-connector/internal/lifecycle"
	"github.com/olegiv/post-connector/internal/media"
	"github.com/olegiv/post-connector/internal/middleware"
	"github.com/olegiv/post-connector/internal/post"
	"github.com/olegiv/post-connector/internal/settings"
	"github.com/olegiv/post-connector/internal/store"
	"github.com/olegiv/post-connector/internal/testutil"
	"github.com/olegiv/post-connector/internal/version"
)

type noImages struct{}

func (noImages) Fetch(context.Context, string) (*media.Download, error) {
	return nil, errors.New("unreachable")
}

func (noImages) Save(context.Context, *media.Download, int64) (store.Media, error) {
	return store.Media{}, errors.New("unreachable")
}

type stubRelease struct {
	version string
	ok      bool
}

func (s stubRelease) Latest(context.Context) (string, bool) {
	return s.version, s.ok
}

type testEnv struct {
	db      *sql.DB
	queries *store.Queries
	content *content.Service
	bus     *lifecycle.Bus
	tokens  *settings.TokenStore
	router  http.Handler
	token   string
}

// testSetup wires the API behind the auth gate the way the server does.
func testSetup(t *testing.T, release ReleaseSource) *testEnv {
	t.Helper()

	db := testutil.MemoryDB(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	opts := settings.NewSQLStore(db)
	tokens := settings.NewTokenStore(opts)
	token, err := tokens.Ensure(ctx)
	if err != nil {
		t.Fatalf("Ensure token: %v", err)
	}

	bus := lifecycle.NewBus(logger)
	contentSvc := content.NewService(db, bus, logger)
	posts := post.NewService(post.Config{
		Queries:  contentSvc.Queries(),
		Writer:   contentSvc,
		Images:   noImages{},
		Defaults: settings.NewConnector(opts),
		SiteURL:  "https://blog.example.com",
		Logger:   logger,
	})

	h := NewHandler(Config{
		Queries: contentSvc.Queries(),
		Posts:   posts,
		Release: release,
		Build:   version.Info{Version: "v0.3.0", GitCommit: "abc1234", BuildTime: "2026-01-02T03:04:05Z"},
		Logger:  logger,
	})

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthGate(tokens, logger).Middleware)
		h.Routes(r)
	})

	return &testEnv{
		db:      db,
		queries: contentSvc.Queries(),
		content: contentSvc,
		bus:     bus,
		tokens:  tokens,
		router:  r,
		token:   token,
	}
}

// do sends a request with the bearer token and decodes the envelope.
func (e *testEnv) do(t *testing.T, method, target, contentType, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Authorization", "Bearer "+e.token)

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not an envelope: %v\n%s", err, w.Body.String())
	}
	return w, env
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e envelope) code(t *testing.T) string {
	t.Helper()
	var d middleware.ErrorData
	if err := json.Unmarshal(e.Data, &d); err != nil {
		t.Fatalf("error data: %v (%s)", err, e.Data)
	}
	return d.Code
}

func (e envelope) decode(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal(e.Data, v); err != nil {
		t.Fatalf("decoding data: %v (%s)", err, e.Data)
	}
}
