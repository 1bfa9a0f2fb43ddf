// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/post-connector/internal/metrics"
	"github.com/olegiv/post-connector/internal/store"
)

func TestWriteEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteEnvelope(rec, http.StatusCreated, "Post created successfully.", map[string]int{"post_id": 3})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}
	want := `{"status":201,"message":"Post created successfully.","data":{"post_id":3}}`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "198.51.100.7:5000"
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}

	// A different client has its own budget.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.8:5000"
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other client status = %d", rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := map[string]string{
		"192.0.2.1:1234":   "192.0.2.1",
		"[2001:db8::1]:80": "2001:db8::1",
		"192.0.2.9":        "192.0.2.9",
	}
	for addr, want := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = addr
		if got := ClientIP(r); got != want {
			t.Errorf("ClientIP(%q) = %q, want %q", addr, got, want)
		}
	}
}

func TestAPILogRecordsRequest(t *testing.T) {
	db, err := store.NewDB(filepath.Join(t.TempDir(), "apilog.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	var seen string
	h := NewAPILog(db, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen = string(b)
		WriteEnvelope(w, http.StatusBadRequest, "nope", nil)
	}))

	req := httptest.NewRequest(http.MethodPost, "/create-post?x=1", bytes.NewBufferString(`{"title":"T"}`))
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != `{"title":"T"}` {
		t.Errorf("handler saw body %q", seen)
	}

	logs, err := store.New(db).ListRecentApiLogs(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListRecentApiLogs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("logs = %d, want 1", len(logs))
	}
	entry := logs[0]
	if entry.RequestMethod != http.MethodPost || entry.Endpoint != "/create-post?x=1" || entry.ResponseCode != 400 {
		t.Errorf("entry = %+v", entry)
	}
	if strings.Contains(entry.RequestHeaders, "secret") || !strings.Contains(entry.RequestHeaders, redacted) {
		t.Errorf("authorization not redacted: %s", entry.RequestHeaders)
	}
	if entry.RequestBody != `{"title":"T"}` || !strings.Contains(entry.ResponseBody, `"message":"nope"`) {
		t.Errorf("bodies = %q / %q", entry.RequestBody, entry.ResponseBody)
	}
	if !strings.HasPrefix(entry.UserAgent, "Chrome") {
		t.Errorf("user agent = %q", entry.UserAgent)
	}
}

func TestLimitedWriter(t *testing.T) {
	var buf bytes.Buffer
	lw := &limitedWriter{w: &buf, n: 4}
	n, err := lw.Write([]byte("abcdef"))
	if err != nil || n != 6 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	_, _ = lw.Write([]byte("gh"))
	if buf.String() != "abcd" {
		t.Errorf("buffer = %q", buf.String())
	}
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	m := metrics.New()
	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/posts/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/posts/12", nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `route="/posts/{id}"`) {
		t.Errorf("route label missing from exposition")
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(DefaultSecurityHeadersConfig(true))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("nosniff missing")
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS set in development")
	}
}
