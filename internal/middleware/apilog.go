// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/mileusna/useragent"

	"github.com/olegiv/post-connector/internal/store"
)

// MaxLoggedBody caps stored request and response bodies.
const MaxLoggedBody = 64 * 1024

const redacted = "[redacted]"

// APILog records every request and its response in the api_logs table.
type APILog struct {
	queries *store.Queries
	logger  *slog.Logger
}

// NewAPILog creates the request log middleware on db.
func NewAPILog(db *sql.DB, logger *slog.Logger) *APILog {
	if logger == nil {
		logger = slog.Default()
	}
	return &APILog{queries: store.New(db), logger: logger}
}

// Middleware logs the request after the response has been written.
func (l *APILog) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqBody := captureBody(r)

		var respBody bytes.Buffer
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Tee(&limitedWriter{w: &respBody, n: MaxLoggedBody})

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		err := l.queries.CreateApiLog(context.WithoutCancel(r.Context()), store.CreateApiLogParams{
			RequestMethod:  r.Method,
			Endpoint:       r.URL.RequestURI(),
			RequestHeaders: headersJSON(r.Header),
			RequestBody:    reqBody,
			ResponseCode:   int64(status),
			ResponseBody:   respBody.String(),
			ClientIp:       ClientIP(r),
			UserAgent:      describeUserAgent(r.UserAgent()),
			CreatedAt:      time.Now().UTC().Truncate(time.Second),
		})
		if err != nil {
			l.logger.Error("failed to write api log", "error", err, "endpoint", r.URL.Path)
		}
	})
}

// captureBody reads up to MaxLoggedBody bytes of the request body and
// restores it for the next handler.
func captureBody(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	head, err := io.ReadAll(io.LimitReader(r.Body, MaxLoggedBody))
	if err != nil {
		return ""
	}
	r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(head), r.Body), Closer: r.Body}
	return string(head)
}

type readCloser struct {
	io.Reader
	io.Closer
}

// headersJSON encodes headers with credentials redacted.
func headersJSON(h http.Header) string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		switch strings.ToLower(name) {
		case "authorization", "cookie", "proxy-authorization":
			out[name] = redacted
		default:
			out[name] = strings.Join(values, ", ")
		}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// describeUserAgent condenses a User-Agent header to "Name Version (OS)".
func describeUserAgent(raw string) string {
	if raw == "" {
		return ""
	}
	ua := useragent.Parse(raw)
	if ua.Name == "" {
		return raw
	}
	desc := ua.Name
	if ua.Version != "" {
		desc += " " + ua.Version
	}
	if ua.OS != "" {
		desc += " (" + ua.OS + ")"
	}
	if ua.Bot {
		desc += " [bot]"
	}
	return desc
}

// limitedWriter discards everything past n bytes.
type limitedWriter struct {
	w io.Writer
	n int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	total := len(p)
	if lw.n <= 0 {
		return total, nil
	}
	if len(p) > lw.n {
		p = p[:lw.n]
	}
	n, err := lw.w.Write(p)
	lw.n -= n
	if err != nil {
		return n, err
	}
	return total, nil
}
