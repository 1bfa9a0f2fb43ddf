// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/post-connector/internal/lifecycle"
)

// Deny reasons.
const (
	ReasonMissingHeader = "missing_or_malformed_header"
	ReasonInvalidToken  = "invalid_token"
)

// ForbiddenCode is the error code of every denied request.
const ForbiddenCode = "rest_forbidden"

// bearerPrefix is matched case-sensitively.
const bearerPrefix = "Bearer "

var denyMessages = map[string]string{
	ReasonMissingHeader: "Authorization header not found or malformed.",
	ReasonInvalidToken:  "Invalid token.",
}

// Decision is the outcome of an authentication check.
type Decision struct {
	Allow  bool
	Reason string
	// Token is the presented bearer token when allowed.
	Token string
}

// TokenValidator checks a bearer token against the stored one.
type TokenValidator interface {
	Validate(ctx context.Context, candidate string) (bool, error)
}

// AuthGate authenticates connector API requests with the shared bearer token.
type AuthGate struct {
	tokens TokenValidator
	logger *slog.Logger
}

// NewAuthGate creates an AuthGate.
func NewAuthGate(tokens TokenValidator, logger *slog.Logger) *AuthGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthGate{tokens: tokens, logger: logger}
}

// Check decides whether headers carry the valid bearer token.
func (g *AuthGate) Check(ctx context.Context, headers http.Header) Decision {
	header := headers.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return Decision{Reason: ReasonMissingHeader}
	}

	token := strings.TrimPrefix(header, bearerPrefix)
	ok, err := g.tokens.Validate(ctx, token)
	if err != nil {
		g.logger.Error("failed to validate token", "error", err)
		return Decision{Reason: ReasonInvalidToken}
	}
	if !ok {
		return Decision{Reason: ReasonInvalidToken}
	}
	return Decision{Allow: true, Token: token}
}

// Middleware rejects unauthenticated requests with a 403 envelope. Allowed
// requests are marked as connector API calls in their context.
func (g *AuthGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := g.Check(r.Context(), r.Header)
		if !d.Allow {
			g.logger.Warn("api request denied",
				"reason", d.Reason,
				"path", r.URL.Path,
				"ip", ClientIP(r))
			WriteEnvelope(w, http.StatusForbidden, DenyMessage(d.Reason), ErrorData{Code: ForbiddenCode})
			return
		}

		ctx := lifecycle.WithOrigin(r.Context(), lifecycle.OriginAPI)
		ctx = lifecycle.WithBearerToken(ctx, d.Token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DenyMessage returns the human readable message for a deny reason.
func DenyMessage(reason string) string {
	if msg, ok := denyMessages[reason]; ok {
		return msg
	}
	return reason
}
