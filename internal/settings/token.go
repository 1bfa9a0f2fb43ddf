// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package settings

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
)

// TokenBytes is the number of random bytes in a bearer token.
const TokenBytes = 16

// TokenStore manages the single shared bearer token.
type TokenStore struct {
	store Store
}

// NewTokenStore creates a token store on s.
func NewTokenStore(s Store) *TokenStore {
	return &TokenStore{store: s}
}

// GenerateToken returns a new random hex-encoded token.
func GenerateToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Token returns the stored token, or "" when none exists.
func (t *TokenStore) Token(ctx context.Context) (string, error) {
	token, err := t.store.Get(ctx, KeyToken)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return token, nil
}

// Ensure creates a token if none is stored and returns the current one.
func (t *TokenStore) Ensure(ctx context.Context) (string, error) {
	token, err := t.Token(ctx)
	if err != nil {
		return "", err
	}
	if token != "" {
		return token, nil
	}
	return t.Regenerate(ctx)
}

// Regenerate replaces the stored token. The previous token stops validating immediately.
func (t *TokenStore) Regenerate(ctx context.Context) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}
	if err := t.store.Set(ctx, KeyToken, token); err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}
	return token, nil
}

// Validate reports whether candidate equals the stored token.
// An empty stored token never validates.
func (t *TokenStore) Validate(ctx context.Context, candidate string) (bool, error) {
	stored, err := t.Token(ctx)
	if err != nil {
		return false, err
	}
	if stored == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1, nil
}
