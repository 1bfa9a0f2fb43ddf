// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package settings provides the key-value settings store and the
// connector settings kept in it.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/post-connector/internal/store"
)

// Setting keys owned by the connector.
const (
	KeyToken           = "sm_post_connector_token"
	KeyDefaultPostType = "sm_post_connector_default_post_type"
	KeyDefaultAuthor   = "sm_post_connector_default_author"
	KeyDefaultCategory = "sm_post_connector_default_category"
	KeyLogo            = "sm_post_connector_logo"
	KeySecretKey       = "sm_post_connector_secret_key"
	KeyLatestRelease   = "sm_post_connector_latest_release"
)

// OwnedKeys lists every key removed on uninstall.
var OwnedKeys = []string{
	KeyToken,
	KeyDefaultPostType,
	KeyDefaultAuthor,
	KeyDefaultCategory,
	KeyLogo,
	KeySecretKey,
	KeyLatestRelease,
}

// FallbackID is used when no default author or category is configured.
const FallbackID int64 = 1

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("setting not found")

// Store reads and writes settings by key.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// SQLStore is a Store backed by the options table. Every read goes to the database.
type SQLStore struct {
	queries *store.Queries
}

// NewSQLStore creates a settings store on db.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{queries: store.New(db)}
}

// Get returns the value for key or ErrNotFound.
func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.queries.GetOption(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("getting setting %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key.
func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	err := s.queries.UpsertOption(ctx, store.UpsertOptionParams{
		Name:      key,
		Value:     value,
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	})
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if err := s.queries.DeleteOption(ctx, key); err != nil {
		return fmt.Errorf("deleting setting %s: %w", key, err)
	}
	return nil
}

// Connector exposes typed access to the connector's settings.
type Connector struct {
	store Store
}

// NewConnector wraps a settings store.
func NewConnector(s Store) *Connector {
	return &Connector{store: s}
}

// DefaultAuthor returns the configured default author ID, or FallbackID.
func (c *Connector) DefaultAuthor(ctx context.Context) int64 {
	return c.positiveID(ctx, KeyDefaultAuthor)
}

// DefaultCategory returns the configured default category ID, or FallbackID.
func (c *Connector) DefaultCategory(ctx context.Context) int64 {
	return c.positiveID(ctx, KeyDefaultCategory)
}

// DefaultPostType returns the configured post type, "post" when unset.
func (c *Connector) DefaultPostType(ctx context.Context) string {
	v, err := c.store.Get(ctx, KeyDefaultPostType)
	if err != nil || strings.TrimSpace(v) == "" {
		return "post"
	}
	return strings.TrimSpace(v)
}

// Logo returns the branding logo URL, if any.
func (c *Connector) Logo(ctx context.Context) string {
	v, _ := c.store.Get(ctx, KeyLogo)
	return v
}

// SecretKey returns the webhook signing secret, if any.
func (c *Connector) SecretKey(ctx context.Context) string {
	v, _ := c.store.Get(ctx, KeySecretKey)
	return v
}

// SetDefaults stores the default author and category.
func (c *Connector) SetDefaults(ctx context.Context, authorID, categoryID int64) error {
	if authorID > 0 {
		if err := c.store.Set(ctx, KeyDefaultAuthor, strconv.FormatInt(authorID, 10)); err != nil {
			return err
		}
	}
	if categoryID > 0 {
		if err := c.store.Set(ctx, KeyDefaultCategory, strconv.FormatInt(categoryID, 10)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Connector) positiveID(ctx context.Context, key string) int64 {
	v, err := c.store.Get(ctx, key)
	if err != nil {
		return FallbackID
	}
	id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || id <= 0 {
		return FallbackID
	}
	return id
}

// Uninstall deletes every connector-owned key. Content is left untouched.
func Uninstall(ctx context.Context, s Store) error {
	var errs []error
	for _, key := range OwnedKeys {
		if err := s.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
