// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Default records created on a fresh database. Their IDs are 1, which the
// default author and default category settings fall back to.
const (
	DefaultAdminLogin   = "admin"
	DefaultAdminEmail   = "admin@example.com"
	DefaultAdminName    = "Administrator"
	DefaultCategoryName = "Uncategorized"
	DefaultCategorySlug = "uncategorized"
	RoleAdministrator   = "administrator"
)

// Seed creates the default administrator and category if the database is empty.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)
	now := time.Now().UTC().Truncate(time.Second)

	count, err := queries.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if count == 0 {
		user, err := queries.CreateUser(ctx, CreateUserParams{
			Login:       DefaultAdminLogin,
			Email:       DefaultAdminEmail,
			DisplayName: DefaultAdminName,
			Role:        RoleAdministrator,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("creating admin user: %w", err)
		}
		slog.Info("created default admin user", "id", user.ID, "login", user.Login)
	}

	_, err = queries.GetCategoryBySlug(ctx, DefaultCategorySlug)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking default category: %w", err)
	}

	cat, err := queries.CreateCategory(ctx, CreateCategoryParams{
		Name:      DefaultCategoryName,
		Slug:      DefaultCategorySlug,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("creating default category: %w", err)
	}
	slog.Info("created default category", "id", cat.ID)

	return nil
}
