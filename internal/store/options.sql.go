// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const getOption = `SELECT value FROM options WHERE name = ?`

func (q *Queries) GetOption(ctx context.Context, name string) (string, error) {
	var value string
	err := q.db.QueryRowContext(ctx, getOption, name).Scan(&value)
	return value, err
}

const upsertOption = `
INSERT INTO options (name, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

type UpsertOptionParams struct {
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (q *Queries) UpsertOption(ctx context.Context, arg UpsertOptionParams) error {
	_, err := q.db.ExecContext(ctx, upsertOption, arg.Name, arg.Value, arg.UpdatedAt)
	return err
}

const deleteOption = `DELETE FROM options WHERE name = ?`

func (q *Queries) DeleteOption(ctx context.Context, name string) error {
	_, err := q.db.ExecContext(ctx, deleteOption, name)
	return err
}
