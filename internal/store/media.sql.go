// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const mediaColumns = `id, uuid, filename, mime_type, size, width, height, url, source_url, uploaded_by, created_at`

func scanMedia(row interface{ Scan(...any) error }) (Media, error) {
	var i Media
	err := row.Scan(
		&i.ID,
		&i.Uuid,
		&i.Filename,
		&i.MimeType,
		&i.Size,
		&i.Width,
		&i.Height,
		&i.Url,
		&i.SourceUrl,
		&i.UploadedBy,
		&i.CreatedAt,
	)
	return i, err
}

const createMedia = `
INSERT INTO media (uuid, filename, mime_type, size, width, height, url, source_url, uploaded_by, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type CreateMediaParams struct {
	Uuid       string    `json:"uuid"`
	Filename   string    `json:"filename"`
	MimeType   string    `json:"mime_type"`
	Size       int64     `json:"size"`
	Width      int64     `json:"width"`
	Height     int64     `json:"height"`
	Url        string    `json:"url"`
	SourceUrl  string    `json:"source_url"`
	UploadedBy int64     `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

func (q *Queries) CreateMedia(ctx context.Context, arg CreateMediaParams) (Media, error) {
	result, err := q.db.ExecContext(ctx, createMedia,
		arg.Uuid,
		arg.Filename,
		arg.MimeType,
		arg.Size,
		arg.Width,
		arg.Height,
		arg.Url,
		arg.SourceUrl,
		arg.UploadedBy,
		arg.CreatedAt,
	)
	if err != nil {
		return Media{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Media{}, err
	}
	return q.GetMedia(ctx, id)
}

const getMedia = `SELECT ` + mediaColumns + ` FROM media WHERE id = ?`

func (q *Queries) GetMedia(ctx context.Context, id int64) (Media, error) {
	return scanMedia(q.db.QueryRowContext(ctx, getMedia, id))
}
