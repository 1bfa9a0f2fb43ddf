// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/post-connector/internal/imaging"
	"github.com/olegiv/post-connector/internal/store"
)

// Library stores downloaded images and records them in the media table.
type Library struct {
	*Fetcher
	queries   *store.Queries
	processor *imaging.Processor
	baseURL   string
}

// NewLibrary creates a media library. baseURL is the public URL the
// uploads directory is served under.
func NewLibrary(queries *store.Queries, fetcher *Fetcher, processor *imaging.Processor, baseURL string) *Library {
	return &Library{
		Fetcher:   fetcher,
		queries:   queries,
		processor: processor,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// Save processes dl and creates its media row. Files are removed again if
// the row cannot be written.
func (l *Library) Save(ctx context.Context, dl *Download, uploadedBy int64) (store.Media, error) {
	id := uuid.New().String()

	res, err := l.processor.Process(dl.Data, id, dl.Filename)
	if err != nil {
		return store.Media{}, fmt.Errorf("processing image: %w", err)
	}

	m, err := l.queries.CreateMedia(ctx, store.CreateMediaParams{
		Uuid:       id,
		Filename:   res.Path[strings.LastIndex(res.Path, "/")+1:],
		MimeType:   res.MimeType,
		Size:       res.Size,
		Width:      int64(res.Width),
		Height:     int64(res.Height),
		Url:        l.baseURL + "/" + res.Path,
		SourceUrl:  dl.SourceURL,
		UploadedBy: uploadedBy,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	})
	if err != nil {
		_ = l.processor.Remove(id)
		return store.Media{}, fmt.Errorf("creating media record: %w", err)
	}

	return m, nil
}
