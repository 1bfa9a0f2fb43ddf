// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package media downloads remote images and records them in the media
// library.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path"
	"time"

	"github.com/olegiv/post-connector/internal/util"
)

// Fetch defaults.
const (
	DefaultMaxBytes = 10 << 20
	DefaultTimeout  = 30 * time.Second
	userAgent       = "post-connector-media/1.0"
)

// ErrTooLarge is returned when a download exceeds the size limit.
var ErrTooLarge = errors.New("image exceeds size limit")

// Download is a fetched remote file held in memory.
type Download struct {
	Data        []byte
	ContentType string
	SourceURL   string
	Filename    string
}

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	MaxBytes int64
	Timeout  time.Duration
	// AllowPrivate permits private and loopback addresses.
	AllowPrivate bool
}

// Fetcher downloads remote images.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewFetcher creates a Fetcher. Unless AllowPrivate is set, connections
// to private addresses are refused at dial time.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
	if !cfg.AllowPrivate {
		transport.Proxy = nil
		transport.DialContext = util.SSRFSafeDialContext(dialer)
	}

	return &Fetcher{
		client:   &http.Client{Timeout: cfg.Timeout, Transport: transport},
		maxBytes: cfg.MaxBytes,
	}
}

// Fetch downloads rawURL. Anything but a 200 response is an error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Download, error) {
	u, err := util.ValidateRemoteURL(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", u.Redacted(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", u.Redacted(), resp.StatusCode)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, ErrTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, ErrTooLarge
	}

	name := path.Base(u.Path)
	if name == "/" || name == "." || name == "" {
		name = "image"
	}

	return &Download{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
		SourceURL:   rawURL,
		Filename:    name,
	}, nil
}
