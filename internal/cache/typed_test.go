// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type release struct {
	Tag string `json:"tag"`
}

func TestTypedCacheGetOrSet(t *testing.T) {
	tc := NewTypedCache[release](NewMemoryCache(time.Minute), time.Hour)
	ctx := context.Background()

	calls := 0
	fetch := func() (*release, error) {
		calls++
		return &release{Tag: "1.2.0"}, nil
	}

	got, hit, err := tc.GetOrSet(ctx, "latest", fetch)
	if err != nil || hit || got.Tag != "1.2.0" {
		t.Fatalf("first GetOrSet = %+v, %v, %v", got, hit, err)
	}
	got, hit, err = tc.GetOrSet(ctx, "latest", fetch)
	if err != nil || !hit || got.Tag != "1.2.0" {
		t.Fatalf("second GetOrSet = %+v, %v, %v", got, hit, err)
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}
}

func TestTypedCacheErrorNotCached(t *testing.T) {
	tc := NewTypedCache[release](NewMemoryCache(time.Minute), time.Hour)
	ctx := context.Background()

	boom := errors.New("boom")
	if _, _, err := tc.GetOrSet(ctx, "k", func() (*release, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if _, ok := tc.Get(ctx, "k"); ok {
		t.Error("error result was cached")
	}
}

func TestTypedCacheUndecodable(t *testing.T) {
	mc := NewMemoryCache(time.Minute)
	tc := NewTypedCache[release](mc, time.Hour)
	ctx := context.Background()

	_ = mc.Set(ctx, "k", []byte("not json"), 0)
	if _, ok := tc.Get(ctx, "k"); ok {
		t.Error("undecodable value reported as hit")
	}
}
