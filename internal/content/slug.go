// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"fmt"

	"github.com/olegiv/post-connector/internal/util"
)

// maxSlugAttempts bounds the numeric suffix search.
const maxSlugAttempts = 1000

// uniqueSlug derives a slug from source and appends -2, -3, ... until
// taken reports it free.
func uniqueSlug(ctx context.Context, source, fallback string, taken func(ctx context.Context, slug string) (bool, error)) (string, error) {
	base := util.Slugify(source)
	if base == "" {
		base = fallback
	}

	slug := base
	for i := 2; i < maxSlugAttempts; i++ {
		used, err := taken(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("checking slug %q: %w", slug, err)
		}
		if !used {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
	return "", fmt.Errorf("no free slug for %q", base)
}
