// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package post

import (
	"context"
	"database/sql"
	"errors"
)

// Delete trashes the post id, or removes it when permanently is set. The
// lookup includes trashed posts, so a trashed post can still be removed
// permanently; trashing it again is a no-op.
func (s *Service) Delete(ctx context.Context, id int64, permanently bool) (string, error) {
	if id <= 0 {
		return "", badRequest(CodePostIDRequired)
	}

	if _, err := s.queries.GetPost(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", notFound()
		}
		return "", internal(CodeFailedToDelete, err)
	}

	if permanently {
		if err := s.writer.DeletePost(ctx, id); err != nil {
			return "", internal(CodeFailedToDelete, err)
		}
		return CodePermanentlyDeleted, nil
	}

	if _, err := s.writer.TrashPost(ctx, id); err != nil {
		return "", internal(CodeFailedToDelete, err)
	}
	return CodeMovedToTrash, nil
}
