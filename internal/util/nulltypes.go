// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import "database/sql"

// NullInt64Positive is valid only for val > 0.
func NullInt64Positive(val int64) sql.NullInt64 {
	return sql.NullInt64{Int64: val, Valid: val > 0}
}

// NullStringFromValue is valid only for a non-empty s.
func NullStringFromValue(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
