// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"path/filepath"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"simple", "image.jpg", "image.jpg", false},
		{"with directory", "photos/2024/image.jpg", "image.jpg", false},
		{"traversal", "../../../etc/passwd", "passwd", false},
		{"dot", ".", "", true},
		{"double dot", "..", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeFilename(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SanitizeFilename(%q) err = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSafeJoinPath(t *testing.T) {
	base := t.TempDir()

	tests := []struct {
		name       string
		components []string
		wantErr    bool
	}{
		{"single file", []string{"a.jpg"}, false},
		{"nested", []string{"originals", "uuid", "a.jpg"}, false},
		{"resolved inside", []string{"originals", "..", "a.jpg"}, false},
		{"escape", []string{"..", "etc", "passwd"}, true},
		{"sibling prefix", []string{"..", filepath.Base(base) + "-evil", "a.jpg"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SafeJoinPath(base, tt.components...)
			if (err != nil) != tt.wantErr {
				t.Errorf("SafeJoinPath(%v) err = %v, wantErr %v", tt.components, err, tt.wantErr)
			}
		})
	}
}
