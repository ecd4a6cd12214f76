// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"path/filepath"
	"testing"
)

func TestSafeJoinPath(t *testing.T) {
	base := t.TempDir()

	tests := []struct {
		name       string
		components []string
		want       string
		wantErr    bool
	}{
		{"plain", []string{"contact.html"}, filepath.Join(base, "contact.html"), false},
		{"nested", []string{"edit", "row.html"}, filepath.Join(base, "edit", "row.html"), false},
		{"inner dots", []string{"a/../b.html"}, filepath.Join(base, "b.html"), false},
		{"escape", []string{"../secret"}, "", true},
		{"deep escape", []string{"a", "../../secret"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeJoinPath(base, tt.components...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SafeJoinPath error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SafeJoinPath = %q, want %q", got, tt.want)
			}
		})
	}
}
