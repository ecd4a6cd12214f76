// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package validate

import (
	"errors"
	"testing"
)

func TestValidate_NamedRules(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		rule  string
		value string
		want  bool
	}{
		{"email", "user@example.com", true},
		{"email", "not-an-email", false},
		{"Email", "Name <user@example.com>", false},
		{"url", "https://example.com/x", true},
		{"url", "ftp://example.com", false},
		{"integer", "42", true},
		{"integer", "4.2", false},
		{"number", "4.2", true},
		{"date", "2024-02-29", true},
		{"date", "2023-02-29", false},
		{"phone", "+1 (304) 555-0100", true},
		{"zip", "26505-1234", true},
		{"zip", "2650", false},
		{"alpha", "abc", true},
		{"alphaNumeric", "abc123", true},
		{"slug", "my-page", true},
		{"slug", "My Page", false},
		{"ipAddr", "10.0.0.1", true},
		{"", "anything", true},
	}
	for _, tt := range tests {
		got, err := r.Validate(tt.rule, tt.value)
		if err != nil {
			t.Errorf("Validate(%q, %q) error: %v", tt.rule, tt.value, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Validate(%q, %q) = %v, want %v", tt.rule, tt.value, got, tt.want)
		}
	}
}

func TestValidate_Patterns(t *testing.T) {
	r := NewRegistry()

	ok, err := r.Validate("/^[a-z]+$/i", "ABC")
	if err != nil || !ok {
		t.Errorf("case-insensitive pattern = %v, %v", ok, err)
	}
	ok, err = r.Validate("/^[a-z]+$/", "ABC")
	if err != nil || ok {
		t.Errorf("case-sensitive pattern = %v, %v", ok, err)
	}
}

func TestValidate_BrokenRules(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Validate("nosuchrule", "x"); !errors.Is(err, ErrUnknownRule) {
		t.Errorf("unknown rule error = %v, want ErrUnknownRule", err)
	}
	if _, err := r.Validate("/([a-z/", "x"); err == nil {
		t.Error("bad pattern error = nil, want error")
	}
	if _, err := r.Validate("/abc/q", "x"); err == nil {
		t.Error("bad flag error = nil, want error")
	}
}

func TestRegister(t *testing.T) {
	r := NewRegistry()
	r.Register("even", func(v string) bool { return len(v)%2 == 0 })
	if !r.Has("EVEN") {
		t.Fatal("Has(EVEN) = false")
	}
	if ok, _ := r.Validate("even", "ab"); !ok {
		t.Error("Validate(even, ab) = false")
	}
}
