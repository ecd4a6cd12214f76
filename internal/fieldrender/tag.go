// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package fieldrender

import (
	"html"
	"strings"

	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/model"
)

// tag builds an opening HTML tag. The first write of an attribute wins.
type tag struct {
	sb   strings.Builder
	seen map[string]bool
}

func newTag(name string) *tag {
	t := &tag{seen: make(map[string]bool)}
	t.sb.WriteByte('<')
	t.sb.WriteString(name)
	return t
}

// attr writes key="value", skipping empty values.
func (t *tag) attr(key, value string) {
	if value == "" {
		return
	}
	t.always(key, value)
}

// always writes key="value" even when value is empty.
func (t *tag) always(key, value string) {
	k := strings.ToLower(key)
	if k == "" || t.seen[k] || !validAttrName(k) {
		return
	}
	t.seen[k] = true
	t.sb.WriteByte(' ')
	t.sb.WriteString(key)
	t.sb.WriteString(`="`)
	t.sb.WriteString(html.EscapeString(value))
	t.sb.WriteByte('"')
}

// flag writes a bare boolean attribute when on.
func (t *tag) flag(key string, on bool) {
	if !on || t.seen[key] {
		return
	}
	t.seen[key] = true
	t.sb.WriteByte(' ')
	t.sb.WriteString(key)
}

func (t *tag) attrs(a model.Attrs) {
	for _, attr := range a {
		t.attr(attr.Key, attr.Value)
	}
}

func (t *tag) open() string {
	return t.sb.String() + ">"
}

// validAttrName rejects names that would break out of the tag.
func validAttrName(name string) bool {
	for _, r := range name {
		switch r {
		case ' ', '\t', '\n', '\r', '"', '\'', '>', '<', '/', '=', '`':
			return false
		}
	}
	return true
}

// Attributes renders a ` key="value"` list for use in hand-built tags.
// Keys that are not valid attribute names are dropped.
func Attributes(a model.Attrs) string {
	t := &tag{seen: make(map[string]bool)}
	t.attrs(a)
	return t.sb.String()
}
