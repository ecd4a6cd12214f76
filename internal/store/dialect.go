// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"strconv"
	"strings"
)

// Dialect captures the few SQL differences the form toolkit cares about.
// Both supported dialects use "?" placeholders.
type Dialect struct {
	Name  string
	quote byte
	// UpdateLimit reports support for "UPDATE ... LIMIT n".
	UpdateLimit bool
}

// Supported dialects
var (
	SQLite = Dialect{Name: "sqlite", quote: '"'}
	MySQL  = Dialect{Name: "mysql", quote: '`', UpdateLimit: true}
)

// Quote escapes an identifier. Dotted identifiers (table.column) are quoted
// per segment; embedded quote characters are doubled.
func (d Dialect) Quote(ident string) string {
	q := string(d.quote)
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		parts[i] = q + strings.ReplaceAll(strings.TrimSpace(p), q, q+q) + q
	}
	return strings.Join(parts, ".")
}

// QuoteList quotes and comma-joins identifiers.
func (d Dialect) QuoteList(idents []string) string {
	quoted := make([]string, len(idents))
	for i, ident := range idents {
		quoted[i] = d.Quote(ident)
	}
	return strings.Join(quoted, ", ")
}

// Select describes a single-table SELECT. Where and Order are trusted SQL
// fragments from form configuration, never user input.
type Select struct {
	Table   string
	Columns []string
	Where   string
	Order   string
	Limit   int
}

// Build renders the statement. An empty column list selects "*".
func (d Dialect) Build(s Select) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if len(s.Columns) == 0 {
		sb.WriteString("*")
	} else {
		sb.WriteString(d.QuoteList(s.Columns))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(d.Quote(s.Table))
	if w := strings.TrimSpace(s.Where); w != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(w)
	}
	if o := strings.TrimSpace(s.Order); o != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(o)
	}
	if s.Limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(s.Limit))
	}
	return sb.String()
}

// Placeholders returns n comma-separated "?" markers.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
