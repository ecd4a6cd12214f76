// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package processor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/messages"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/model"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/store"
)

// LinkChanges lists the foreign values added to and removed from a link
// table by one reconciliation.
type LinkChanges struct {
	Added   []string
	Removed []string
}

// Empty reports whether the reconciliation changed nothing.
func (c LinkChanges) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// ProcessLinkedField makes the link table rows of record local match the
// submitted foreign values: one INSERT per added value, one DELETE per
// removed value. Run it inside the transaction of the owning write.
func (p *Processor) ProcessLinkedField(ctx context.Context, ex store.Execer, f *model.Field, local string, values []string) (LinkChanges, error) {
	var changes LinkChanges

	l := f.LinkedTo
	if !l.LinkComplete() {
		return changes, fmt.Errorf("field %q: %w", f.Name, ErrIncompleteLink)
	}
	switch n := len(p.fields.PrimaryFields()); {
	case n == 0:
		return changes, fmt.Errorf("field %q: %w", f.Name, ErrNoPrimaryField)
	case n > 1:
		return changes, fmt.Errorf("field %q: %w", f.Name, ErrMultiplePrimary)
	}
	local = strings.TrimSpace(local)
	if local == "" {
		return changes, fmt.Errorf("field %q: %w", f.Name, ErrEmptyPrimary)
	}

	d := p.db.Dialect
	table, localCol, foreignCol := d.Quote(l.LinkTable), d.Quote(l.LinkLocalField), d.Quote(l.LinkForeignField)

	current, err := currentLinks(ctx, ex,
		fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", foreignCol, table, localCol), local)
	if err != nil {
		return changes, fmt.Errorf("reading links of %q: %w", f.Name, err)
	}

	want := make(map[string]bool)
	var wanted []string
	for _, v := range model.Value(values).List() {
		if !want[v] {
			want[v] = true
			wanted = append(wanted, v)
		}
	}
	have := make(map[string]bool, len(current))
	for _, v := range current {
		have[v] = true
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (?, ?)", table, localCol, foreignCol)
	for _, v := range wanted {
		if have[v] {
			continue
		}
		if _, err := ex.ExecContext(ctx, insert, local, v); err != nil {
			return changes, fmt.Errorf("linking %q value %q: %w", f.Name, v, err)
		}
		changes.Added = append(changes.Added, v)
	}

	del := fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND %s = ?", table, localCol, foreignCol)
	for _, v := range current {
		if want[v] {
			continue
		}
		if _, err := ex.ExecContext(ctx, del, local, v); err != nil {
			return changes, fmt.Errorf("unlinking %q value %q: %w", f.Name, v, err)
		}
		changes.Removed = append(changes.Removed, v)
	}

	if !changes.Empty() {
		p.sink.Event(ctx, messages.Debug, "linked field reconciled",
			"field", f.Name, "added", len(changes.Added), "removed", len(changes.Removed))
	}
	return changes, nil
}

func currentLinks(ctx context.Context, ex store.Execer, query, local string) ([]string, error) {
	rows, err := ex.QueryContext(ctx, query, local)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	seen := make(map[string]bool)
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		if v.Valid && !seen[v.String] {
			seen[v.String] = true
			out = append(out, v.String)
		}
	}
	return out, rows.Err()
}
