// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// testDB creates a temporary migrated database.
func testDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewSQLite(filepath.Join(t.TempDir(), "store-test.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func TestDialectQuote(t *testing.T) {
	tests := []struct {
		d     Dialect
		ident string
		want  string
	}{
		{SQLite, "contacts", `"contacts"`},
		{SQLite, "c.name", `"c"."name"`},
		{SQLite, `we"ird`, `"we""ird"`},
		{MySQL, "contacts", "`contacts`"},
		{MySQL, "we`ird", "`we``ird`"},
	}
	for _, tt := range tests {
		if got := tt.d.Quote(tt.ident); got != tt.want {
			t.Errorf("%s.Quote(%q) = %s, want %s", tt.d.Name, tt.ident, got, tt.want)
		}
	}
}

func TestDialectBuild(t *testing.T) {
	got := SQLite.Build(Select{
		Table:   "tags",
		Columns: []string{"id", "name"},
		Where:   "id > 1",
		Order:   "name",
		Limit:   5,
	})
	want := `SELECT "id", "name" FROM "tags" WHERE id > 1 ORDER BY name LIMIT 5`
	if got != want {
		t.Errorf("Build() = %s, want %s", got, want)
	}

	if got := MySQL.Build(Select{Table: "t"}); got != "SELECT * FROM `t`" {
		t.Errorf("Build() = %s", got)
	}
}

func TestPlaceholders(t *testing.T) {
	if got := Placeholders(3); got != "?, ?, ?" {
		t.Errorf("Placeholders(3) = %q", got)
	}
	if got := Placeholders(0); got != "" {
		t.Errorf("Placeholders(0) = %q", got)
	}
}

func TestMigrate_SeedsTags(t *testing.T) {
	db := testDB(t)

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM tags").Scan(&count); err != nil {
		t.Fatalf("count tags: %v", err)
	}
	if count != 4 {
		t.Errorf("tags = %d, want 4", count)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO contacts (name) VALUES (?)", "Ada"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want boom", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM contacts").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("contacts = %d after rollback, want 0", count)
	}

	if err := db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO contacts (name) VALUES (?)", "Ada")
		return err
	}); err != nil {
		t.Fatalf("WithTx() error: %v", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM contacts").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("contacts = %d after commit, want 1", count)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open("oracle", "x"); err == nil {
		t.Error("Open(oracle) error = nil, want error")
	}
}

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "open.db")
	db, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = db.Close() }()
	if db.Dialect.Name != SQLite.Name {
		t.Errorf("Dialect = %s, want sqlite", db.Dialect.Name)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}
