// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store provides the SQL collaborator used by form rendering and
// processing: connection setup, identifier escaping, transactions and
// migrations.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

//go:embed migrations/sqlite/*.sql migrations/mysql/*.sql
var migrations embed.FS

// Driver names accepted by Open.
const (
	DriverSQLite    = "sqlite"  // modernc.org/sqlite
	DriverSQLiteCGO = "sqlite3" // github.com/mattn/go-sqlite3, registered by the importer
	DriverMySQL     = "mysql"
)

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB is a database handle paired with the dialect used to build statements.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// DBConfig holds database configuration options.
type DBConfig struct {
	// MaxOpenConns is the maximum number of open connections to the database.
	MaxOpenConns int
	// MaxIdleConns is the maximum number of connections in the idle connection pool.
	MaxIdleConns int
	// ConnMaxLifetime is the maximum amount of time a connection may be reused.
	ConnMaxLifetime time.Duration
	// ConnMaxIdleTime is the maximum amount of time a connection may be idle.
	ConnMaxIdleTime time.Duration
}

// DefaultDBConfig returns sensible pool defaults.
func DefaultDBConfig() DBConfig {
	return DBConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// Open connects using the named driver. For the SQLite drivers dsn is a
// file path; for MySQL it is a go-sql-driver DSN.
func Open(driver, dsn string) (*DB, error) {
	switch driver {
	case DriverSQLite:
		return NewSQLite(dsn)
	case DriverSQLiteCGO:
		return newSQLiteCGO(dsn)
	case DriverMySQL:
		return NewMySQL(dsn)
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

// NewSQLite opens a SQLite database connection and configures it for
// optimal performance.
func NewSQLite(path string) (*DB, error) {
	db, err := sql.Open(DriverSQLite, path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	configurePool(db, DefaultDBConfig())

	// Configure SQLite for better performance and concurrency
	pragmas := []string{
		"PRAGMA journal_mode=WAL",   // Write-Ahead Logging for better concurrency
		"PRAGMA busy_timeout=5000",  // Wait 5s when database is locked
		"PRAGMA synchronous=NORMAL", // Good balance of safety and speed
		"PRAGMA foreign_keys=ON",    // Enforce foreign key constraints
		"PRAGMA temp_store=MEMORY",  // Store temp tables in memory
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{DB: db, Dialect: SQLite}, nil
}

// newSQLiteCGO opens a database through the cgo driver. Pragmas go in the
// DSN so that every pooled connection gets them.
func newSQLiteCGO(path string) (*DB, error) {
	dsn := "file:" + path + "?_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL"
	db, err := sql.Open(DriverSQLiteCGO, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	configurePool(db, DefaultDBConfig())
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{DB: db, Dialect: SQLite}, nil
}

// NewMySQL opens a MySQL connection from a go-sql-driver DSN.
func NewMySQL(dsn string) (*DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	configurePool(db, DefaultDBConfig())
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{DB: db, Dialect: MySQL}, nil
}

func configurePool(db *sql.DB, cfg DBConfig) {
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
}

// Migrate runs all pending database migrations for the handle's dialect.
func Migrate(db *DB) error {
	goose.SetBaseFS(migrations)

	gooseDialect := "sqlite3"
	dir := "migrations/sqlite"
	if db.Dialect.Name == MySQL.Name {
		gooseDialect = "mysql"
		dir = "migrations/mysql"
	}
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}
	if err := goose.Up(db.DB, dir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// WithTx runs fn inside a transaction. Any error from fn, or a panic, rolls
// the transaction back; otherwise it is committed.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Quote escapes an identifier for the handle's dialect.
func (db *DB) Quote(ident string) string {
	return db.Dialect.Quote(ident)
}
