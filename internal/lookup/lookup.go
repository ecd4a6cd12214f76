// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package lookup resolves the options of linked fields from their foreign
// table, optionally caching the results.
package lookup

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/cache"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/model"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/store"
)

// ErrIncomplete is returned for a LinkedTo without enough metadata to
// build a query.
var ErrIncomplete = errors.New("incomplete linkedTo metadata")

// Source runs linked option queries.
type Source struct {
	db     *store.DB
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a lookup source. A nil cache or zero ttl disables caching.
func New(db *store.DB, c cache.Cache, ttl time.Duration, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		c = nil
	}
	return &Source{db: db, cache: c, ttl: ttl, logger: logger}
}

// Query returns the SQL used for l.
func (s *Source) Query(l *model.LinkedTo) (string, error) {
	if !l.Complete() {
		return "", ErrIncomplete
	}
	if l.Query != "" {
		return l.Query, nil
	}
	return s.db.Dialect.Build(store.Select{
		Table:   l.Table,
		Columns: []string{l.KeyField, l.LabelField},
		Where:   l.Where,
		Order:   l.Order,
		Limit:   l.Limit,
	}), nil
}

// Options returns the key/label pairs selected by l, in query order.
func (s *Source) Options(ctx context.Context, l *model.LinkedTo) (model.Options, error) {
	query, err := s.Query(l)
	if err != nil {
		return nil, err
	}

	key := cacheKey(query)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var opts model.Options
			if err := json.Unmarshal(data, &opts); err == nil {
				return opts, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("lookup cache read failed", "error", err)
		}
	}

	opts, err := s.fetch(ctx, query)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(opts); err == nil {
			if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
				s.logger.Warn("lookup cache write failed", "error", err)
			}
		}
	}
	return opts, nil
}

// Invalidate drops every cached lookup. It is called after a form write,
// since the written table may feed another form's options.
func (s *Source) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Clear(ctx); err != nil {
		s.logger.Warn("clearing lookup cache", "error", err)
	}
}

func (s *Source) fetch(ctx context.Context, query string) (model.Options, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying linked options: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading linked option columns: %w", err)
	}
	if len(cols) < 2 {
		return nil, fmt.Errorf("linked option query selects %d columns, need 2", len(cols))
	}

	dest := make([]any, len(cols))
	for i := range dest {
		dest[i] = new(sql.NullString)
	}

	opts := model.Options{}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning linked option: %w", err)
		}
		opts = append(opts, model.Option{
			Value: dest[0].(*sql.NullString).String,
			Label: dest[1].(*sql.NullString).String,
		})
	}
	return opts, rows.Err()
}

func cacheKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return "lookup:" + hex.EncodeToString(sum[:])
}
