// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance of the form event log.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/logging"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/store"
)

// DefaultPruneSchedule prunes the event log once a day at 03:00.
const DefaultPruneSchedule = "0 3 * * *"

// Scheduler prunes form events older than the retention period.
type Scheduler struct {
	db        *store.DB
	retention time.Duration
	cron      *cron.Cron
	logger    *slog.Logger
}

// New creates a new scheduler instance. A zero retention disables pruning.
func New(db *store.DB, retention time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		db:        db,
		retention: retention,
		cron:      cron.New(),
		logger:    logger,
	}
}

// Start registers the prune job on schedule (DefaultPruneSchedule when
// empty) and starts the scheduler.
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultPruneSchedule
	}
	if s.retention > 0 {
		if _, err := s.cron.AddFunc(schedule, func() {
			if _, err := s.PruneEvents(context.Background()); err != nil {
				s.logger.Error("failed to prune form events", "error", err)
			}
		}); err != nil {
			return fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// PruneEvents deletes events older than the retention period.
func (s *Scheduler) PruneEvents(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	n, err := logging.Prune(ctx, s.db, s.retention)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("pruned form events", "count", n, "retention", s.retention.String())
	}
	return n, nil
}
