// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/testutil"
)

func TestNew(t *testing.T) {
	logger := testutil.TestLogger()

	s := New(nil, time.Hour, logger)
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.cron == nil {
		t.Error("New() scheduler has nil cron")
	}
	if s.logger != logger {
		t.Error("New() scheduler has wrong logger")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(nil, 24*time.Hour, testutil.TestLogger())

	if err := s.Start(""); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := len(s.cron.Entries()); got != 1 {
		t.Errorf("cron entries = %d, want 1", got)
	}
	s.Stop()
}

func TestScheduler_StartWithoutRetention(t *testing.T) {
	s := New(nil, 0, testutil.TestLogger())

	if err := s.Start(""); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := len(s.cron.Entries()); got != 0 {
		t.Errorf("cron entries = %d, want 0", got)
	}
	s.Stop()
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := New(nil, time.Hour, testutil.TestLogger())
	if err := s.Start("every day"); err == nil {
		s.Stop()
		t.Fatal("Start() should fail for an invalid schedule")
	}
}

func TestScheduler_PruneEvents(t *testing.T) {
	db := testutil.TestDB(t)
	insert := func(msg string, at time.Time) {
		t.Helper()
		if _, err := db.Exec(`INSERT INTO form_events (level, category, message, metadata, created_at) VALUES ('error', 'system', ?, '{}', ?)`,
			msg, at.UTC()); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	insert("old", time.Now().Add(-72*time.Hour))
	insert("recent", time.Now())

	s := New(db, 48*time.Hour, testutil.TestLogger())
	n, err := s.PruneEvents(context.Background())
	if err != nil {
		t.Fatalf("PruneEvents() error = %v", err)
	}
	if n != 1 {
		t.Errorf("PruneEvents() = %d, want 1", n)
	}
	if got := testutil.Count(t, db, "form_events", ""); got != 1 {
		t.Errorf("remaining events = %d, want 1", got)
	}

	disabled := New(db, 0, testutil.TestLogger())
	if n, err := disabled.PruneEvents(context.Background()); err != nil || n != 0 {
		t.Errorf("PruneEvents() with no retention = %d, %v", n, err)
	}
}
