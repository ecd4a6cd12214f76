// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/logging"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/store"
)

// Event list limits.
const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// EventsHandler exposes the form event log.
type EventsHandler struct {
	db     *store.DB
	logger *slog.Logger
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(db *store.DB, logger *slog.Logger) *EventsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventsHandler{db: db, logger: logger}
}

// List handles GET /events. The limit query parameter caps the result.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxEventLimit)
	}

	events, err := logging.ListEvents(r.Context(), h.db, limit)
	if err != nil {
		h.logger.Error("failed to list events", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	items := make([]map[string]any, 0, len(events))
	for _, e := range events {
		items = append(items, map[string]any{
			"id":        e.ID,
			"level":     e.Level,
			"category":  e.Category,
			"message":   e.Message,
			"metadata":  e.Metadata,
			"createdAt": e.CreatedAt,
		})
	}
	writeJSONSuccess(w, map[string]any{"events": items})
}
