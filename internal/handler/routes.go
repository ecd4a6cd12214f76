// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the HTTP handlers of the form server.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Mount registers the form server routes on r. The submit middlewares
// wrap only form submission.
func Mount(r chi.Router, fh *FormsHandler, hh *HealthHandler, eh *EventsHandler, submit ...func(http.Handler) http.Handler) {
	r.Get("/health", hh.Health)
	r.Get("/events", eh.List)
	r.Route("/forms", func(r chi.Router) {
		r.Get("/", fh.List)
		r.Get("/{name}", fh.Show)
		r.With(submit...).Post("/{name}", fh.Submit)
	})
}
