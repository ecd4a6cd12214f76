// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryRender   = "render"
	EventCategoryTemplate = "template"
	EventCategoryValidate = "validation"
	EventCategoryPersist  = "persistence"
	EventCategoryConfig   = "config"
	EventCategorySystem   = "system"
)

// Event is a row of the form_events log.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	Metadata  string // JSON string
	CreatedAt time.Time
}
