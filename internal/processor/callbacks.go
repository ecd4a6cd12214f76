// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package processor

import (
	"context"
	"net/url"

	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/messages"
)

// Trigger names a point in the processing lifecycle.
type Trigger string

// Lifecycle triggers
const (
	BeforeInsert Trigger = "beforeInsert"
	DoInsert     Trigger = "doInsert"
	AfterInsert  Trigger = "afterInsert"
	BeforeUpdate Trigger = "beforeUpdate"
	DoUpdate     Trigger = "doUpdate"
	AfterUpdate  Trigger = "afterUpdate"
	BeforeEdit   Trigger = "beforeEdit"
	DoEdit       Trigger = "doEdit"
	AfterEdit    Trigger = "afterEdit"
	BeforeDelete Trigger = "beforeDelete"
	DoDelete     Trigger = "doDelete"
	AfterDelete  Trigger = "afterDelete"
	OnSuccess    Trigger = "onSuccess"
	OnFailure    Trigger = "onFailure"
)

// Triggers returns every lifecycle trigger in invocation order.
func Triggers() []Trigger {
	return []Trigger{
		BeforeInsert, DoInsert, AfterInsert,
		BeforeUpdate, DoUpdate, AfterUpdate,
		BeforeEdit, DoEdit, AfterEdit,
		BeforeDelete, DoDelete, AfterDelete,
		OnSuccess, OnFailure,
	}
}

// IsValid reports whether t is a known trigger.
func (t Trigger) IsValid() bool {
	for _, known := range Triggers() {
		if t == known {
			return true
		}
	}
	return false
}

// Event is passed to callbacks. Before callbacks may replace Data, Rows or
// Deleted; the replacement is what the following step sees.
type Event struct {
	Trigger Trigger
	Type    Type
	Data    url.Values
	Rows    []Row
	Deleted []string
	// Code is the outcome so far. It is meaningful for after callbacks,
	// OnSuccess and OnFailure.
	Code Code
}

// Callback handles a trigger.
//
// Before callbacks abort processing by returning anything but CodeOK. Do
// callbacks replace the built-in step and return its outcome. After
// callbacks and OnSuccess observe; their result is ignored. OnFailure
// returns the final outcome: CodeOK vetoes the failure.
type Callback func(ctx context.Context, p *Processor, ev *Event) Code

// On registers cb for t, replacing any earlier callback. A nil cb restores
// the built-in behavior.
func (p *Processor) On(t Trigger, cb Callback) {
	if cb == nil {
		delete(p.callbacks, t)
		return
	}
	p.callbacks[t] = cb
}

// HasCallback reports whether a callback is registered for t.
func (p *Processor) HasCallback(t Trigger) bool {
	_, ok := p.callbacks[t]
	return ok
}

// dispatch runs the callback registered for t, or def when there is none.
// A nil def means the trigger has no built-in step.
func (p *Processor) dispatch(ctx context.Context, t Trigger, ev *Event, def func() Code) Code {
	ev.Trigger = t
	if cb, ok := p.callbacks[t]; ok {
		p.sink.Event(ctx, messages.Debug, "running form callback", "trigger", string(t))
		return cb(ctx, p, ev)
	}
	if def == nil {
		return CodeOK
	}
	return def()
}
