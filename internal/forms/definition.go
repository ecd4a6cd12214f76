// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package forms

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/fields"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/formtmpl"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/model"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/processor"
)

// ErrInvalidDefinition is returned for definitions that cannot be served.
var ErrInvalidDefinition = errors.New("invalid form definition")

// Definition declares a form. It is shared by every request and must not
// be modified after registration; each request works on a copy of Fields.
type Definition struct {
	Name  string
	Title string
	Type  processor.Type
	Table *formtmpl.Table
	// Primary names fields that identify a record, in addition to fields
	// declared with Primary set.
	Primary []string
	Fields  []*model.Field

	// Template is inline template text. TemplateFile names a file read
	// through the registry's loader. Without either the form uses the
	// built-in layout for its type.
	Template     string
	TemplateFile string

	Callbacks map[processor.Trigger]processor.Callback
}

// On registers a processing callback for the form.
func (d *Definition) On(t processor.Trigger, cb processor.Callback) {
	if d.Callbacks == nil {
		d.Callbacks = make(map[processor.Trigger]processor.Callback)
	}
	d.Callbacks[t] = cb
}

// Validate checks the definition for problems that would make every
// request fail.
func (d *Definition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if model.IsSystemName(d.Name) {
		return fmt.Errorf("%w: form %q: name must not start with %q", ErrInvalidDefinition, d.Name, model.SystemPrefix)
	}
	if d.Type != "" {
		if _, err := processor.ParseType(string(d.Type)); err != nil {
			return fmt.Errorf("%w: form %q: %v", ErrInvalidDefinition, d.Name, err)
		}
		if d.Table == nil || d.Table.Name == "" {
			return fmt.Errorf("%w: form %q: type %s requires a table", ErrInvalidDefinition, d.Name, d.Type)
		}
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("%w: form %q has no fields", ErrInvalidDefinition, d.Name)
	}
	for t := range d.Callbacks {
		if !t.IsValid() {
			return fmt.Errorf("%w: form %q: unknown trigger %q", ErrInvalidDefinition, d.Name, t)
		}
	}
	if _, err := d.Collection(); err != nil {
		return err
	}
	return nil
}

// Collection builds a request-private collection from copies of the
// declared fields.
func (d *Definition) Collection() (*fields.Collection, error) {
	c := fields.New()
	c.AddPrimaryNames(d.Primary...)
	for _, f := range d.Fields {
		if f == nil {
			continue
		}
		if !c.Add(f.Clone()) {
			return nil, fmt.Errorf("%w: form %q: duplicate field %q", ErrInvalidDefinition, d.Name, f.Name)
		}
	}
	return c, nil
}
