// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package fields provides the ordered, indexed field collection shared by a
// form's renderer and processor.
package fields

import (
	"sort"
	"strconv"
	"strings"

	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/model"
)

// EditStrip filters Sorted results by the ShowInEditStrip flag.
type EditStrip int

const (
	// EditStripAny applies no filtering.
	EditStripAny EditStrip = iota
	// EditStripOnly keeps fields shown in the edit strip.
	EditStripOnly
	// EditStripExclude keeps fields not shown in the edit strip.
	EditStripExclude
)

// EditStripOf maps the tri-state template attribute (true/false/absent).
func EditStripOf(value string, present bool) EditStrip {
	if !present || strings.TrimSpace(value) == "" {
		return EditStripAny
	}
	if model.ParseBool(value) {
		return EditStripOnly
	}
	return EditStripExclude
}

// Collection is an ordered set of fields with unique names, labels and IDs.
// Iteration via Fields is insertion order; Sorted applies the order option.
type Collection struct {
	fields  []*model.Field
	byName  map[string]*model.Field
	byLabel map[string]*model.Field
	byID    map[string]*model.Field
	primary map[string]bool

	sorted    map[EditStrip][]*model.Field
	sortedSig string
}

// New creates an empty collection.
func New() *Collection {
	return &Collection{
		byName:  make(map[string]*model.Field),
		byLabel: make(map[string]*model.Field),
		byID:    make(map[string]*model.Field),
		primary: make(map[string]bool),
		sorted:  make(map[EditStrip][]*model.Field),
	}
}

// Len returns the number of fields.
func (c *Collection) Len() int {
	return len(c.fields)
}

// Add inserts f. It returns false without modifying the collection when the
// name, a non-empty label or a non-empty field ID is already taken. The
// type is normalized. Primary fields are forced disabled so their identity
// cannot be edited client side.
func (c *Collection) Add(f *model.Field) bool {
	if f == nil || f.Name == "" {
		return false
	}
	if _, exists := c.byName[f.Name]; exists {
		return false
	}
	if f.Label != "" {
		if _, exists := c.byLabel[f.Label]; exists {
			return false
		}
	}
	if f.FieldID != "" {
		if _, exists := c.ByFieldID(f.FieldID); exists {
			return false
		}
	}

	f.Type = model.NormalizeType(f.Type)
	if c.primary[f.Name] {
		f.Primary = true
	}
	if f.Primary {
		c.primary[f.Name] = true
		f.Disabled = true
	}

	c.fields = append(c.fields, f)
	c.index(f)
	c.invalidate()
	return true
}

// Remove deletes the named field. Primary designations recorded for the
// name are kept.
func (c *Collection) Remove(name string) bool {
	f, ok := c.byName[name]
	if !ok {
		return false
	}
	for i, existing := range c.fields {
		if existing == f {
			c.fields = append(c.fields[:i], c.fields[i+1:]...)
			break
		}
	}
	c.unindex(f)
	c.invalidate()
	return true
}

// Get returns the named field.
func (c *Collection) Get(name string) (*model.Field, bool) {
	f, ok := c.byName[name]
	return f, ok
}

// ByLabel returns the field with the given label.
func (c *Collection) ByLabel(label string) (*model.Field, bool) {
	f, ok := c.byLabel[label]
	return f, ok
}

// ByFieldID returns the field with the given HTML id. IDs assigned directly
// on a member, e.g. lazily by the renderer, are picked up and indexed.
func (c *Collection) ByFieldID(id string) (*model.Field, bool) {
	if f, ok := c.byID[id]; ok && f.FieldID == id {
		return f, true
	}
	for _, f := range c.fields {
		if f.FieldID == id && id != "" {
			c.byID[id] = f
			return f, true
		}
	}
	return nil, false
}

// Fields returns the fields in insertion order.
func (c *Collection) Fields() []*model.Field {
	return append([]*model.Field(nil), c.fields...)
}

// Names returns the field names in insertion order.
func (c *Collection) Names() []string {
	names := make([]string, len(c.fields))
	for i, f := range c.fields {
		names[i] = f.Name
	}
	return names
}

// Modify sets an option on the named field. Renaming is refused; label and
// field ID changes are refused when they collide with another field.
func (c *Collection) Modify(name, option string, value any) bool {
	f, ok := c.byName[name]
	if !ok {
		return false
	}
	canon, known := model.CanonicalOption(option)
	if !known || canon == model.OptName {
		return false
	}

	probe := f.Clone()
	if err := probe.Set(canon, value); err != nil {
		return false
	}
	switch canon {
	case model.OptLabel:
		if other, exists := c.byLabel[probe.Label]; exists && other != f && probe.Label != "" {
			return false
		}
	case model.OptFieldID:
		if other, exists := c.byID[probe.FieldID]; exists && other != f && probe.FieldID != "" {
			return false
		}
	}

	c.unindex(f)
	_ = f.Set(canon, value)
	c.index(f)

	switch canon {
	case model.OptPrimary:
		if f.Primary {
			c.primary[f.Name] = true
			f.Disabled = true
		} else {
			delete(c.primary, f.Name)
		}
	case model.OptOrder, model.OptShowInEditStrip:
		c.invalidate()
	}
	return true
}

// SetFieldID assigns a generated HTML id, keeping the id index current.
func (c *Collection) SetFieldID(name, id string) bool {
	return c.Modify(name, model.OptFieldID, id)
}

// AddPrimaryNames records names as primary. Fields already present are
// marked primary and disabled; fields added later inherit the designation.
func (c *Collection) AddPrimaryNames(names ...string) {
	for _, name := range names {
		c.primary[name] = true
		if f, ok := c.byName[name]; ok {
			f.Primary = true
			f.Disabled = true
		}
	}
}

// IsPrimary reports whether name is a primary field.
func (c *Collection) IsPrimary(name string) bool {
	return c.primary[name]
}

// PrimaryFields returns the primary fields present in the collection, in
// insertion order.
func (c *Collection) PrimaryFields() []*model.Field {
	var out []*model.Field
	for _, f := range c.fields {
		if c.primary[f.Name] {
			out = append(out, f)
		}
	}
	return out
}

// Sorted returns fields grouped by ascending order. Unordered fields follow
// every ordered group. Ties and unordered fields keep insertion order. The
// result is memoized per filter until order or edit-strip flags change.
func (c *Collection) Sorted(filter EditStrip) []*model.Field {
	if sig := c.signature(); sig != c.sortedSig {
		c.invalidate()
		c.sortedSig = sig
	}
	if cached, ok := c.sorted[filter]; ok {
		return append([]*model.Field(nil), cached...)
	}

	ordered := make([]*model.Field, len(c.fields))
	copy(ordered, c.fields)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].Order, ordered[j].Order
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})

	out := make([]*model.Field, 0, len(ordered))
	for _, f := range ordered {
		switch filter {
		case EditStripOnly:
			if !f.ShowInEditStrip {
				continue
			}
		case EditStripExclude:
			if f.ShowInEditStrip {
				continue
			}
		}
		out = append(out, f)
	}
	c.sorted[filter] = out
	return append([]*model.Field(nil), out...)
}

// signature captures everything Sorted depends on, so direct mutation of a
// member's Order or ShowInEditStrip still invalidates the cache.
func (c *Collection) signature() string {
	var sb strings.Builder
	for _, f := range c.fields {
		sb.WriteString(f.Name)
		sb.WriteByte(':')
		if f.Order != nil {
			sb.WriteString(strconv.Itoa(*f.Order))
		} else {
			sb.WriteByte('-')
		}
		if f.ShowInEditStrip {
			sb.WriteByte('e')
		}
		sb.WriteByte(';')
	}
	return sb.String()
}

func (c *Collection) invalidate() {
	c.sorted = make(map[EditStrip][]*model.Field)
}

func (c *Collection) index(f *model.Field) {
	c.byName[f.Name] = f
	if f.Label != "" {
		c.byLabel[f.Label] = f
	}
	if f.FieldID != "" {
		c.byID[f.FieldID] = f
	}
}

func (c *Collection) unindex(f *model.Field) {
	delete(c.byName, f.Name)
	if f.Label != "" && c.byLabel[f.Label] == f {
		delete(c.byLabel, f.Label)
	}
	if f.FieldID != "" && c.byID[f.FieldID] == f {
		delete(c.byID, f.FieldID)
	}
}
