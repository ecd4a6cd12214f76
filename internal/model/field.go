// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyName is returned when a field is declared without a name.
var ErrEmptyName = errors.New("field name is required")

// Field option names, as used in YAML definitions, template tag attributes
// and Collection.Modify. Matching is case-insensitive.
const (
	OptName            = "name"
	OptType            = "type"
	OptValue           = "value"
	OptLabel           = "label"
	OptFieldID         = "fieldID"
	OptPlaceholder     = "placeholder"
	OptRequired        = "required"
	OptDisabled        = "disabled"
	OptReadonly        = "readonly"
	OptDuplicates      = "duplicates"
	OptMultiple        = "multiple"
	OptOrder           = "order"
	OptOptions         = "options"
	OptBoolean         = "boolean"
	OptLinkedTo        = "linkedTo"
	OptHelp            = "help"
	OptValidate        = "validate"
	OptShowInEditStrip = "showInEditStrip"
	OptPrimary         = "primary"
	OptDisableStyling  = "disableStyling"
	OptLabelClass      = "labelClass"
	OptLabelStyle      = "labelStyle"
	OptFieldClass      = "fieldClass"
	OptFieldStyle      = "fieldStyle"
	OptLabelMetadata   = "labelMetadata"
	OptFieldMetadata   = "fieldMetadata"
)

var optionNames = func() map[string]string {
	names := []string{
		OptName, OptType, OptValue, OptLabel, OptFieldID, OptPlaceholder,
		OptRequired, OptDisabled, OptReadonly, OptDuplicates, OptMultiple,
		OptOrder, OptOptions, OptBoolean, OptLinkedTo, OptHelp, OptValidate,
		OptShowInEditStrip, OptPrimary, OptDisableStyling, OptLabelClass,
		OptLabelStyle, OptFieldClass, OptFieldStyle, OptLabelMetadata,
		OptFieldMetadata,
	}
	m := make(map[string]string, len(names))
	for _, n := range names {
		m[strings.ToLower(n)] = n
	}
	return m
}()

// CanonicalOption returns the canonical spelling of a field option name and
// whether name is a known option.
func CanonicalOption(name string) (string, bool) {
	canon, ok := optionNames[strings.ToLower(name)]
	return canon, ok
}

// LinkedTo describes a foreign table driving a field's options, and
// optionally a link (junction) table for many-to-many persistence.
type LinkedTo struct {
	Table      string
	KeyField   string
	LabelField string
	Where      string
	Order      string
	Limit      int
	// Query replaces the generated lookup. It must select the key and the
	// label as its first two columns.
	Query string

	LinkTable        string
	LinkLocalField   string
	LinkForeignField string
}

// ManyToMany reports whether the field persists through a link table.
func (l *LinkedTo) ManyToMany() bool {
	return l != nil && l.LinkTable != ""
}

// Complete reports whether enough metadata exists to look up options.
func (l *LinkedTo) Complete() bool {
	if l == nil {
		return false
	}
	if l.Query != "" {
		return true
	}
	return l.Table != "" && l.KeyField != "" && l.LabelField != ""
}

// LinkComplete reports whether the link-table triple is fully declared.
func (l *LinkedTo) LinkComplete() bool {
	return l != nil && l.LinkTable != "" && l.LinkLocalField != "" && l.LinkForeignField != ""
}

// Help types
const (
	HelpTooltip   = "tooltip"
	HelpModal     = "modal"
	HelpNewWindow = "newWindow"
)

// Help describes optional help attached to a field.
type Help struct {
	Type     string
	Text     string
	URL      string
	Markdown bool
}

// Boolean render sub-types
const (
	BooleanSelect   = "select"
	BooleanRadio    = "radio"
	BooleanCheckbox = "checkbox"
)

// BooleanOptions controls how a boolean field is expanded.
type BooleanOptions struct {
	// Type is select (default), radio or checkbox.
	Type string
	// Labels holds the labels for 0 and 1, in that order.
	Labels []string
	// Blank adds an empty first option to the select variant.
	Blank bool
}

// Field is the declaration of one form field.
type Field struct {
	Name        string
	Type        string
	Value       Value
	Label       string
	FieldID     string
	Placeholder string

	Required bool
	Disabled bool
	Readonly bool
	// Unique rejects values already present in the bound table. It is the
	// inverse of the "duplicates" option, which defaults to true.
	Unique   bool
	Multiple bool

	// Order is nil for unordered fields; they sort after every ordered one.
	Order *int

	Options  Options
	Boolean  BooleanOptions
	LinkedTo *LinkedTo
	Help     *Help
	Validate string

	ShowInEditStrip bool
	Primary         bool
	DisableStyling  bool

	LabelClass    string
	LabelStyle    string
	FieldClass    string
	FieldStyle    string
	LabelMetadata Attrs
	FieldMetadata Attrs

	// Extra holds unrecognized keys from FieldFromMap.
	Extra Attrs
}

// NewField creates a text field with the given name.
func NewField(name string) (*Field, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	return &Field{Name: name, Type: FieldTypeText}, nil
}

// FieldFromMap creates a field from a full attribute mapping. Unknown keys
// are kept in Extra.
func FieldFromMap(m map[string]any) (*Field, error) {
	name, _ := m[OptName].(string)
	f, err := NewField(name)
	if err != nil {
		return nil, err
	}
	for key, val := range m {
		if strings.EqualFold(key, OptName) {
			continue
		}
		if _, known := CanonicalOption(key); !known {
			f.Extra.Set(key, stringOf(val))
			continue
		}
		if err := f.Set(key, val); err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
	}
	return f, nil
}

// OrderOf returns a pointer suitable for Field.Order.
func OrderOf(n int) *int {
	return &n
}

// IsSystem reports whether the field is form plumbing (name prefixed "__").
func (f *Field) IsSystem() bool {
	return IsSystemName(f.Name)
}

// IsHidden reports whether the field renders as a hidden input.
func (f *Field) IsHidden() bool {
	return f.Type == FieldTypeHidden
}

// Persistable reports whether the field takes part in validation and SQL.
func (f *Field) Persistable() bool {
	return !f.IsSystem() && isDataType(f.Type)
}

// MultiValue reports whether the field submits a list of values.
func (f *Field) MultiValue() bool {
	switch f.Type {
	case FieldTypeCheckbox:
		return len(f.Options) > 0 || f.LinkedTo.Complete()
	case FieldTypeMultiselect:
		return true
	}
	return f.Multiple || f.LinkedTo.ManyToMany()
}

// DisplayLabel returns the label, falling back to the name.
func (f *Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// Clone returns a deep copy of f.
func (f *Field) Clone() *Field {
	c := *f
	c.Value = append(Value(nil), f.Value...)
	c.Options = append(Options(nil), f.Options...)
	c.Boolean.Labels = append([]string(nil), f.Boolean.Labels...)
	c.LabelMetadata = append(Attrs(nil), f.LabelMetadata...)
	c.FieldMetadata = append(Attrs(nil), f.FieldMetadata...)
	c.Extra = append(Attrs(nil), f.Extra...)
	if f.Order != nil {
		c.Order = OrderOf(*f.Order)
	}
	if f.LinkedTo != nil {
		l := *f.LinkedTo
		c.LinkedTo = &l
	}
	if f.Help != nil {
		h := *f.Help
		c.Help = &h
	}
	return &c
}

// Get returns the value of a named option. The second result is false for
// unknown options.
func (f *Field) Get(option string) (any, bool) {
	canon, ok := CanonicalOption(option)
	if !ok {
		return nil, false
	}
	switch canon {
	case OptName:
		return f.Name, true
	case OptType:
		return f.Type, true
	case OptValue:
		return f.Value, true
	case OptLabel:
		return f.Label, true
	case OptFieldID:
		return f.FieldID, true
	case OptPlaceholder:
		return f.Placeholder, true
	case OptRequired:
		return f.Required, true
	case OptDisabled:
		return f.Disabled, true
	case OptReadonly:
		return f.Readonly, true
	case OptDuplicates:
		return !f.Unique, true
	case OptMultiple:
		return f.Multiple, true
	case OptOrder:
		return f.Order, true
	case OptOptions:
		return f.Options, true
	case OptBoolean:
		return f.Boolean, true
	case OptLinkedTo:
		return f.LinkedTo, true
	case OptHelp:
		return f.Help, true
	case OptValidate:
		return f.Validate, true
	case OptShowInEditStrip:
		return f.ShowInEditStrip, true
	case OptPrimary:
		return f.Primary, true
	case OptDisableStyling:
		return f.DisableStyling, true
	case OptLabelClass:
		return f.LabelClass, true
	case OptLabelStyle:
		return f.LabelStyle, true
	case OptFieldClass:
		return f.FieldClass, true
	case OptFieldStyle:
		return f.FieldStyle, true
	case OptLabelMetadata:
		return f.LabelMetadata, true
	case OptFieldMetadata:
		return f.FieldMetadata, true
	}
	return nil, false
}

// Set assigns a named option, converting loosely typed input.
func (f *Field) Set(option string, v any) error {
	canon, ok := CanonicalOption(option)
	if !ok {
		return fmt.Errorf("unknown field option %q", option)
	}
	var err error
	switch canon {
	case OptName:
		name := strings.TrimSpace(stringOf(v))
		if name == "" {
			return ErrEmptyName
		}
		f.Name = name
	case OptType:
		f.Type = NormalizeType(stringOf(v))
	case OptValue:
		f.Value = ValueOf(v)
	case OptLabel:
		f.Label = stringOf(v)
	case OptFieldID:
		f.FieldID = stringOf(v)
	case OptPlaceholder:
		f.Placeholder = stringOf(v)
	case OptRequired:
		f.Required, err = boolOf(v)
	case OptDisabled:
		f.Disabled, err = boolOf(v)
	case OptReadonly:
		f.Readonly, err = boolOf(v)
	case OptDuplicates:
		var dup bool
		dup, err = boolOf(v)
		f.Unique = !dup
	case OptMultiple:
		f.Multiple, err = boolOf(v)
	case OptOrder:
		err = f.setOrder(v)
	case OptOptions:
		f.Options, err = OptionsOf(v)
	case OptBoolean:
		err = f.setBoolean(v)
	case OptLinkedTo:
		err = f.setLinkedTo(v)
	case OptHelp:
		err = f.setHelp(v)
	case OptValidate:
		f.Validate = stringOf(v)
	case OptShowInEditStrip:
		f.ShowInEditStrip, err = boolOf(v)
	case OptPrimary:
		f.Primary, err = boolOf(v)
	case OptDisableStyling:
		f.DisableStyling, err = boolOf(v)
	case OptLabelClass:
		f.LabelClass = stringOf(v)
	case OptLabelStyle:
		f.LabelStyle = stringOf(v)
	case OptFieldClass:
		f.FieldClass = stringOf(v)
	case OptFieldStyle:
		f.FieldStyle = stringOf(v)
	case OptLabelMetadata:
		f.LabelMetadata, err = AttrsOf(v)
	case OptFieldMetadata:
		f.FieldMetadata, err = AttrsOf(v)
	}
	if err != nil {
		return fmt.Errorf("option %s: %w", canon, err)
	}
	return nil
}

func (f *Field) setOrder(v any) error {
	switch val := v.(type) {
	case nil:
		f.Order = nil
		return nil
	case *int:
		f.Order = val
		return nil
	case string:
		if strings.TrimSpace(val) == "" {
			f.Order = nil
			return nil
		}
	}
	n, err := intOf(v)
	if err != nil {
		return err
	}
	f.Order = OrderOf(n)
	return nil
}

func (f *Field) setBoolean(v any) error {
	switch val := v.(type) {
	case BooleanOptions:
		f.Boolean = val
		return nil
	case map[string]any:
		var opts BooleanOptions
		opts.Type = stringOf(val["type"])
		if labels, ok := val["labels"].([]any); ok {
			for _, l := range labels {
				opts.Labels = append(opts.Labels, stringOf(l))
			}
		}
		blank, err := boolOf(val["blank"])
		if err != nil {
			return err
		}
		opts.Blank = blank
		f.Boolean = opts
		return nil
	}
	return fmt.Errorf("unsupported boolean options type %T", v)
}

func (f *Field) setLinkedTo(v any) error {
	switch val := v.(type) {
	case nil:
		f.LinkedTo = nil
		return nil
	case *LinkedTo:
		f.LinkedTo = val
		return nil
	case LinkedTo:
		f.LinkedTo = &val
		return nil
	case map[string]any:
		l := &LinkedTo{
			Table:            stringOf(val["table"]),
			KeyField:         stringOf(val["keyField"]),
			LabelField:       stringOf(val["labelField"]),
			Where:            stringOf(val["where"]),
			Order:            stringOf(val["order"]),
			Query:            stringOf(val["query"]),
			LinkTable:        stringOf(val["linkTable"]),
			LinkLocalField:   stringOf(val["linkLocalField"]),
			LinkForeignField: stringOf(val["linkForeignField"]),
		}
		if limit, ok := val["limit"]; ok && limit != nil {
			n, err := intOf(limit)
			if err != nil {
				return err
			}
			l.Limit = n
		}
		f.LinkedTo = l
		return nil
	}
	return fmt.Errorf("unsupported linkedTo type %T", v)
}

func (f *Field) setHelp(v any) error {
	switch val := v.(type) {
	case nil:
		f.Help = nil
		return nil
	case *Help:
		f.Help = val
		return nil
	case string:
		f.Help = &Help{Type: HelpTooltip, Text: val}
		return nil
	case map[string]any:
		h := &Help{
			Type: stringOf(val["type"]),
			Text: stringOf(val["text"]),
			URL:  stringOf(val["url"]),
		}
		if h.Type == "" {
			h.Type = HelpTooltip
		}
		md, err := boolOf(val["markdown"])
		if err != nil {
			return err
		}
		h.Markdown = md
		f.Help = h
		return nil
	}
	return fmt.Errorf("unsupported help type %T", v)
}
