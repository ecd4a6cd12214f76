// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Value holds a field value. Scalar fields use a single element, multi-value
// fields (checkbox groups, multi-selects, linked fields) use one element per
// selected value.
type Value []string

// Scalar creates a single-element Value.
func Scalar(s string) Value {
	return Value{s}
}

// List creates a multi-element Value.
func List(items ...string) Value {
	return append(Value(nil), items...)
}

// ValueOf converts a loosely typed value (as found in YAML definitions or
// render overrides) into a Value.
func ValueOf(v any) Value {
	switch val := v.(type) {
	case nil:
		return nil
	case Value:
		return val
	case string:
		return Value{val}
	case []string:
		return List(val...)
	case []any:
		out := make(Value, 0, len(val))
		for _, item := range val {
			out = append(out, stringOf(item))
		}
		return out
	default:
		return Value{stringOf(val)}
	}
}

// String returns the value as a single string. Multiple elements are joined
// with commas, matching how non-linked multi-value fields are stored.
func (v Value) String() string {
	return strings.Join(v, ",")
}

// List returns the value normalized to a list. A single element containing
// commas is treated as CSV. Empty items are dropped.
func (v Value) List() []string {
	var parts []string
	if len(v) == 1 && strings.Contains(v[0], ",") {
		parts = strings.Split(v[0], ",")
	} else {
		parts = v
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsEmpty reports whether the value has no non-empty element.
func (v Value) IsEmpty() bool {
	for _, s := range v {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

// Contains reports whether s is one of the normalized list items.
func (v Value) Contains(s string) bool {
	for _, item := range v.List() {
		if item == s {
			return true
		}
	}
	return false
}

// Option is one selectable value of a choice field.
type Option struct {
	Value string
	Label string
}

// Options is an ordered value->label mapping.
type Options []Option

// Label returns the label for value and whether it exists.
func (o Options) Label(value string) (string, bool) {
	for _, opt := range o {
		if opt.Value == value {
			return opt.Label, true
		}
	}
	return "", false
}

// OptionsOf converts YAML-style option declarations into Options. Accepted
// shapes: a list of strings (value and label equal), a list of
// {value, label} maps, or a map of value->label (sorted by value, since Go
// maps carry no order).
func OptionsOf(v any) (Options, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case Options:
		return val, nil
	case []string:
		out := make(Options, 0, len(val))
		for _, s := range val {
			out = append(out, Option{Value: s, Label: s})
		}
		return out, nil
	case []any:
		out := make(Options, 0, len(val))
		for _, item := range val {
			switch it := item.(type) {
			case map[string]any:
				value := stringOf(it["value"])
				label := value
				if l, ok := it["label"]; ok {
					label = stringOf(l)
				}
				out = append(out, Option{Value: value, Label: label})
			default:
				s := stringOf(it)
				out = append(out, Option{Value: s, Label: s})
			}
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(Options, 0, len(keys))
		for _, k := range keys {
			out = append(out, Option{Value: k, Label: stringOf(val[k])})
		}
		return out, nil
	case map[string]string:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(Options, 0, len(keys))
		for _, k := range keys {
			out = append(out, Option{Value: k, Label: val[k]})
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported options type %T", v)
}

// Attr is a single HTML attribute.
type Attr struct {
	Key   string
	Value string
}

// Attrs is an ordered attribute bag. Keys are unique.
type Attrs []Attr

// Get returns the value stored under key.
func (a Attrs) Get(key string) (string, bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

// Set replaces or appends key.
func (a *Attrs) Set(key, value string) {
	for i := range *a {
		if (*a)[i].Key == key {
			(*a)[i].Value = value
			return
		}
	}
	*a = append(*a, Attr{Key: key, Value: value})
}

// Delete removes key if present.
func (a *Attrs) Delete(key string) {
	for i := range *a {
		if (*a)[i].Key == key {
			*a = append((*a)[:i], (*a)[i+1:]...)
			return
		}
	}
}

// AttrsOf converts a map (sorted by key) or an Attrs value into Attrs.
func AttrsOf(v any) (Attrs, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case Attrs:
		return val, nil
	case map[string]string:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(Attrs, 0, len(keys))
		for _, k := range keys {
			out = append(out, Attr{Key: k, Value: val[k]})
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(Attrs, 0, len(keys))
		for _, k := range keys {
			out = append(out, Attr{Key: k, Value: stringOf(val[k])})
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported attribute bag type %T", v)
}

// stringOf formats scalars the way they appear in HTML attributes.
func stringOf(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// boolOf interprets template/YAML style truthy values.
func boolOf(v any) (bool, error) {
	switch val := v.(type) {
	case nil:
		return false, nil
	case bool:
		return val, nil
	case int:
		return val != 0, nil
	case int64:
		return val != 0, nil
	case string:
		return ParseBool(val), nil
	}
	return false, fmt.Errorf("cannot use %T as bool", v)
}

// ParseBool interprets "1", "true", "yes" and "on" (any case) as true.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// intOf converts numbers and numeric strings.
func intOf(v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		return int(val), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("parsing %q as int: %w", val, err)
		}
		return n, nil
	}
	return 0, fmt.Errorf("cannot use %T as int", v)
}
