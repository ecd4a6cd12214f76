// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package formtmpl

import (
	"strings"

	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/model"
)

// attrs is the parsed attribute list of a tag, in source order. Lookups are
// case-insensitive; the original key spelling is kept for pass-through.
type attrs []model.Attr

// parseAttrs reads key="v", key='v', key=v and bare key (value "true")
// pairs. Malformed input never fails: unparseable runs are skipped.
func parseAttrs(s string) attrs {
	var out attrs
	i := 0
	for i < len(s) {
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		start := i
		for i < len(s) && !isSpace(s[i]) && s[i] != '=' && s[i] != '"' && s[i] != '\'' {
			i++
		}
		key := s[start:i]
		if key == "" {
			// Stray quote or "=": skip one byte and resynchronize.
			i++
			continue
		}
		if i >= len(s) || s[i] != '=' {
			out.set(key, "true")
			continue
		}
		i++ // '='
		if i >= len(s) {
			out.set(key, "")
			break
		}
		switch q := s[i]; q {
		case '"', '\'':
			i++
			end := strings.IndexByte(s[i:], q)
			if end < 0 {
				out.set(key, s[i:])
				i = len(s)
				continue
			}
			out.set(key, s[i:i+end])
			i += end + 1
		default:
			vstart := i
			for i < len(s) && !isSpace(s[i]) {
				i++
			}
			out.set(key, s[vstart:i])
		}
	}
	return out
}

func (a *attrs) set(key, value string) {
	for i := range *a {
		if strings.EqualFold((*a)[i].Key, key) {
			(*a)[i].Value = value
			return
		}
	}
	*a = append(*a, model.Attr{Key: key, Value: value})
}

// get returns the value stored under key.
func (a attrs) get(key string) (string, bool) {
	for _, attr := range a {
		if strings.EqualFold(attr.Key, key) {
			return attr.Value, true
		}
	}
	return "", false
}

// bool returns the truthiness of key, or def when it is absent or blank.
func (a attrs) bool(key string, def bool) bool {
	v, ok := a.get(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	return model.ParseBool(v)
}

// without returns the attributes minus the named keys.
func (a attrs) without(keys ...string) attrs {
	var out attrs
	for _, attr := range a {
		skip := false
		for _, k := range keys {
			if strings.EqualFold(attr.Key, k) {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, attr)
		}
	}
	return out
}

func (a attrs) clone() attrs {
	return append(attrs(nil), a...)
}

// list splits a comma-separated attribute value, dropping blanks.
func (a attrs) list(key string) ([]string, bool) {
	v, ok := a.get(key)
	if !ok {
		return nil, false
	}
	return model.Scalar(v).List(), true
}
