// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package validate resolves field validation rules. A rule is either the
// name of a registered validator or a delimited regular expression such as
// "/^[a-z]+$/i".
package validate

import (
	"errors"
	"fmt"
	"net"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/util"
)

// ErrUnknownRule is returned for rules that are neither registered nor a
// delimited pattern.
var ErrUnknownRule = errors.New("unknown validation rule")

// Func checks a single value.
type Func func(value string) bool

// Registry maps rule names to validators. Validate returns an error, not
// false, when the rule itself is broken (unknown name, bad pattern), so
// callers can tell configuration problems from invalid input.
type Registry struct {
	mu       sync.RWMutex
	rules    map[string]Func
	patterns map[string]*regexp.Regexp
}

// NewRegistry creates a registry preloaded with the built-in rules.
func NewRegistry() *Registry {
	r := &Registry{
		rules:    make(map[string]Func),
		patterns: make(map[string]*regexp.Regexp),
	}
	r.Register("email", isValidEmail)
	r.Register("url", isValidURL)
	r.Register("integer", isInteger)
	r.Register("number", isNumber)
	r.Register("date", isValidDate)
	r.Register("phone", matcher(`^\+?[0-9 ()\-.]{7,20}$`))
	r.Register("zip", matcher(`^\d{5}(-\d{4})?$`))
	r.Register("alpha", matcher(`^[A-Za-z]+$`))
	r.Register("alphaNumeric", matcher(`^[A-Za-z0-9]+$`))
	r.Register("alphaNumericNoSpaces", matcher(`^[A-Za-z0-9]+$`))
	r.Register("slug", util.IsValidSlug)
	r.Register("ipAddr", func(v string) bool { return net.ParseIP(v) != nil })
	return r
}

// Register adds or replaces a named rule. Names are case-insensitive.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[strings.ToLower(name)] = fn
}

// Has reports whether a named rule is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rules[strings.ToLower(name)]
	return ok
}

// Validate applies rule to value.
func (r *Registry) Validate(rule, value string) (bool, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return true, nil
	}

	r.mu.RLock()
	fn, ok := r.rules[strings.ToLower(rule)]
	r.mu.RUnlock()
	if ok {
		return fn(value), nil
	}

	re, err := r.pattern(rule)
	if err != nil {
		return false, err
	}
	return re.MatchString(value), nil
}

// pattern compiles (and caches) a delimited regular expression.
func (r *Registry) pattern(rule string) (*regexp.Regexp, error) {
	r.mu.RLock()
	re, ok := r.patterns[rule]
	r.mu.RUnlock()
	if ok {
		return re, nil
	}

	expr, err := translatePattern(rule)
	if err != nil {
		return nil, err
	}
	re, err = regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compiling pattern %q: %w", rule, err)
	}

	r.mu.Lock()
	r.patterns[rule] = re
	r.mu.Unlock()
	return re, nil
}

// translatePattern turns "/expr/flags" into Go syntax. Supported flags are
// i, m and s.
func translatePattern(rule string) (string, error) {
	if len(rule) < 2 || rule[0] != '/' {
		return "", fmt.Errorf("%w: %q", ErrUnknownRule, rule)
	}
	end := strings.LastIndexByte(rule, '/')
	if end == 0 {
		return "", fmt.Errorf("%w: unterminated pattern %q", ErrUnknownRule, rule)
	}
	expr, flags := rule[1:end], rule[end+1:]
	var goFlags strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			goFlags.WriteRune(f)
		default:
			return "", fmt.Errorf("unsupported pattern flag %q in %q", f, rule)
		}
	}
	if goFlags.Len() > 0 {
		expr = "(?" + goFlags.String() + ")" + expr
	}
	return expr, nil
}

func matcher(expr string) Func {
	re := regexp.MustCompile(expr)
	return re.MatchString
}

// isValidEmail checks if the email is valid.
func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func isInteger(v string) bool {
	_, err := strconv.ParseInt(v, 10, 64)
	return err == nil
}

func isNumber(v string) bool {
	_, err := strconv.ParseFloat(v, 64)
	return err == nil
}

// isValidDate checks if the date is valid (YYYY-MM-DD format).
func isValidDate(date string) bool {
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}
