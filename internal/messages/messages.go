// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package messages collects user-facing form messages for one request and
// routes severity-levelled diagnostic events to slog.
package messages

import (
	"context"
	"html"
	"log/slog"
	"strings"
	"sync"
)

// Kind classifies a user-facing form message.
type Kind string

// Message kinds
const (
	Success Kind = "success"
	Warning Kind = "warning"
	Error   Kind = "error"
)

// Severity of a diagnostic event.
type Severity int

// Event severities, lowest first.
const (
	Debug Severity = iota
	Low
	High
	Critical
)

// Level maps a severity onto slog.
func (s Severity) Level() slog.Level {
	switch s {
	case Low:
		return slog.LevelInfo
	case High:
		return slog.LevelWarn
	case Critical:
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

// Message is one user-facing form message.
type Message struct {
	Kind Kind
	Text string
}

// Sink records form messages and diagnostic events. It is request scoped;
// the zero value is not usable, use New.
type Sink struct {
	logger *slog.Logger

	mu       sync.Mutex
	messages []Message
}

// New creates a sink logging through logger (nil means slog.Default()).
func New(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{logger: logger}
}

// Logger returns the sink's logger.
func (s *Sink) Logger() *slog.Logger {
	return s.logger
}

// Add records a user-facing message.
func (s *Sink) Add(kind Kind, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, Message{Kind: kind, Text: text})
}

// AddSuccess records a success message.
func (s *Sink) AddSuccess(text string) { s.Add(Success, text) }

// AddWarning records a warning message.
func (s *Sink) AddWarning(text string) { s.Add(Warning, text) }

// AddError records an error message.
func (s *Sink) AddError(text string) { s.Add(Error, text) }

// Event logs a diagnostic event. Attributes follow slog key/value pairs.
func (s *Sink) Event(ctx context.Context, sev Severity, msg string, args ...any) {
	s.logger.Log(ctx, sev.Level(), msg, args...)
}

// Messages returns a copy of the recorded messages.
func (s *Sink) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Count returns how many messages of kind were recorded. An empty kind
// counts all messages.
func (s *Sink) Count(kind Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if kind == "" {
		return len(s.messages)
	}
	n := 0
	for _, m := range s.messages {
		if m.Kind == kind {
			n++
		}
	}
	return n
}

// Pending reports whether any message is waiting to be displayed.
func (s *Sink) Pending() bool {
	return s.Count("") > 0
}

// Reset drops all recorded messages.
func (s *Sink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}

// HTML pretty-prints the messages as a list, or returns "" when none exist.
func (s *Sink) HTML() string {
	msgs := s.Messages()
	if len(msgs) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(`<ul class="formMessages">`)
	for _, m := range msgs {
		sb.WriteString(`<li class="formMessage `)
		sb.WriteString(string(m.Kind))
		sb.WriteString(`">`)
		sb.WriteString(html.EscapeString(m.Text))
		sb.WriteString(`</li>`)
	}
	sb.WriteString(`</ul>`)
	return sb.String()
}
