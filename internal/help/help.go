// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package help renders field help as a tooltip, an inline modal or a link
// opening in a new window.
package help

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/model"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/util"
)

// DefaultFetchTimeout bounds remote modal content requests.
const DefaultFetchTimeout = 5 * time.Second

// maxFetchSize caps remote modal content.
const maxFetchSize = 1 << 20

// Options configures remote help fetching.
type Options struct {
	Timeout time.Duration
	// AllowPrivate permits fetching from loopback and private networks.
	AllowPrivate bool
}

// Renderer renders model.Help values. It is safe for concurrent use.
type Renderer struct {
	client       *http.Client
	allowPrivate bool
	policy       *bluemonday.Policy
	logger       *slog.Logger
}

// New creates a help renderer.
func New(opts Options, logger *slog.Logger) *Renderer {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFetchTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	client := &http.Client{Timeout: opts.Timeout}
	if !opts.AllowPrivate {
		dialer := &net.Dialer{Timeout: opts.Timeout}
		client.Transport = &http.Transport{
			DialContext:         util.GuardedDialContext(dialer),
			TLSHandshakeTimeout: opts.Timeout,
		}
	}
	return &Renderer{
		client:       client,
		allowPrivate: opts.AllowPrivate,
		policy:       bluemonday.UGCPolicy(),
		logger:       logger,
	}
}

// Sanitize cleans user supplied HTML.
func (r *Renderer) Sanitize(s string) string {
	return r.policy.Sanitize(s)
}

// Render returns the help markup for the field with the given HTML id, or ""
// when h is nil or unusable.
func (r *Renderer) Render(ctx context.Context, fieldID string, h *model.Help) string {
	if h == nil {
		return ""
	}
	switch h.Type {
	case model.HelpTooltip, "":
		if h.Text == "" {
			return ""
		}
		return fmt.Sprintf(`<span class="fieldHelp" title="%s">?</span>`, html.EscapeString(h.Text))
	case model.HelpNewWindow:
		if h.URL == "" {
			r.logger.Debug("newWindow help without url", "field_id", fieldID)
			return ""
		}
		return fmt.Sprintf(`<a class="fieldHelp" href="%s" target="_blank" rel="noopener">?</a>`, html.EscapeString(h.URL))
	case model.HelpModal:
		return r.modal(ctx, fieldID, h)
	}
	r.logger.Debug("unknown help type", "field_id", fieldID, "type", h.Type)
	return ""
}

func (r *Renderer) modal(ctx context.Context, fieldID string, h *model.Help) string {
	modalID := fieldID + "_help"
	content, err := r.content(ctx, h)
	if err != nil {
		r.logger.Warn("loading help content", "field_id", fieldID, "error", err)
		if h.URL == "" {
			return ""
		}
		return fmt.Sprintf(`<a class="fieldHelp" href="%s" target="_blank" rel="noopener">?</a>`, html.EscapeString(h.URL))
	}
	if content == "" {
		return ""
	}
	return fmt.Sprintf(`<a class="fieldHelp" href="#%[1]s" data-help-modal="%[1]s">?</a>`+
		`<div id="%[1]s" class="fieldHelpModal" style="display:none;">%[2]s</div>`,
		html.EscapeString(modalID), content)
}

// content returns sanitized modal HTML. Inline text wins over the URL.
func (r *Renderer) content(ctx context.Context, h *model.Help) (string, error) {
	var raw []byte
	switch {
	case h.Text != "":
		raw = []byte(h.Text)
	case h.URL != "":
		body, err := r.fetch(ctx, h.URL)
		if err != nil {
			return "", err
		}
		raw = body
	default:
		return "", nil
	}

	if h.Markdown {
		var buf bytes.Buffer
		if err := goldmark.Convert(raw, &buf); err != nil {
			return "", fmt.Errorf("converting markdown: %w", err)
		}
		raw = buf.Bytes()
	} else if h.Text != "" {
		raw = []byte(html.EscapeString(h.Text))
	}
	return r.policy.Sanitize(string(raw)), nil
}

func (r *Renderer) fetch(ctx context.Context, url string) ([]byte, error) {
	if !r.allowPrivate {
		if err := util.ValidateRemoteURL(url); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating help request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching help: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching help: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize))
	if err != nil {
		return nil, fmt.Errorf("reading help body: %w", err)
	}
	return body, nil
}
