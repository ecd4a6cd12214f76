// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package help

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/model"
	"github.com/wvulibraries/engineAPI-Modules-sub000/internal/testutil"
)

func TestRender(t *testing.T) {
	r := New(Options{Timeout: time.Second}, testutil.TestLogger())
	ctx := context.Background()

	tests := []struct {
		name     string
		help     *model.Help
		contains []string
		empty    bool
	}{
		{name: "nil", help: nil, empty: true},
		{
			name:     "tooltip escapes",
			help:     &model.Help{Type: model.HelpTooltip, Text: `a "quoted" <b>`},
			contains: []string{`title="a &#34;quoted&#34; &lt;b&gt;"`, `class="fieldHelp"`},
		},
		{
			name:     "new window",
			help:     &model.Help{Type: model.HelpNewWindow, URL: "https://example.com/help"},
			contains: []string{`href="https://example.com/help"`, `target="_blank"`},
		},
		{name: "new window without url", help: &model.Help{Type: model.HelpNewWindow}, empty: true},
		{
			name:     "modal plain text",
			help:     &model.Help{Type: model.HelpModal, Text: "Use <your> name"},
			contains: []string{`id="email_help"`, "Use &lt;your&gt; name", `href="#email_help"`},
		},
		{
			name:     "modal markdown",
			help:     &model.Help{Type: model.HelpModal, Text: "**bold**<script>x</script>", Markdown: true},
			contains: []string{"<strong>bold</strong>"},
		},
		{name: "unknown type", help: &model.Help{Type: "popup", Text: "x"}, empty: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Render(ctx, "email", tt.help)
			if tt.empty {
				if got != "" {
					t.Errorf("Render = %q, want empty", got)
				}
				return
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Render = %q, want it to contain %q", got, want)
				}
			}
			if strings.Contains(got, "<script>") {
				t.Errorf("Render = %q, contains unsanitized script", got)
			}
		})
	}
}

func TestRenderModalFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`<p onclick="evil()">Remote help</p>`))
		default:
			http.NotFound(w, req)
		}
	}))
	defer srv.Close()

	r := New(Options{Timeout: time.Second, AllowPrivate: true}, testutil.TestLogger())
	ctx := context.Background()

	got := r.Render(ctx, "f", &model.Help{Type: model.HelpModal, URL: srv.URL + "/ok"})
	if !strings.Contains(got, "<p>Remote help</p>") {
		t.Errorf("Render = %q, want sanitized remote content", got)
	}

	got = r.Render(ctx, "f", &model.Help{Type: model.HelpModal, URL: srv.URL + "/missing"})
	if strings.Contains(got, "fieldHelpModal") || !strings.Contains(got, srv.URL+"/missing") {
		t.Errorf("Render = %q, want link-only fallback", got)
	}
}

func TestRenderModalFetchBlocksPrivate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("internal"))
	}))
	defer srv.Close()

	r := New(Options{Timeout: time.Second}, testutil.TestLogger())
	got := r.Render(context.Background(), "f", &model.Help{Type: model.HelpModal, URL: srv.URL})
	if strings.Contains(got, "internal") {
		t.Errorf("Render = %q, fetched from a loopback address", got)
	}
}
