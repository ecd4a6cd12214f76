// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func submit(h http.Handler, remote, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/forms/contact", nil)
	req.RemoteAddr = remote
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSubmitRateLimiter_Burst(t *testing.T) {
	h := NewSubmitRateLimiter(0.001, 3).Middleware(okHandler())

	for i := 0; i < 3; i++ {
		if rec := submit(h, "192.168.1.1:12345", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}
	rec := submit(h, "192.168.1.1:12345", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Too many submissions") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestSubmitRateLimiter_PerClient(t *testing.T) {
	h := NewSubmitRateLimiter(0.001, 1).Middleware(okHandler())

	if rec := submit(h, "10.0.0.1:1000", ""); rec.Code != http.StatusOK {
		t.Fatalf("first client: status = %d", rec.Code)
	}
	if rec := submit(h, "10.0.0.1:2000", ""); rec.Code != http.StatusTooManyRequests {
		t.Errorf("same IP on another port: status = %d, want 429", rec.Code)
	}
	if rec := submit(h, "10.0.0.2:1000", ""); rec.Code != http.StatusOK {
		t.Errorf("second client: status = %d, want 200", rec.Code)
	}
}

func TestSubmitRateLimiter_JSON(t *testing.T) {
	h := NewSubmitRateLimiter(0.001, 1).Middleware(okHandler())

	submit(h, "10.0.0.3:1000", "application/json")
	rec := submit(h, "10.0.0.3:1000", "application/json")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:443"
	if got := clientIP(req); got != "203.0.113.9" {
		t.Errorf("clientIP = %q", got)
	}
	req.RemoteAddr = "203.0.113.9"
	if got := clientIP(req); got != "203.0.113.9" {
		t.Errorf("clientIP without port = %q", got)
	}
}

func TestLimiterCache_Reset(t *testing.T) {
	lc := newLimiterCache(1, 1, 2)
	first := lc.get("a")
	lc.get("b")
	lc.get("c")
	if len(lc.limiters) != 1 {
		t.Errorf("limiters = %d, want 1 after reset", len(lc.limiters))
	}
	if lc.get("a") == first {
		t.Error("expected a fresh limiter for a after reset")
	}
}
