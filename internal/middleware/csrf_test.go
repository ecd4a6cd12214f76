// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var testAuthKey = []byte("12345678901234567890123456789012")

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestDefaultCSRFConfig(t *testing.T) {
	dev := DefaultCSRFConfig(testAuthKey, true, "forms.example.com")
	if len(dev.AuthKey) != 32 {
		t.Errorf("expected 32-byte AuthKey, got %d bytes", len(dev.AuthKey))
	}
	want := []string{"localhost:8080", "127.0.0.1:8080", "forms.example.com"}
	if strings.Join(dev.TrustedOrigins, ",") != strings.Join(want, ",") {
		t.Errorf("TrustedOrigins = %v, want %v", dev.TrustedOrigins, want)
	}

	prod := DefaultCSRFConfig(testAuthKey, false)
	if len(prod.TrustedOrigins) != 0 {
		t.Errorf("expected no TrustedOrigins in production, got %v", prod.TrustedOrigins)
	}
}

// TestTrustedOriginsFormat checks the csrf library receives host:port
// values. Full URLs cause "origin invalid" errors.
func TestTrustedOriginsFormat(t *testing.T) {
	for _, origin := range DefaultCSRFConfig(testAuthKey, true).TrustedOrigins {
		if strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://") {
			t.Errorf("TrustedOrigin %q should be host:port format, not full URL", origin)
		}
		if !strings.Contains(origin, ":") {
			t.Errorf("TrustedOrigin %q should include port", origin)
		}
	}
}

func TestCSRF_AllowsSameOriginPost(t *testing.T) {
	handler := CSRF(DefaultCSRFConfig(testAuthKey, false))(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/forms/contact", strings.NewReader("__formID=contact"))
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestCSRF_RejectsCrossSitePost(t *testing.T) {
	cfg := DefaultCSRFConfig(testAuthKey, false)
	customCalled := false
	cfg.ErrorHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		customCalled = true
		http.Error(w, "Custom CSRF Error", http.StatusForbidden)
	})
	handler := CSRF(cfg)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/forms/contact", strings.NewReader("__formID=contact"))
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if !customCalled {
		t.Error("expected custom error handler to be called")
	}
}

func TestCSRF_AllowsCrossSiteGet(t *testing.T) {
	handler := CSRF(DefaultCSRFConfig(testAuthKey, false))(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/forms/contact", nil)
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
