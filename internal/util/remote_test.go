// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"net"
	"testing"
)

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip      string
		private bool
	}{
		{"127.0.0.1", true},
		{"10.1.2.3", true},
		{"172.16.0.1", true},
		{"192.168.1.1", true},
		{"169.254.1.1", true},
		{"100.64.0.1", true},
		{"::1", true},
		{"fd00::1", true},
		{"1.1.1.1", false},
		{"172.32.0.1", false},
		{"2001:4860::8888", false},
	}
	for _, tt := range tests {
		if got := IsPrivateIP(net.ParseIP(tt.ip)); got != tt.private {
			t.Errorf("IsPrivateIP(%s) = %v, want %v", tt.ip, got, tt.private)
		}
	}
	if !IsPrivateIP(nil) {
		t.Error("IsPrivateIP(nil) = false, want true")
	}
}

func TestValidateRemoteURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com/help.md", false},
		{"http://93.184.216.34/help", false},
		{"ftp://example.com/help", true},
		{"https:///nohost", true},
		{"http://localhost:8080/x", true},
		{"http://api.localhost/x", true},
		{"http://127.0.0.1/x", true},
		{"http://[::1]/x", true},
		{"://bad", true},
	}
	for _, tt := range tests {
		err := ValidateRemoteURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateRemoteURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}
