// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// maxTrackedClients bounds the limiter map; it is reset when exceeded.
const maxTrackedClients = 10000

// limiterCache is a rate limiter cache with double-check locking.
type limiterCache struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
	maxSize  int
}

func newLimiterCache(rps float64, burst, maxSize int) *limiterCache {
	return &limiterCache{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
		maxSize:  maxSize,
	}
}

// get returns the rate limiter for key, creating one if needed.
func (lc *limiterCache) get(key string) *rate.Limiter {
	lc.mu.RLock()
	limiter, exists := lc.limiters[key]
	lc.mu.RUnlock()

	if exists {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists = lc.limiters[key]; exists {
		return limiter
	}

	if len(lc.limiters) >= lc.maxSize {
		lc.limiters = make(map[string]*rate.Limiter)
	}
	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

// SubmitRateLimiter limits form submissions per client IP.
type SubmitRateLimiter struct {
	cache *limiterCache
}

// NewSubmitRateLimiter creates a limiter allowing rps requests per second
// with the given burst for each client.
func NewSubmitRateLimiter(rps float64, burst int) *SubmitRateLimiter {
	return &SubmitRateLimiter{cache: newLimiterCache(rps, burst, maxTrackedClients)}
}

// Middleware rejects requests over the limit with 429. Clients asking for
// JSON get a JSON body, others plain text.
func (rl *SubmitRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if rl.cache.get(ip).Allow() {
			next.ServeHTTP(w, r)
			return
		}

		slog.Warn("form submission rate limit exceeded", "ip", ip, "path", r.URL.Path)
		if strings.Contains(r.Header.Get("Accept"), "application/json") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   "Too many submissions. Please wait a moment and try again.",
			})
			return
		}
		http.Error(w, "Too many submissions. Please wait a moment and try again.", http.StatusTooManyRequests)
	})
}

// clientIP returns the host part of RemoteAddr, which chi's RealIP
// middleware has already set from proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
