// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateKeyPrefix = "rl:"

// RateLimiter counts write requests per client IP and path in fixed
// windows held in Valkey, so every API instance shares one budget.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter allows limit write requests per client and path in each
// window.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	if window < time.Second {
		window = time.Second
	}
	return &RateLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}
}

// allow records one request for key and reports whether it fits the
// current window, along with the time left until the window resets.
func (rl *RateLimiter) allow(ctx context.Context, key string) (bool, time.Duration, error) {
	now := rl.now()
	start := now.Truncate(rl.window)
	bucket := fmt.Sprintf("%s%s:%d", rateKeyPrefix, key, start.Unix())

	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, bucket)
	pipe.ExpireNX(ctx, bucket, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, 0, err
	}

	reset := start.Add(rl.window).Sub(now)
	return incr.Val() <= rl.limit, reset, nil
}

// Middleware limits non-read requests. A Valkey outage lets requests
// through rather than taking writes down with it.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		ok, reset, err := rl.allow(r.Context(), clientIP(r)+":"+r.URL.Path)
		if err != nil {
			slog.Warn("rate limit check failed", "error", err, "path", r.URL.Path)
		}
		if !ok {
			secs := int(reset.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			writeError(w, http.StatusTooManyRequests, "Too many requests, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the originating address, preferring the leftmost
// X-Forwarded-For entry, then X-Real-IP, then the connection peer.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
