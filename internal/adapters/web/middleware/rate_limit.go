package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// rateLimiter tracks request timestamps per client. It protects the API
// surface and is unrelated to the upstream provider call budgets.
type rateLimiter struct {
	seen   map[string][]time.Time
	mu     sync.Mutex
	limit  int
	window time.Duration
}

// NewRateLimiter creates a per-client HTTP rate limiter allowing limit
// requests per window.
func NewRateLimiter(limit int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		seen:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}

	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			rl.cleanup()
		}
	}()

	return rl
}

func (rl *rateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for client, times := range rl.seen {
		fresh := times[:0]
		for _, t := range times {
			if now.Sub(t) < rl.window {
				fresh = append(fresh, t)
			}
		}
		if len(fresh) == 0 {
			delete(rl.seen, client)
		} else {
			rl.seen[client] = fresh
		}
	}
}

// Allow records the request for client and reports whether it is within
// the window budget.
func (rl *rateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	var fresh []time.Time
	for _, t := range rl.seen[client] {
		if now.Sub(t) < rl.window {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.seen[client] = fresh
		return false
	}

	rl.seen[client] = append(fresh, now)
	return true
}

// clientKey derives the limiter key from the request. The port changes
// between connections from the same host, so it is stripped.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware rejects requests over the limiter's budget with a
// 429 and the API's JSON error shape.
func RateLimitMiddleware(limiter *rateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientKey(r)) {
				w.Header().Set("Retry-After", strconv.Itoa(int(limiter.window.Seconds())))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
