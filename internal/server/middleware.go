package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/kolapsis/overseer/internal/config"
)

// SecurityHeaders sets conservative response headers on every route.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// bucket is a per-client token bucket.
type bucket struct {
	tokens   float64
	lastFill time.Time
}

// IPRateLimit returns middleware limiting each client IP to ratePerMinute
// requests with the given burst. Over-limit requests get 429.
func IPRateLimit(ratePerMinute, burst int) func(http.Handler) http.Handler {
	if ratePerMinute <= 0 {
		ratePerMinute = 600
	}
	if burst <= 0 {
		burst = ratePerMinute
	}
	perSecond := float64(ratePerMinute) / 60

	var mu sync.Mutex
	buckets := make(map[string]*bucket)

	allow := func(ip string) bool {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now()
		b, ok := buckets[ip]
		if !ok {
			b = &bucket{tokens: float64(burst), lastFill: now}
			buckets[ip] = b
		}
		b.tokens += now.Sub(b.lastFill).Seconds() * perSecond
		b.lastFill = now
		if b.tokens > float64(burst) {
			b.tokens = float64(burst)
		}
		if b.tokens < 1 {
			return false
		}
		b.tokens--
		return true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			if !allow(ip) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit builds the IP limiter from configuration.
func RateLimit(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	return IPRateLimit(cfg.RequestsPerMinute, cfg.Burst)
}
