package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// sweepThreshold caps how many per-IP buckets accumulate before expired
// ones are dropped. Relay processes are long-lived, so the map cannot be
// allowed to grow with every IP ever seen.
const sweepThreshold = 4096

// Limiter is a simple token bucket keyed by client IP
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket // per-IP buckets
	max     int                // tokens per window
	per     time.Duration      // window size
}

type bucket struct {
	ts     time.Time // window start
	tokens int       // remaining tokens
}

// New creates a new IP-based limiter allowing max requests per window
func New(max int, per time.Duration) *Limiter {
	return &Limiter{buckets: map[string]*bucket{}, max: max, per: per}
}

// Middleware enforces the rate limit before calling the next handler
func (r *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ip, _, _ := net.SplitHostPort(req.RemoteAddr)

		r.mu.Lock()
		b := r.buckets[ip]
		if b == nil || time.Since(b.ts) > r.per {
			if b == nil && len(r.buckets) >= sweepThreshold {
				r.sweep(time.Now())
			}
			// Start a new window
			b = &bucket{ts: time.Now(), tokens: r.max}
			r.buckets[ip] = b
		}

		if b.tokens <= 0 {
			r.mu.Unlock()
			http.Error(w, "rate limit", http.StatusTooManyRequests)
			return
		}

		b.tokens--
		r.mu.Unlock()

		next.ServeHTTP(w, req)
	})
}

// sweep drops buckets whose window has passed. Caller holds the lock.
func (r *Limiter) sweep(now time.Time) {
	for ip, b := range r.buckets {
		if now.Sub(b.ts) > r.per {
			delete(r.buckets, ip)
		}
	}
}
