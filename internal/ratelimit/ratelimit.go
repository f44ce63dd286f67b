package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/vidhaven/vidhaven/internal/httputil"
)

const (
	sweepInterval = 5 * time.Minute
	bucketMaxIdle = 10 * time.Minute
)

// bucket tracks the token balance for one client IP.
type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// Limiter is a per-IP token bucket. Each client accrues rate tokens per
// second up to burst; a request spends one token or is rejected.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64
	burst   float64
}

func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	l := &Limiter{
		buckets: make(map[string]*bucket),
		rate:    requestsPerSecond,
		burst:   float64(burst),
	}
	go l.sweep()
	return l
}

func (l *Limiter) allow(ip string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[ip]
	if !ok {
		l.buckets[ip] = &bucket{tokens: l.burst - 1, lastSeen: now}
		return true
	}

	b.tokens += now.Sub(b.lastSeen).Seconds() * l.rate
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (l *Limiter) sweep() {
	for {
		time.Sleep(sweepInterval)
		l.mu.Lock()
		for ip, b := range l.buckets {
			if time.Since(b.lastSeen) > bucketMaxIdle {
				delete(l.buckets, ip)
			}
		}
		l.mu.Unlock()
	}
}

// clientKey picks the address the bucket is keyed on. Behind the reverse
// proxy the first X-Forwarded-For entry is the viewer; locally RemoteAddr
// carries a port that must not split one client into many buckets.
func clientKey(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientKey(r)) {
			w.Header().Set("Retry-After", "10")
			httputil.WriteError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
