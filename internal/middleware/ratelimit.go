package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL    = 10 * time.Minute
	limiterGCAtClient = 1000
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware gives each client IP a token bucket of rpm requests per
// minute. rpm <= 0 disables limiting.
type RateLimitMiddleware struct {
	rpm     int
	mu      sync.Mutex
	clients map[string]*clientLimiter
	now     func() time.Time
}

func NewRateLimitMiddleware(rpm int) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		rpm:     rpm,
		clients: map[string]*clientLimiter{},
		now:     time.Now,
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	if m.rpm <= 0 {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeJSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) allow(ip string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry, ok := m.clients[ip]
	if !ok {
		if len(m.clients) >= limiterGCAtClient {
			m.gcLocked(now)
		}
		entry = &clientLimiter{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.rpm)), m.rpm)}
		m.clients[ip] = entry
	}
	entry.lastSeen = now

	return entry.limiter.AllowN(now, 1)
}

func (m *RateLimitMiddleware) gcLocked(now time.Time) {
	cutoff := now.Add(-limiterIdleTTL)
	for ip, entry := range m.clients {
		if entry.lastSeen.Before(cutoff) {
			delete(m.clients, ip)
		}
	}
}

func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	if host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr)); err == nil && host != "" {
		return host
	}

	if r.RemoteAddr == "" {
		return "unknown"
	}
	return r.RemoteAddr
}
