package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Per-IP rate limiting for the dashboard API.

const (
	// Standard API: 60 requests/minute per IP.
	rateLimitStandardPerMin = 60
	rateLimitStandardBurst  = 60
	// GET requests: 120 requests/minute per IP.
	rateLimitGetPerMin = 120
	rateLimitGetBurst  = 120
	// Modbus ingest: 300 requests/minute per IP, sensors can burst.
	rateLimitIngestPerMin = 300
	rateLimitIngestBurst  = 300
)

type rateLimitTier int

const (
	tierIngest rateLimitTier = iota
	tierGet
	tierStandard
)

func (t rateLimitTier) limiterConfig() (rate.Limit, int) {
	switch t {
	case tierIngest:
		return rate.Limit(float64(rateLimitIngestPerMin) / 60.0), rateLimitIngestBurst
	case tierGet:
		return rate.Limit(float64(rateLimitGetPerMin) / 60.0), rateLimitGetBurst
	default:
		return rate.Limit(float64(rateLimitStandardPerMin) / 60.0), rateLimitStandardBurst
	}
}

func (t rateLimitTier) limitHeader() int {
	switch t {
	case tierIngest:
		return rateLimitIngestPerMin
	case tierGet:
		return rateLimitGetPerMin
	default:
		return rateLimitStandardPerMin
	}
}

// apiRateLimiter holds per-IP limiters per tier.
type apiRateLimiter struct {
	mu       sync.Mutex
	get      map[string]*rate.Limiter
	standard map[string]*rate.Limiter
	ingest   map[string]*rate.Limiter
}

var defaultAPIRateLimiter = &apiRateLimiter{
	get:      make(map[string]*rate.Limiter),
	standard: make(map[string]*rate.Limiter),
	ingest:   make(map[string]*rate.Limiter),
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx >= 0 {
		addr = addr[:idx]
	}
	return addr
}

func tierForRequest(r *http.Request) rateLimitTier {
	path := strings.ToLower(r.URL.Path)
	if r.Method == http.MethodPost && strings.Contains(path, "/modbus/") {
		return tierIngest
	}
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return tierGet
	}
	return tierStandard
}

func (l *apiRateLimiter) getLimiter(ip string, t rateLimitTier) *rate.Limiter {
	limit, burst := t.limiterConfig()
	var m map[string]*rate.Limiter
	switch t {
	case tierIngest:
		m = l.ingest
	case tierGet:
		m = l.get
	default:
		m = l.standard
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := m[ip]; ok {
		return lim
	}
	lim := rate.NewLimiter(limit, burst)
	m[ip] = lim
	return lim
}

// RateLimit returns middleware that limits requests per IP. Health and
// metrics probes are exempt. Returns 429 with Retry-After and X-RateLimit-*
// headers when the bucket is empty.
func RateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if path == "/healthz/live" || path == "/healthz/ready" || path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}
			ip := getClientIP(r)
			tier := tierForRequest(r)
			limiter := defaultAPIRateLimiter.getLimiter(ip, tier)
			if !limiter.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(tier.limitHeader()))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10))
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"Too many requests. Please retry after 60 seconds."}`))
				return
			}
			tokens := int(limiter.Tokens())
			if tokens < 0 {
				tokens = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(tier.limitHeader()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(tokens))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10))
			next.ServeHTTP(w, r)
		})
	}
}
