package api

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"
	"sync"

	"bistrobytes/internal/config"

	"golang.org/x/time/rate"
)

const apiKeyHeader = "X-API-Key"

// AdminAuth provides API-key auth and per-client rate limiting for the
// admin endpoints. An empty configured key disables the admin surface
// entirely.
type AdminAuth struct {
	cfg      config.AdminConfig
	limiters sync.Map // map[string]*rate.Limiter
}

func NewAdminAuth(cfg config.AdminConfig) *AdminAuth {
	return &AdminAuth{cfg: cfg}
}

func (a *AdminAuth) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.APIKey == "" {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		key := strings.TrimSpace(r.Header.Get(apiKeyHeader))
		if key == "" {
			writeError(w, http.StatusUnauthorized, "missing api key")
			return
		}
		if subtle.ConstantTimeCompare([]byte(a.cfg.APIKey), []byte(key)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}

		if a.cfg.RateLimit.RPS > 0 && !a.getLimiter(clientKey(r)).Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next(w, r)
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func (a *AdminAuth) getLimiter(key string) *rate.Limiter {
	if v, ok := a.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := a.cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(a.cfg.RateLimit.RPS), burst)
	actual, loaded := a.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}
