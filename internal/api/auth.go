package api

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"
	"sync"

	"belleza/internal/config"

	"golang.org/x/time/rate"
)

// Auth provides API-key authentication and per-key rate limiting. Rate limits
// fall back to the remote address when auth is disabled.
type Auth struct {
	cfg      config.APIConfig
	clients  map[string]config.APIClientKey
	limiters sync.Map // map[string]*rate.Limiter
}

func NewAuth(cfg config.APIConfig) *Auth {
	m := make(map[string]config.APIClientKey, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		m[k.Key] = k
	}
	return &Auth{cfg: cfg, clients: m}
}

func (a *Auth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.Auth.Enabled {
			if !a.authenticate(r) {
				writeError(w, http.StatusUnauthorized, "invalid api key")
				return
			}
		}

		if !a.allow(r) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *Auth) header() string {
	h := strings.TrimSpace(a.cfg.Auth.Header)
	if h == "" {
		h = "x-api-key"
	}
	return h
}

func (a *Auth) authenticate(r *http.Request) bool {
	presented := strings.TrimSpace(r.Header.Get(a.header()))
	if presented == "" {
		return false
	}
	// Compare against every configured key so the lookup itself is not a
	// timing oracle.
	valid := false
	for key := range a.clients {
		if subtle.ConstantTimeCompare([]byte(key), []byte(presented)) == 1 {
			valid = true
		}
	}
	return valid
}

func (a *Auth) allow(r *http.Request) bool {
	if a.cfg.RateLimit.RPS <= 0 {
		return true
	}
	return a.limiter(a.clientKey(r)).Allow()
}

func (a *Auth) clientKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get(a.header())); key != "" {
		return key
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return "unknown"
}

func (a *Auth) limiter(key string) *rate.Limiter {
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
