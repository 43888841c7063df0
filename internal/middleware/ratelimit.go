package middleware

import (
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"pocketauth-backend/internal/cache"
)

// Per-action limits. Keys are action + client IP, so one abusive source
// cannot lock everyone out.
const (
	LoginLimit   = 5
	LoginWindow  = time.Minute
	SignupLimit  = 5
	SignupWindow = time.Minute
	ResendLimit  = 3
	ResendWindow = 30 * time.Second
	ResetLimit   = 3
	ResetWindow  = 30 * time.Second
)

// RateLimit counts requests per client IP for one named action. When the
// counter store is unreachable the request is denied: sensitive flows
// fail closed rather than run unlimited.
func RateLimit(cacheClient cache.Client, action string, limit int64, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "rl:" + action + ":" + ClientIP(r)
			count, err := cacheClient.IncrWithTTL(key, window)
			if err != nil {
				log.Printf("WARN rate limiter unavailable for %s: %v", action, err)
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			if count > limit {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
