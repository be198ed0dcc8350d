package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sellside/storefront/internal/common"
)

// Middleware guards a route group with the limiter. Keys are derived per
// caller so one hot client cannot starve the rest.
type Middleware struct {
	Limiter Limiter
	Window  time.Duration
	Max     int
	OnError func(error)
}

// ClientKey identifies the caller for throttling purposes. Authenticated
// requests are keyed by user so shifting IPs does not reset the window.
func ClientKey(r *http.Request) string {
	if userID, ok := common.UserID(r.Context()); ok && userID != "" {
		return "user:" + userID
	}
	return "ip:" + common.ClientIP(r)
}

// Handler wraps next with sliding window enforcement. Limiter failures fail
// open so a Redis outage never blocks checkout traffic.
func (m Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, remaining, resetAt, err := m.Limiter.Allow(r.Context(), ClientKey(r), m.Window, m.Max)
		if err != nil {
			if m.OnError != nil {
				m.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.Itoa(m.Max))
		headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			retryAfter := int(time.Until(resetAt).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.Itoa(retryAfter))
			common.JSONError(w, http.StatusTooManyRequests, common.CodeRateLimited, "too many requests", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
