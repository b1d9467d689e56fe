package http

import (
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/keiranhall/keiran-live/pkg/response"
)

// clientIP extracts the bare client address. middleware.RealIP has already
// rewritten RemoteAddr from X-Forwarded-For when present.
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// rateLimit bounds requests per client IP using the hourly window limiter.
// Every response carries the remaining budget and window reset headers. A
// limiter failure is logged and lets the request through: shortening should
// not go down with the limiter.
func rateLimit(limiter RateLimiter) func(http.Handler) http.Handler {
	const op = "api.http.rateLimit"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := limiter.Check(r.Context(), clientIP(r))
			if err != nil {
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", decision.ResetAt.UTC().Format(http.TimeFormat))

			if !decision.Allowed {
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.RateLimitedResponse)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
