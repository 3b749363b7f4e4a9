package middleware

import (
	"net/http"
	"strconv"

	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"
)

// RateLimit limits requests per admin subject, or per client IP when the
// request carries no admin claims.
func RateLimit(lim *limiter.Limiter, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + lim.GetIPKey(r)
			if claims := ClaimsFromContext(r.Context()); claims != nil {
				key = "admin:" + claims.Subject
			}

			lctx, err := lim.Get(r.Context(), key)
			if err != nil {
				logger.Errorw("Failed to get rate limit context", "key", key, "error", err)
				http.Error(w, "Internal server error during rate limit check", http.StatusInternalServerError)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

			if lctx.Reached {
				logger.Warnw("Rate limit exceeded", "key", key, "limit", lctx.Limit)
				http.Error(w, "Too many requests. Please try again later.", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
