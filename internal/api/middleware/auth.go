package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/alekspanteli/exchange-rate-hub/internal/auth"
	"github.com/alekspanteli/exchange-rate-hub/internal/view"
)

// AdminCookie holds the admin token for browser sessions.
const AdminCookie = "ratehub_admin"

// TokenParser verifies admin tokens.
type TokenParser interface {
	ParseToken(token string) (*auth.Claims, error)
}

// RequireCapability rejects requests whose admin token is missing, invalid
// or lacks capability. The token is read from the Authorization bearer
// header, then from AdminCookie.
func RequireCapability(parser TokenParser, capability string, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				deny(w)
				return
			}

			claims, err := parser.ParseToken(token)
			if err != nil {
				logger.Warnw("Admin token rejected", "request_id", RequestIDFromContext(r.Context()), "error", err)
				deny(w)
				return
			}
			if !claims.Can(capability) {
				logger.Warnw("Admin capability missing", "subject", claims.Subject, "capability", capability)
				deny(w)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the admin claims stored by RequireCapability.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(AdminCookie); err == nil {
		return c.Value
	}
	return ""
}

func deny(w http.ResponseWriter) {
	http.Error(w, view.MsgPermissionDenied, http.StatusForbidden)
}
