package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	dErrors "ballotgate/pkg/domain-errors"
)

// TokenValidator verifies a raw session token and returns its claims.
type TokenValidator interface {
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims is the subset of token claims the middleware forwards.
type TokenClaims struct {
	IdentityID string
}

type contextKeyIdentityID struct{}

// ContextKeyIdentityID is exported for use in handler tests.
var ContextKeyIdentityID = contextKeyIdentityID{}

// GetIdentityID retrieves the authenticated identity id from the context.
func GetIdentityID(ctx context.Context) string {
	id, ok := ctx.Value(ContextKeyIdentityID).(string)
	if !ok {
		return ""
	}
	return id
}

// RequireAuth gates a route on a valid bearer token. The identity id claim is
// placed in the request context; resolving the full record stays with the
// handler, so a deleted identity with a live token still 404s downstream.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.WarnContext(ctx, "unauthorized access - missing credentials",
					"request_id", requestID,
				)
				writeUnauthorized(w, dErrors.New(dErrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - malformed authorization header",
					"request_id", requestID,
				)
				writeUnauthorized(w, dErrors.New(dErrors.CodeUnauthorized, "malformed authorization header"))
				return
			}

			claims, err := validator.Validate(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			ctx = context.WithValue(ctx, ContextKeyIdentityID, claims.IdentityID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, err dErrors.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + string(err.Code) + `","message":"` + err.Message + `"}`))
}
