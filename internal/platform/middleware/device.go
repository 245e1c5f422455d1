package middleware

import (
	"context"
	"net/http"

	"ballotgate/internal/platform/device"
)

type contextKeyDevice struct{}

// ContextKeyDevice is exported for use in tests.
var ContextKeyDevice = contextKeyDevice{}

// GetDevice retrieves the device summary from the context.
func GetDevice(ctx context.Context) string {
	summary, ok := ctx.Value(ContextKeyDevice).(string)
	if !ok {
		return ""
	}
	return summary
}

// Device summarizes the client's User-Agent and stores it in the context so
// the audit trail can record which kind of client performed an action.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		summary := device.ParseUserAgent(r.Header.Get("User-Agent"))
		ctx := context.WithValue(r.Context(), ContextKeyDevice, summary)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
