package testutil

import (
	"context"
	"net/http"

	"ballotgate/internal/platform/middleware"
)

// WithIdentityID places an identity id in the request context, simulating what
// the auth middleware does for an authenticated request.
func WithIdentityID(req *http.Request, identityID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeyIdentityID, identityID)
	return req.WithContext(ctx)
}

// WithRequestID places a request id in the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeyRequestID, requestID)
	return req.WithContext(ctx)
}
