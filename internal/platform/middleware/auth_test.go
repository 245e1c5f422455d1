package middleware_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"ballotgate/internal/platform/logger"
	"ballotgate/internal/platform/middleware"
	"ballotgate/pkg/testutil"
)

type fakeValidator struct {
	identityID string
	err        error
}

func (v *fakeValidator) Validate(string) (*middleware.TokenClaims, error) {
	if v.err != nil {
		return nil, v.err
	}
	return &middleware.TokenClaims{IdentityID: v.identityID}, nil
}

func protected(validator middleware.TokenValidator) (http.Handler, *string) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetIdentityID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return middleware.RequireAuth(validator, logger.New())(next), &seen
}

func TestRequireAuthMissingHeader(t *testing.T) {
	h, _ := protected(&fakeValidator{identityID: "id-1"})

	rr := testutil.DoRequest(h, testutil.NewJSONRequest(t, http.MethodGet, "/protected", nil))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	assert.Contains(t, rr.Body.String(), "missing credentials")
}

func TestRequireAuthMalformedHeader(t *testing.T) {
	h, _ := protected(&fakeValidator{identityID: "id-1"})

	req := testutil.NewJSONRequest(t, http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	rr := testutil.DoRequest(h, req)
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	assert.Contains(t, rr.Body.String(), "malformed authorization header")
}

func TestRequireAuthInvalidToken(t *testing.T) {
	h, _ := protected(&fakeValidator{err: errors.New("bad signature")})

	req := testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodGet, "/protected", nil), "bad")
	rr := testutil.DoRequest(h, req)
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	assert.Contains(t, rr.Body.String(), "invalid or expired token")
}

func TestRequireAuthForwardsIdentityID(t *testing.T) {
	h, seen := protected(&fakeValidator{identityID: "id-42"})

	req := testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodGet, "/protected", nil), "good")
	rr := testutil.DoRequest(h, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, "id-42", *seen)
}

func TestGetIdentityIDFromSeededContext(t *testing.T) {
	req := testutil.WithIdentityID(testutil.NewJSONRequest(t, http.MethodGet, "/", nil), "id-7")
	assert.Equal(t, "id-7", middleware.GetIdentityID(req.Context()))
}
