package middleware_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"ballotgate/internal/platform/logger"
	"ballotgate/internal/platform/middleware"
	"ballotgate/pkg/testutil"
)

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	var seen string
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetRequestID(r.Context())
	}))

	rr := testutil.DoRequest(h, testutil.NewJSONRequest(t, http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get("X-Request-ID"))
}

func TestRequestIDTrustsInbound(t *testing.T) {
	var seen string
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetRequestID(r.Context())
	}))

	req := testutil.NewJSONRequest(t, http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	testutil.DoRequest(h, req)
	assert.Equal(t, "upstream-id", seen)
}

func TestDeviceSummarizesUserAgent(t *testing.T) {
	var seen string
	h := middleware.Device(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetDevice(r.Context())
	}))

	req := testutil.NewJSONRequest(t, http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0")
	testutil.DoRequest(h, req)
	assert.Contains(t, seen, "Firefox")
	assert.Contains(t, seen, "on")
}

func TestDeviceFallsBackWhenHeaderMissing(t *testing.T) {
	var seen string
	h := middleware.Device(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetDevice(r.Context())
	}))

	req := testutil.NewJSONRequest(t, http.MethodGet, "/", nil)
	req.Header.Del("User-Agent")
	testutil.DoRequest(h, req)
	assert.Equal(t, "Unknown Device", seen)
}

func TestRecoveryTurnsPanicInto500(t *testing.T) {
	h := middleware.Recovery(logger.New())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := testutil.DoRequest(h, testutil.NewJSONRequest(t, http.MethodGet, "/", nil))
	testutil.AssertStatus(t, rr, http.StatusInternalServerError)
	testutil.AssertErrorCode(t, rr, "internal_error")
}
