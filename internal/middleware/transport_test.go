package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/approval-desk/internal/storage/memory"
)

func recordingTransport(status int, seen *[]string) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		*seen = append(*seen, r.Header.Get("Authorization"))
		rec := httptest.NewRecorder()
		rec.WriteHeader(status)
		return rec.Result(), nil
	})
}

func TestBearerAttachesCurrentToken(t *testing.T) {
	store := memory.NewTokenStore("")
	var seen []string
	rt := Bearer(store, recordingTransport(http.StatusOK, &seen))

	req := httptest.NewRequest(http.MethodGet, "http://svc/api/v2/transactions", nil)
	_, err := rt.RoundTrip(req)
	require.NoError(t, err)

	require.NoError(t, store.Save("tok-1"))
	_, err = rt.RoundTrip(req)
	require.NoError(t, err)

	assert.Equal(t, []string{"", "Bearer tok-1"}, seen)
	assert.Empty(t, req.Header.Get("Authorization"), "original request must not be mutated")
}

func TestUnauthorizedReportsRejectedToken(t *testing.T) {
	var reported []string
	var seen []string
	rt := Unauthorized(func(token string) { reported = append(reported, token) },
		recordingTransport(http.StatusUnauthorized, &seen))

	req := httptest.NewRequest(http.MethodGet, "http://svc/x", nil)
	req.Header.Set("Authorization", "Bearer stale")
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, []string{"stale"}, reported)

	ok := Unauthorized(func(string) { t.Fatal("must not fire for 200") }, recordingTransport(http.StatusOK, &seen))
	_, err = ok.RoundTrip(httptest.NewRequest(http.MethodGet, "http://svc/x", nil))
	require.NoError(t, err)
}

func TestLoggingPassesThrough(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var seen []string
	rt := Logging(logger, recordingTransport(http.StatusTeapot, &seen))
	resp, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "http://svc/x", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://svc/x", nil)
	assert.Empty(t, BearerToken(req))
	req.Header.Set("Authorization", "bearer abc")
	assert.Equal(t, "abc", BearerToken(req))
	req.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, BearerToken(req))
}

func TestUnauthorizedSeesTokenAttachedByBearer(t *testing.T) {
	store := memory.NewTokenStore("current")
	var reported []string
	var seen []string
	rt := Unauthorized(func(token string) { reported = append(reported, token) },
		Bearer(store, recordingTransport(http.StatusUnauthorized, &seen)))

	_, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "http://svc/x", nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"current"}, reported)
}
