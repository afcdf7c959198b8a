package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hongminglow/approval-desk/internal/storage"
)

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Bearer attaches the persisted token to every outgoing request. The store is
// read per request so a login or logout takes effect immediately.
func Bearer(tokens storage.TokenStore, next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		token, err := tokens.Load()
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				return nil, err
			}
			return next.RoundTrip(r)
		}
		clone := r.Clone(r.Context())
		clone.Header.Set("Authorization", "Bearer "+token)
		resp, err := next.RoundTrip(clone)
		if resp != nil && resp.Request == nil {
			resp.Request = clone
		}
		return resp, err
	})
}

// Unauthorized reports every 401 to onUnauthorized together with the token
// the rejected request carried, so the session can tell a stale rejection
// from one against the current token.
func Unauthorized(onUnauthorized func(token string), next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		resp, err := next.RoundTrip(r)
		if err == nil && resp.StatusCode == http.StatusUnauthorized && onUnauthorized != nil {
			sent := r
			if resp.Request != nil {
				sent = resp.Request
			}
			onUnauthorized(BearerToken(sent))
		}
		return resp, err
	})
}

// Logging records method, path, status and latency at debug level.
func Logging(logger *slog.Logger, next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(r)
		elapsed := time.Since(start)
		if err != nil {
			logger.Warn("request failed", "method", r.Method, "path", r.URL.Path, "elapsed", elapsed, "error", err)
			return nil, err
		}
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", resp.StatusCode, "elapsed", elapsed)
		return resp, nil
	})
}

// BearerToken extracts the token from an Authorization header, or "".
func BearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
