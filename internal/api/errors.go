package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrAuthentication means the credential exchange was refused.
	ErrAuthentication = errors.New("authentication failed")
	// ErrUnauthorized means an authenticated call was rejected with 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound means the requested transaction does not exist.
	ErrNotFound = errors.New("transaction not found")
	// ErrRejected covers every other 4xx, e.g. a transition the state no longer allows.
	ErrRejected = errors.New("request rejected")
	// ErrServer covers 5xx responses.
	ErrServer = errors.New("server error")
	// ErrTransport covers network failures and undecodable responses.
	ErrTransport = errors.New("transport failure")
)

// StatusError is a non-2xx response from the service.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, e.Detail)
}

func (e *StatusError) Unwrap() error {
	switch {
	case e.Code == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Code == http.StatusNotFound:
		return ErrNotFound
	case e.Code >= 500:
		return ErrServer
	default:
		return ErrRejected
	}
}

// parseDetail pulls a human readable message out of an error body. The
// service answers {"detail": "..."} or, for validation failures, a list of
// {"loc": [...], "msg": "..."} objects.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}
	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return string(envelope.Detail)
}
