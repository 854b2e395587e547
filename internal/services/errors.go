package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/filmx/internal/shared"
)

// NetworkError is returned when no response reached the client: dial failures, timeouts,
// cancelled contexts, rate limiter refusals and truncated bodies.
type NetworkError struct {
	Method string
	Path   string
	Op     string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Method, e.Path, e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool {
	return target == shared.ErrServiceUnavailable
}

// StatusError is returned when the server answered with a non-2xx status.
//
// Detail is the server's "detail" field when the body carries one, verbatim. List-valued details
// (validation errors) are rendered as their messages joined by "; ".
type StatusError struct {
	Code   int
	Body   []byte
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%d %s: %s", e.Code, http.StatusText(e.Code), e.Detail)
	}
	return fmt.Sprintf("%d %s", e.Code, http.StatusText(e.Code))
}

// Is matches [shared.ErrAPIRequest] for every status and [shared.ErrNotAuthenticated] for 401.
func (e *StatusError) Is(target error) bool {
	switch target {
	case shared.ErrAPIRequest:
		return true
	case shared.ErrNotAuthenticated:
		return e.Code == http.StatusUnauthorized
	}
	return false
}

// DecodeError is returned when a response body does not have the expected shape.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "failed to decode response: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool {
	return target == shared.ErrAPIRequest || target == shared.ErrUnexpectedResponse
}

// ErrorDetail extracts the user-facing message from err when it is a [*StatusError] with a detail.
func ErrorDetail(err error) (string, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Detail != "" {
		return statusErr.Detail, true
	}
	return "", false
}

// parseDetail reads the "detail" member of an error body.
//
// The API returns either {"detail": "message"} or {"detail": [{"msg": "...", "loc": [...]}, ...]}.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}

	var items []json.RawMessage
	if err := json.Unmarshal(envelope.Detail, &items); err != nil {
		return ""
	}

	msgs := make([]string, 0, len(items))
	for _, item := range items {
		var entry struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(item, &entry); err == nil && entry.Msg != "" {
			msgs = append(msgs, entry.Msg)
			continue
		}
		if err := json.Unmarshal(item, &s); err == nil && s != "" {
			msgs = append(msgs, s)
		}
	}
	return strings.Join(msgs, "; ")
}
