package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrSessionExpired is returned when the refresh token itself is rejected and
// the session has been cleared. The presentation layer must redirect to login.
var ErrSessionExpired = errors.New("apiclient: session expired")

// APIError is a normalized backend failure: the HTTP status, the
// backend-reported message if the body carried one, and per-field validation
// errors for 4xx responses.
type APIError struct {
	StatusCode int
	Detail     string
	Fields     map[string][]string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("apiclient: status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("apiclient: status %d", e.StatusCode)
}

// Message returns the text to surface to the user: the backend detail when
// present, otherwise a generic fallback.
func (e *APIError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.StatusCode >= http.StatusInternalServerError {
		return "The clinic service is temporarily unavailable. Please try again."
	}
	return "Something went wrong. Please try again."
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// newAPIError builds an APIError from a response body. The backend reports
// either {"detail": "..."} or a field-error map.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	if len(body) == 0 {
		return apiErr
	}

	var envelope struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Detail != "" {
		apiErr.Detail = envelope.Detail
		return apiErr
	}

	var fields map[string][]string
	if err := json.Unmarshal(body, &fields); err == nil && len(fields) > 0 {
		apiErr.Fields = fields
		for _, msgs := range fields {
			if len(msgs) > 0 {
				apiErr.Detail = msgs[0]
				break
			}
		}
	}
	return apiErr
}
