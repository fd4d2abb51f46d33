package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx backend response. Message comes from the backend's
// {"error": "..."} body when present.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %d %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %d %s", e.Op, e.Status, http.StatusText(e.Status))
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && (e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden)
}

// Message returns the backend-provided message of err, or fallback.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func decodeAPIError(op string, status int, body []byte) *APIError {
	e := &APIError{Op: op, Status: status}
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		e.Message = parsed.Error
		if e.Message == "" {
			e.Message = parsed.Message
		}
	}
	if e.Message == "" && len(body) > 0 && len(body) < 256 && !strings.HasPrefix(strings.TrimSpace(string(body)), "{") {
		e.Message = strings.TrimSpace(string(body))
	}
	return e
}
