package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/mmcdole/reel/internal/domain"
)

// APIError is a non-2xx response from the catalog server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog API error (%d): %s", e.Status, e.Message)
}

// Detail returns the server-provided message
func (e *APIError) Detail() string { return e.Message }

// Unwrap maps 401 responses onto domain.ErrAuth
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return domain.ErrAuth
	}
	return nil
}

// IsStatus reports whether err is an APIError with the given status
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func newAPIError(status int, statusLine string, body []byte) *APIError {
	return &APIError{Status: status, Message: errorMessage(status, statusLine, body)}
}

// errorMessage picks the message in order: JSON detail, whole JSON body,
// raw text, status text, then a generic "Error <status>".
func errorMessage(status int, statusLine string, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 {
		var parsed any
		if err := json.Unmarshal(trimmed, &parsed); err == nil {
			if obj, ok := parsed.(map[string]any); ok {
				if detail, ok := obj["detail"]; ok && detail != nil {
					if s, ok := detail.(string); ok {
						return s
					}
					if b, err := json.Marshal(detail); err == nil {
						return string(b)
					}
				}
			}
			if b, err := json.Marshal(parsed); err == nil {
				return string(b)
			}
		}
		return string(trimmed)
	}

	if text := statusText(status, statusLine); text != "" {
		return text
	}
	return fmt.Sprintf("Error %d", status)
}

// statusText strips the numeric prefix from a status line ("404 Not Found")
func statusText(status int, statusLine string) string {
	text := strings.TrimSpace(strings.TrimPrefix(statusLine, fmt.Sprintf("%d", status)))
	if text != "" {
		return text
	}
	return http.StatusText(status)
}
