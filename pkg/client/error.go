package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

// TransportError is returned when the backend answers with a non-2xx status.
type TransportError struct {
	StatusCode int
	Status     string

	// Body is the (possibly truncated) response body, trimmed of whitespace.
	Body string
}

func (e *TransportError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Body)
}

// Detail decodes Body as the backend's ErrorResponse. It returns nil when the
// body is not one.
func (e *TransportError) Detail() *ErrorResponse {
	var detail ErrorResponse
	if err := json.Unmarshal([]byte(e.Body), &detail); err != nil || detail.Error == "" {
		return nil
	}
	return &detail
}

// IsTransportError reports whether err wraps a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
