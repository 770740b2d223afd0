package inference

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotConfigured is returned when no endpoint was configured for a model.
	ErrNotConfigured = errors.New("inference endpoint not configured")
	// ErrUnavailable marks a model service that is unreachable or has no model loaded.
	ErrUnavailable = errors.New("inference service unavailable")
	// ErrInvalidResponse is returned when a response does not match its schema.
	ErrInvalidResponse = errors.New("invalid inference response")
)

// StatusError reports a non-2xx response from a model service.
type StatusError struct {
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("inference %s: http status %d", e.Path, e.Status)
	}
	return fmt.Sprintf("inference %s: http status %d: %s", e.Path, e.Status, e.Message)
}

// Unwrap maps 404 and 503 to ErrUnavailable; the services use them when
// model artifacts are missing or still loading.
func (e *StatusError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound, http.StatusServiceUnavailable:
		return ErrUnavailable
	}
	return nil
}
