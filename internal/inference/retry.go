package inference

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"documind-backend/internal/shared/telemetry"
)

const retryBaseDelay = 300 * time.Millisecond

// Retry runs fn and, if it fails with a transient error, runs it once more
// after a short delay.
func Retry(ctx context.Context, op string, fn func(context.Context) error) error {
	err := fn(ctx)
	if err == nil || !ShouldRetry(err) {
		return err
	}

	telemetry.Warn("inference.retry", map[string]any{
		"op":      op,
		"attempt": 1,
		"error":   err.Error(),
	})
	select {
	case <-time.After(retryBaseDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return fn(ctx)
}

// ShouldRetry reports whether err looks transient. Missing models and
// schema mismatches are not retried.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrInvalidResponse) || errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status >= 500 && statusErr.Status != 503
	}
	if errors.Is(err, ErrUnavailable) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "eof")
}
