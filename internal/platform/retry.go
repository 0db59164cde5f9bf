package platform

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sentriq/sentriq-backend/internal/pkg/metrics"
)

const (
	defaultRetryAttempts = 3
	initialBackoff       = 100 * time.Millisecond
	maxBackoff           = 2 * time.Second
)

// statusError carries the HTTP status of a failed platform call.
type statusError struct {
	status int
	msg    string
}

func (e *statusError) Error() string {
	return e.msg
}

// isRetryable returns true for transport errors, 5xx and 429.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.status >= 500 || se.status == http.StatusTooManyRequests
	}
	// Transport-level failure (connection refused, timeout).
	return true
}

// backoff returns delay for attempt (0-based); exponential with cap.
func backoff(attempt int) time.Duration {
	d := initialBackoff
	for i := 0; i < attempt && d < maxBackoff; i++ {
		d = d * 3
		if d > maxBackoff {
			d = maxBackoff
		}
	}
	return d
}

// doWithRetryValue runs fn up to maxAttempts times and returns its value;
// retries transient failures with backoff. The deadline on ctx still bounds the
// total wait, so a caller disconnect cancels in-flight retries.
func doWithRetryValue[T any](ctx context.Context, maxAttempts int, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		val, err := fn()
		if err == nil {
			return val, nil
		}
		lastErr = err
		if attempt == maxAttempts-1 || !isRetryable(err) {
			return zero, err
		}
		metrics.PlatformLookupRetriesTotal.Inc()
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff(attempt)):
			// continue
		}
	}
	return zero, lastErr
}
