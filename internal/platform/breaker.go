package platform

import (
	"errors"
	"sync"
	"time"

	"github.com/sentriq/sentriq-backend/internal/pkg/metrics"
)

// ErrBreakerOpen is returned when the platform breaker is failing fast. It
// wraps into the retryable-outage taxonomy at the call site.
var ErrBreakerOpen = errors.New("circuit breaker open: agent platform unavailable")

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case stateClosed:
		return "closed"
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// breaker fails fast when the platform has been down for a while, so a
// platform outage costs each request one channel check instead of a full
// retry budget. After failureThreshold consecutive retryable failures the
// breaker opens for openDuration, then admits one probe call.
type breaker struct {
	mu sync.Mutex

	failureThreshold int
	openDuration     time.Duration

	state         breakerState
	failureCount  int
	lastFailure   time.Time
	halfOpenInUse bool
}

func newBreaker(failureThreshold int, openDuration time.Duration) *breaker {
	metrics.PlatformBreakerState.Set(float64(stateClosed))
	return &breaker{
		failureThreshold: failureThreshold,
		openDuration:     openDuration,
		state:            stateClosed,
	}
}

func (b *breaker) setState(next breakerState) {
	if b.state == next {
		return
	}
	metrics.PlatformBreakerTransitionsTotal.WithLabelValues(b.state.String(), next.String()).Inc()
	metrics.PlatformBreakerState.Set(float64(next))
	b.state = next
}

// allow reports whether a call may proceed right now.
func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateClosed:
		return true
	case stateOpen:
		if time.Since(b.lastFailure) < b.openDuration {
			return false
		}
		b.setState(stateHalfOpen)
		b.halfOpenInUse = true
		return true
	case stateHalfOpen:
		if b.halfOpenInUse {
			return false
		}
		b.halfOpenInUse = true
		return true
	}
	return false
}

// record feeds the call outcome back. Only retryable failures count against
// the threshold: a 404 is a lookup result, not platform health.
func (b *breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.halfOpenInUse = false

	if err == nil {
		b.failureCount = 0
		b.setState(stateClosed)
		return
	}
	if !isRetryable(err) {
		b.failureCount = 0
		return
	}

	b.failureCount++
	b.lastFailure = time.Now()
	if b.state == stateHalfOpen || b.failureCount >= b.failureThreshold {
		b.setState(stateOpen)
	}
}
