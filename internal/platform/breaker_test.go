package platform

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := newBreaker(3, time.Minute)
	upstream := &statusError{status: 503, msg: "unavailable"}

	for i := 0; i < 3; i++ {
		assert.True(t, b.allow(), "attempt %d should pass", i)
		b.record(upstream)
	}
	assert.False(t, b.allow(), "breaker should fail fast after threshold")
}

func TestBreakerIgnoresNonRetryableFailures(t *testing.T) {
	b := newBreaker(2, time.Minute)
	notFound := &statusError{status: 404, msg: "no such agent"}

	for i := 0; i < 10; i++ {
		assert.True(t, b.allow())
		b.record(notFound)
	}
	assert.True(t, b.allow(), "lookup misses must not open the breaker")
}

func TestBreakerSuccessResetsCount(t *testing.T) {
	b := newBreaker(2, time.Minute)
	upstream := &statusError{status: 500, msg: "boom"}

	b.allow()
	b.record(upstream)
	b.allow()
	b.record(nil)
	b.allow()
	b.record(upstream)

	assert.True(t, b.allow(), "a success between failures resets the streak")
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	b := newBreaker(1, 10*time.Millisecond)
	upstream := errors.New("connection refused")

	b.allow()
	b.record(upstream)
	assert.False(t, b.allow())

	time.Sleep(20 * time.Millisecond)

	// One probe is admitted; concurrent calls still fail fast.
	assert.True(t, b.allow())
	assert.False(t, b.allow())

	// Probe succeeds, breaker closes fully.
	b.record(nil)
	assert.True(t, b.allow())
	assert.True(t, b.allow())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := newBreaker(1, 10*time.Millisecond)
	upstream := &statusError{status: 502, msg: "bad gateway"}

	b.allow()
	b.record(upstream)
	time.Sleep(20 * time.Millisecond)

	assert.True(t, b.allow())
	b.record(upstream)
	assert.False(t, b.allow(), "failed probe reopens the breaker")
}
