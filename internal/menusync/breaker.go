package menusync

import (
	"sync"
	"time"
)

const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateHalfOpen = "half_open"
)

// CircuitBreaker stops remote calls for Timeout after Threshold consecutive
// failures, then lets exactly one probe through.
type CircuitBreaker struct {
	mu          sync.Mutex
	threshold   int
	timeout     time.Duration
	failures    int
	lastFailure time.Time
	open        bool
	probing     bool
	now         func() time.Time
}

func NewCircuitBreaker(threshold int, timeout time.Duration, now func() time.Time) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 3
	}
	if now == nil {
		now = time.Now
	}
	return &CircuitBreaker{threshold: threshold, timeout: timeout, now: now}
}

// Allow reports whether a remote call may proceed. In the half-open window
// only the first caller gets true until the probe reports back.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return true
	}
	if b.probing || b.now().Sub(b.lastFailure) < b.timeout {
		return false
	}
	b.probing = true
	return true
}

func (b *CircuitBreaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.open = false
	b.probing = false
}

func (b *CircuitBreaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = b.now()
	if b.probing || b.failures >= b.threshold {
		b.open = true
	}
	b.probing = false
}

// Release gives back a call slot without judging the backend, e.g. when the
// caller went away. A pending probe can be retried by the next caller.
func (b *CircuitBreaker) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
}

func (b *CircuitBreaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case !b.open:
		return StateClosed
	case b.probing || b.now().Sub(b.lastFailure) >= b.timeout:
		return StateHalfOpen
	default:
		return StateOpen
	}
}

func (b *CircuitBreaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
