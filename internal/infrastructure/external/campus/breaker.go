package campus

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker is rejecting requests.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitState is the breaker's position.
type CircuitState int

const (
	// CircuitClosed passes requests through.
	CircuitClosed CircuitState = iota

	// CircuitOpen fails requests fast.
	CircuitOpen

	// CircuitHalfOpen lets a few probes through to test recovery.
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker fails fast when the Campus API is down, so a qualification
// run degrades to empty evidence instead of stalling on timeouts for every
// candidate.
type CircuitBreaker struct {
	mu sync.RWMutex

	failureThreshold   int
	successThreshold   int
	timeout            time.Duration
	halfOpenMaxRetries int

	state            CircuitState
	failures         int
	successes        int
	lastFailureTime  time.Time
	lastStateChange  time.Time
	halfOpenRequests int
}

// CircuitBreakerConfig tunes the breaker.
type CircuitBreakerConfig struct {
	// FailureThreshold is the consecutive failure count that opens the
	// circuit.
	FailureThreshold int

	// SuccessThreshold is the half-open success count that closes it again.
	SuccessThreshold int

	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration

	// HalfOpenMaxRetries caps concurrent probes while half-open.
	HalfOpenMaxRetries int
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold:   5,
		SuccessThreshold:   2,
		Timeout:            30 * time.Second,
		HalfOpenMaxRetries: 3,
	}
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold:   config.FailureThreshold,
		successThreshold:   config.SuccessThreshold,
		timeout:            config.Timeout,
		halfOpenMaxRetries: config.HalfOpenMaxRetries,
		state:              CircuitClosed,
		lastStateChange:    time.Now(),
	}
}

// Allow reports whether a request may proceed, transitioning open to
// half-open once the timeout has passed.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return nil

	case CircuitOpen:
		if time.Since(cb.lastStateChange) > cb.timeout {
			cb.toHalfOpen()
			return nil
		}
		return ErrCircuitOpen

	case CircuitHalfOpen:
		if cb.halfOpenRequests < cb.halfOpenMaxRetries {
			cb.halfOpenRequests++
			return nil
		}
		return ErrCircuitOpen
	}

	return nil
}

// RecordSuccess notes a successful request.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitHalfOpen:
		cb.successes++
		if cb.successes >= cb.successThreshold {
			cb.toClosed()
		}
	case CircuitClosed:
		cb.failures = 0
	}
}

// RecordFailure notes a failed request. Any failure while half-open reopens
// the circuit.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailureTime = time.Now()

	switch cb.state {
	case CircuitClosed:
		if cb.failures >= cb.failureThreshold {
			cb.toOpen()
		}
	case CircuitHalfOpen:
		cb.toOpen()
	}
}

// State returns the current position.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Reset forces the breaker closed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.toClosed()
}

// Transitions below are called with the lock held.

func (cb *CircuitBreaker) toClosed() {
	cb.state = CircuitClosed
	cb.failures = 0
	cb.successes = 0
	cb.halfOpenRequests = 0
	cb.lastStateChange = time.Now()
}

func (cb *CircuitBreaker) toOpen() {
	cb.state = CircuitOpen
	cb.lastStateChange = time.Now()
}

func (cb *CircuitBreaker) toHalfOpen() {
	cb.state = CircuitHalfOpen
	cb.successes = 0
	cb.halfOpenRequests = 0
	cb.lastStateChange = time.Now()
}

// CircuitBreakerStatus is a point-in-time view for the client status
// endpoint.
type CircuitBreakerStatus struct {
	State           CircuitState
	Failures        int
	Successes       int
	LastFailureTime time.Time
	LastStateChange time.Time
}

// Status reports the breaker state.
func (cb *CircuitBreaker) Status() CircuitBreakerStatus {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return CircuitBreakerStatus{
		State:           cb.state,
		Failures:        cb.failures,
		Successes:       cb.successes,
		LastFailureTime: cb.lastFailureTime,
		LastStateChange: cb.lastStateChange,
	}
}
