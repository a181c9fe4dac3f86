package utils

import (
	"errors"
	"sync"
	"time"
)

// CircuitState represents the state of the circuit breaker
type CircuitState string

const (
	// StateClosed allows requests to pass through
	StateClosed CircuitState = "closed"
	// StateOpen blocks requests until the reset timeout elapses
	StateOpen CircuitState = "open"
	// StateHalfOpen allows a single probe request through
	StateHalfOpen CircuitState = "half-open"
)

// ErrCircuitOpen is returned when the circuit breaker is rejecting calls
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker guards calls to an external provider. After maxFailures
// consecutive failures it rejects calls outright until resetTimeout passes,
// then lets one probe through to decide whether to close again.
type CircuitBreaker struct {
	maxFailures  int
	resetTimeout time.Duration

	mutex       sync.Mutex
	state       CircuitState
	failures    int
	lastFailure time.Time
	probing     bool
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        StateClosed,
	}
}

// Call executes fn under circuit breaker protection.
func (cb *CircuitBreaker) Call(fn func() error) error {
	cb.mutex.Lock()

	if cb.state == StateOpen {
		if time.Since(cb.lastFailure) > cb.resetTimeout {
			cb.state = StateHalfOpen
			cb.probing = false
		} else {
			cb.mutex.Unlock()
			return ErrCircuitOpen
		}
	}

	if cb.state == StateHalfOpen {
		if cb.probing {
			cb.mutex.Unlock()
			return ErrCircuitOpen
		}
		cb.probing = true
	}

	cb.mutex.Unlock()

	err := fn()

	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if err != nil {
		cb.onFailure()
		return err
	}

	cb.onSuccess()
	return nil
}

func (cb *CircuitBreaker) onFailure() {
	cb.failures++
	cb.lastFailure = time.Now()

	if cb.state == StateHalfOpen {
		// Failed probe reopens the circuit
		cb.state = StateOpen
		cb.failures = cb.maxFailures
	} else if cb.failures >= cb.maxFailures {
		cb.state = StateOpen
	}
}

func (cb *CircuitBreaker) onSuccess() {
	cb.state = StateClosed
	cb.failures = 0
	cb.probing = false
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() CircuitState {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

// Reset resets the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.state = StateClosed
	cb.failures = 0
	cb.probing = false
}
