package utils

import (
	"errors"
	"sync"
	"time"
)

// ErrBreakerOpen is returned without invoking the wrapped call while the
// breaker is open.
var ErrBreakerOpen = errors.New("circuit breaker is open")

// CircuitBreaker shields an unreliable downstream (the realtime broadcast
// connection) from being hammered while it is failing. Wrapped calls return
// ErrBreakerOpen immediately once the recent failure ratio trips the breaker.
type CircuitBreaker struct {
	name         string
	maxRequests  uint32
	interval     time.Duration
	timeout      time.Duration
	failureRatio float64
	minRequests  uint32

	mutex  sync.Mutex
	state  BreakerState
	counts breakerCounts
	expiry time.Time
}

type BreakerState int

const (
	StateClosed BreakerState = iota
	StateHalfOpen
	StateOpen
)

type breakerCounts struct {
	requests            uint32
	totalFailures       uint32
	consecutiveFailures uint32
}

func NewCircuitBreaker(name string) *CircuitBreaker {
	return &CircuitBreaker{
		name:         name,
		maxRequests:  10,
		interval:     60 * time.Second,
		timeout:      30 * time.Second,
		failureRatio: 0.6,
		minRequests:  20,
		state:        StateClosed,
	}
}

// Execute runs fn unless the breaker is open, recording the outcome.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}
	err := fn()
	cb.afterRequest(err == nil)
	return err
}

// State reports the current breaker state, advancing open->half-open when the
// cool-down has passed.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.currentState(time.Now())
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	state := cb.currentState(time.Now())
	if state == StateOpen {
		return ErrBreakerOpen
	}
	if state == StateHalfOpen && cb.counts.requests >= cb.maxRequests {
		return ErrBreakerOpen
	}

	cb.counts.requests++
	return nil
}

func (cb *CircuitBreaker) afterRequest(success bool) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	state := cb.currentState(time.Now())
	if success {
		cb.counts.consecutiveFailures = 0
		if state == StateHalfOpen {
			cb.toState(StateClosed, time.Now())
		}
		return
	}

	cb.counts.totalFailures++
	cb.counts.consecutiveFailures++
	if state == StateHalfOpen || cb.readyToTrip() {
		cb.toState(StateOpen, time.Now())
	}
}

func (cb *CircuitBreaker) readyToTrip() bool {
	return cb.counts.requests >= cb.minRequests &&
		float64(cb.counts.totalFailures)/float64(cb.counts.requests) >= cb.failureRatio
}

func (cb *CircuitBreaker) currentState(now time.Time) BreakerState {
	switch cb.state {
	case StateClosed:
		if !cb.expiry.IsZero() && cb.expiry.Before(now) {
			// Counting window elapsed; start a fresh one.
			cb.counts = breakerCounts{}
			cb.expiry = now.Add(cb.interval)
		}
	case StateOpen:
		if cb.expiry.Before(now) {
			cb.toState(StateHalfOpen, now)
		}
	}
	return cb.state
}

func (cb *CircuitBreaker) toState(state BreakerState, now time.Time) {
	cb.state = state
	cb.counts = breakerCounts{}

	switch state {
	case StateClosed:
		cb.expiry = now.Add(cb.interval)
	case StateOpen:
		cb.expiry = now.Add(cb.timeout)
	default:
		cb.expiry = time.Time{}
	}
}
