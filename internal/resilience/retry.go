// Package resilience wraps external calls (embedding providers, vector
// stores) with retry and circuit-breaker protection, independent of what
// kind of call is being made.
package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/kunalkushwaha/agentflow/retrieval"
)

// RetryPolicy configures exponential backoff with jitter.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	Jitter        bool
}

// DefaultRetryPolicy retries three times with a 200ms base delay, doubling
// up to a 5s cap, jittered to avoid thundering-herd retries against the
// same backend.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:    3,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
	}
}

// Result describes the outcome of a retried call.
type Result struct {
	Success       bool
	AttemptCount  int
	LastError     error
	TotalDuration time.Duration
}

// Retrier runs a function under a RetryPolicy.
type Retrier struct {
	policy *RetryPolicy
}

// NewRetrier builds a retrier. A nil policy falls back to DefaultRetryPolicy.
func NewRetrier(policy *RetryPolicy) *Retrier {
	if policy == nil {
		policy = DefaultRetryPolicy()
	}
	return &Retrier{policy: policy}
}

// Execute retries fn while it returns a retrieval.ErrExternalFailure, up to
// MaxRetries, backing off between attempts. A non-ErrExternalFailure error
// (a logic error, not a transient one) is returned immediately without
// retrying.
func (r *Retrier) Execute(ctx context.Context, fn func() error) Result {
	result := Result{}
	start := time.Now()

	for attempt := 1; attempt <= r.policy.MaxRetries+1; attempt++ {
		result.AttemptCount = attempt
		err := fn()
		if err == nil {
			result.Success = true
			result.TotalDuration = time.Since(start)
			return result
		}

		result.LastError = err
		if attempt > r.policy.MaxRetries || !isRetryable(err) {
			result.TotalDuration = time.Since(start)
			return result
		}

		delay := r.calculateDelay(attempt)
		select {
		case <-ctx.Done():
			result.LastError = ctx.Err()
			result.TotalDuration = time.Since(start)
			return result
		case <-time.After(delay):
		}
	}
	result.TotalDuration = time.Since(start)
	return result
}

// ExecuteWithCircuitBreaker runs fn through both the circuit breaker and the
// retry policy: the breaker short-circuits calls while open, and the
// retrier backs off between attempts while it's closed or half-open.
func (r *Retrier) ExecuteWithCircuitBreaker(ctx context.Context, cb *CircuitBreaker, fn func() error) Result {
	return r.Execute(ctx, func() error { return cb.Call(fn) })
}

func isRetryable(err error) bool {
	return errors.Is(err, retrieval.ErrExternalFailure)
}

func (r *Retrier) calculateDelay(attempt int) time.Duration {
	delay := float64(r.policy.InitialDelay) * math.Pow(r.policy.BackoffFactor, float64(attempt-1))
	if delay > float64(r.policy.MaxDelay) {
		delay = float64(r.policy.MaxDelay)
	}
	if r.policy.Jitter {
		jitterRange := delay * 0.1
		delay += (rand.Float64()*2 - 1) * jitterRange
	}
	if delay < 0 {
		delay = float64(r.policy.InitialDelay)
	}
	return time.Duration(delay)
}
