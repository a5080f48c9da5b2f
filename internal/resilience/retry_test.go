package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kunalkushwaha/agentflow/retrieval"
)

func fastPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:    2,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
		Jitter:        false,
	}
}

func TestExecuteSucceedsOnFirstAttempt(t *testing.T) {
	r := NewRetrier(fastPolicy())
	calls := 0
	result := r.Execute(context.Background(), func() error {
		calls++
		return nil
	})
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.AttemptCount)
	assert.Equal(t, 1, calls)
}

func TestExecuteRetriesRetryableErrorUntilSuccess(t *testing.T) {
	r := NewRetrier(fastPolicy())
	calls := 0
	result := r.Execute(context.Background(), func() error {
		calls++
		if calls < 3 {
			return retrieval.ErrExternalFailure
		}
		return nil
	})
	assert.True(t, result.Success)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, result.AttemptCount)
}

func TestExecuteStopsAfterMaxRetriesExhausted(t *testing.T) {
	r := NewRetrier(fastPolicy())
	calls := 0
	result := r.Execute(context.Background(), func() error {
		calls++
		return retrieval.ErrExternalFailure
	})
	assert.False(t, result.Success)
	assert.Equal(t, 3, calls) // 1 initial + 2 retries
	assert.ErrorIs(t, result.LastError, retrieval.ErrExternalFailure)
}

func TestExecuteDoesNotRetryNonRetryableError(t *testing.T) {
	r := NewRetrier(fastPolicy())
	boom := errors.New("logic error")
	calls := 0
	result := r.Execute(context.Background(), func() error {
		calls++
		return boom
	})
	assert.False(t, result.Success)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, result.LastError, boom)
}

func TestExecuteStopsWhenContextCancelled(t *testing.T) {
	r := NewRetrier(&RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	})
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	result := r.Execute(ctx, func() error {
		calls++
		return retrieval.ErrExternalFailure
	})
	assert.False(t, result.Success)
	require.ErrorIs(t, result.LastError, context.Canceled)
}

func TestCalculateDelayGrowsExponentiallyAndCapsAtMaxDelay(t *testing.T) {
	r := NewRetrier(&RetryPolicy{
		InitialDelay:  10 * time.Millisecond,
		MaxDelay:      30 * time.Millisecond,
		BackoffFactor: 2.0,
	})
	assert.Equal(t, 10*time.Millisecond, r.calculateDelay(1))
	assert.Equal(t, 20*time.Millisecond, r.calculateDelay(2))
	assert.Equal(t, 30*time.Millisecond, r.calculateDelay(3)) // would be 40ms, capped
}

func TestExecuteWithCircuitBreakerShortCircuitsWhenOpen(t *testing.T) {
	cb := NewCircuitBreaker(&CircuitBreakerConfig{
		FailureThreshold:   1,
		SuccessThreshold:   1,
		Timeout:            time.Minute,
		MaxConcurrentCalls: 1,
	})
	r := NewRetrier(&RetryPolicy{MaxRetries: 0, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1})

	first := r.ExecuteWithCircuitBreaker(context.Background(), cb, func() error {
		return retrieval.ErrExternalFailure
	})
	assert.False(t, first.Success)
	assert.Equal(t, StateOpen, cb.State())

	calls := 0
	second := r.ExecuteWithCircuitBreaker(context.Background(), cb, func() error {
		calls++
		return nil
	})
	assert.False(t, second.Success)
	assert.Equal(t, 0, calls)
	assert.ErrorIs(t, second.LastError, ErrCircuitOpen)
}
