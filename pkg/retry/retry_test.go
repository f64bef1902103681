package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return Retryable(errors.New("transient"))
		}
		return nil
	}, WithInitialDelay(time.Millisecond), WithJitter(0))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_NonRetryableErrorFailsImmediately(t *testing.T) {
	attempts := 0
	plain := errors.New("bad input")
	err := Do(context.Background(), func(context.Context) error {
		attempts++
		return plain
	})

	// Without RetryIf, only wrapped RetryableError triggers a retry.
	assert.ErrorIs(t, err, plain)
	assert.Equal(t, 1, attempts)
}

func TestDo_PermanentErrorWinsOverRetryIf(t *testing.T) {
	attempts := 0
	cause := errors.New("validation failed")
	err := Do(context.Background(), func(context.Context) error {
		attempts++
		return Permanent(cause)
	}, WithRetryIf(func(error) bool { return true }))

	assert.Equal(t, cause, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	cause := errors.New("still down")
	err := Do(context.Background(), func(context.Context) error {
		attempts++
		return Retryable(cause)
	}, WithMaxAttempts(4), WithInitialDelay(time.Millisecond), WithJitter(0))

	// The final error comes back unwrapped.
	assert.Equal(t, cause, err)
	assert.Equal(t, 4, attempts)
}

func TestDo_ContextCancelStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := Do(ctx, func(context.Context) error {
		attempts++
		cancel()
		return Retryable(errors.New("transient"))
	}, WithMaxAttempts(10), WithInitialDelay(50*time.Millisecond))

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_OnRetryCallback(t *testing.T) {
	var retried []int
	_ = Do(context.Background(), func(context.Context) error {
		return Retryable(errors.New("transient"))
	},
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
		WithJitter(0),
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			retried = append(retried, attempt)
		}),
	)

	// No callback on the final attempt, which returns instead of sleeping.
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDoWithData(t *testing.T) {
	attempts := 0
	got, err := DoWithData(context.Background(), func(context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", Retryable(errors.New("transient"))
		}
		return "payload", nil
	}, WithInitialDelay(time.Millisecond), WithJitter(0))

	require.NoError(t, err)
	assert.Equal(t, "payload", got)
}

func TestCalculateDelay_BackoffAndCap(t *testing.T) {
	r := New(
		WithInitialDelay(100*time.Millisecond),
		WithMultiplier(2.0),
		WithMaxDelay(300*time.Millisecond),
		WithJitter(0),
	)

	assert.Equal(t, 100*time.Millisecond, r.calculateDelay(1))
	assert.Equal(t, 200*time.Millisecond, r.calculateDelay(2))
	assert.Equal(t, 300*time.Millisecond, r.calculateDelay(3))
	assert.Equal(t, 300*time.Millisecond, r.calculateDelay(10))
}

func TestErrorClassification(t *testing.T) {
	cause := errors.New("boom")

	assert.True(t, IsRetryable(Retryable(cause)))
	assert.False(t, IsRetryable(cause))
	assert.True(t, IsPermanent(Permanent(cause)))
	assert.False(t, IsPermanent(Retryable(cause)))

	assert.ErrorIs(t, Retryable(cause), cause)
	assert.ErrorIs(t, Permanent(cause), cause)
	assert.Nil(t, Retryable(nil))
	assert.Nil(t, Permanent(nil))
}
