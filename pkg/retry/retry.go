// Package retry implements bounded retries with exponential backoff and
// jitter. The badge engine uses it around the Campus API, the notification
// queue, and transient database failures.
//
// Errors steer the loop: wrap with Retryable to request another attempt,
// with Permanent to stop immediately. Unclassified errors are not retried
// unless a RetryIf predicate says otherwise.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryableError marks an error as worth another attempt.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err so the retry loop will try again. Returns nil for nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err carries a RetryableError anywhere in its
// chain.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// PermanentError marks an error as final regardless of remaining attempts.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so the retry loop stops immediately. Returns nil for
// nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err carries a PermanentError anywhere in its
// chain.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// Config holds the retry policy.
type Config struct {
	// MaxAttempts counts the first attempt too. Default 3.
	MaxAttempts int

	// InitialDelay is the wait before the first retry. Default 100ms.
	InitialDelay time.Duration

	// MaxDelay caps the backoff. Default 30s.
	MaxDelay time.Duration

	// Multiplier grows the delay per attempt. Default 2.0.
	Multiplier float64

	// JitterFactor randomizes each delay by up to ±factor. Default 0.1.
	JitterFactor float64

	// RetryIf overrides the error classification. When nil, only errors
	// wrapped with Retryable are retried.
	RetryIf func(error) bool

	// OnRetry runs before each sleep, for logging or metrics. It is not
	// called after the final attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultConfig returns the default policy.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// Option adjusts a Config. Invalid values are ignored rather than clamped.
type Option func(*Config)

// WithMaxAttempts sets the total number of attempts.
func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}

// WithInitialDelay sets the wait before the first retry.
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.InitialDelay = d
		}
	}
}

// WithMaxDelay caps the backoff.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.MaxDelay = d
		}
	}
}

// WithMultiplier sets the backoff growth factor.
func WithMultiplier(m float64) Option {
	return func(c *Config) {
		if m >= 1.0 {
			c.Multiplier = m
		}
	}
}

// WithJitter sets the jitter factor, 0 to 1.
func WithJitter(j float64) Option {
	return func(c *Config) {
		if j >= 0 && j <= 1.0 {
			c.JitterFactor = j
		}
	}
}

// WithRetryIf replaces the default Retryable-only classification.
func WithRetryIf(fn func(error) bool) Option {
	return func(c *Config) {
		c.RetryIf = fn
	}
}

// WithOnRetry sets the pre-sleep callback.
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(c *Config) {
		c.OnRetry = fn
	}
}

// Retrier executes operations under one retry policy.
type Retrier struct {
	config Config
}

// New builds a Retrier from the defaults plus the given options.
func New(opts ...Option) *Retrier {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &Retrier{config: config}
}

// Do runs operation until it succeeds, exhausts its attempts, hits a
// permanent or unclassified error, or the context ends. The error returned
// to the caller is unwrapped from its Retryable/Permanent marker, so callers
// match against the underlying cause.
func (r *Retrier) Do(ctx context.Context, operation func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if IsPermanent(err) {
			return errors.Unwrap(err)
		}

		shouldRetry := IsRetryable(err)
		if r.config.RetryIf != nil {
			shouldRetry = r.config.RetryIf(err)
		}
		if !shouldRetry {
			return err
		}

		if attempt == r.config.MaxAttempts {
			if IsRetryable(err) {
				return errors.Unwrap(err)
			}
			return err
		}

		delay := r.calculateDelay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(delay):
		}
	}

	return lastErr
}

// calculateDelay computes initialDelay * multiplier^(attempt-1), capped at
// MaxDelay, with symmetric jitter applied after the cap.
func (r *Retrier) calculateDelay(attempt int) time.Duration {
	delay := float64(r.config.InitialDelay) * math.Pow(r.config.Multiplier, float64(attempt-1))
	if delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}

	if r.config.JitterFactor > 0 {
		delay += delay * r.config.JitterFactor * (rand.Float64()*2 - 1)
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// Do runs operation with a one-off Retrier.
func Do(ctx context.Context, operation func(ctx context.Context) error, opts ...Option) error {
	return New(opts...).Do(ctx, operation)
}

// DoWithData is Do for operations that return a value.
func DoWithData[T any](ctx context.Context, operation func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	var result T
	err := New(opts...).Do(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = operation(ctx)
		return opErr
	})
	return result, err
}

// Common retry configurations for badge engine use cases.

// CampusAPIRetrier is tuned for Campus API calls: patient delays so retries
// do not fight the client's own rate limiter.
func CampusAPIRetrier() *Retrier {
	return New(
		WithMaxAttempts(3),
		WithInitialDelay(500*time.Millisecond),
		WithMaxDelay(10*time.Second),
		WithMultiplier(2.0),
		WithJitter(0.2),
	)
}

// NotificationRetrier is tuned for notification queue writes.
func NotificationRetrier() *Retrier {
	return New(
		WithMaxAttempts(5),
		WithInitialDelay(100*time.Millisecond),
		WithMaxDelay(5*time.Second),
		WithMultiplier(1.5),
		WithJitter(0.1),
	)
}

// DatabaseRetrier is tuned for transient database failures.
func DatabaseRetrier() *Retrier {
	return New(
		WithMaxAttempts(3),
		WithInitialDelay(50*time.Millisecond),
		WithMaxDelay(1*time.Second),
		WithMultiplier(2.0),
		WithJitter(0.05),
	)
}
