// Package campus implements the Campus LMS API client.
package campus

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket guarding outbound Campus API calls. A
// qualification pass fans out one request per candidate, so without this a
// single run could burn the platform quota in seconds.
type RateLimiter struct {
	mu sync.Mutex

	maxTokens   float64
	refillRate  float64 // tokens per second
	tokens      float64
	lastRefill  time.Time
	minInterval time.Duration
	lastRequest time.Time
	waitTimeout time.Duration
	retryAfter  time.Duration

	// consecutiveWaits drives the adaptive backoff once the bucket runs dry.
	consecutiveWaits int
}

// RateLimiterConfig tunes the token bucket.
type RateLimiterConfig struct {
	// RequestsPerSecond is the sustained request rate.
	RequestsPerSecond float64

	// BurstSize is the bucket capacity.
	BurstSize int

	// MinInterval is enforced between requests even with tokens available.
	MinInterval time.Duration

	// WaitTimeout caps how long Allow blocks for a token.
	WaitTimeout time.Duration

	// RetryAfter is the fallback wait when the API rate-limits us without a
	// Retry-After header.
	RetryAfter time.Duration
}

// DefaultRateLimiterConfig stays well under the Campus platform quota.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 2.0,
		BurstSize:         5,
		MinInterval:       200 * time.Millisecond,
		WaitTimeout:       30 * time.Second,
		RetryAfter:        60 * time.Second,
	}
}

// NewRateLimiter creates a limiter with a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	now := time.Now()
	return &RateLimiter{
		maxTokens:   float64(config.BurstSize),
		refillRate:  config.RequestsPerSecond,
		tokens:      float64(config.BurstSize),
		lastRefill:  now,
		minInterval: config.MinInterval,
		lastRequest: now.Add(-config.MinInterval),
		waitTimeout: config.WaitTimeout,
		retryAfter:  config.RetryAfter,
	}
}

// RateLimitError reports that a request was throttled, either locally or by
// the API.
type RateLimitError struct {
	// RetryAfter is the suggested wait before retrying.
	RetryAfter time.Duration

	Message string
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// Is matches any *RateLimitError regardless of the wait hint.
func (e *RateLimitError) Is(target error) bool {
	_, ok := target.(*RateLimitError)
	return ok
}

// Allow blocks until a token is available, the context is cancelled, or the
// wait timeout elapses.
func (rl *RateLimiter) Allow(ctx context.Context) error {
	deadline := time.Now().Add(rl.waitTimeout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		waitTime, ok := rl.tryAcquire()
		if ok {
			return nil
		}

		if time.Now().Add(waitTime).After(deadline) {
			return &RateLimitError{
				RetryAfter: waitTime,
				Message:    "rate limit exceeded, retry after " + waitTime.String(),
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}
}

// tryAcquire consumes a token if one is available. On failure it returns how
// long to wait before the next attempt.
func (rl *RateLimiter) tryAcquire() (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillTokens()

	if since := time.Since(rl.lastRequest); since < rl.minInterval {
		return rl.minInterval - since, false
	}

	if rl.tokens < 1.0 {
		needed := 1.0 - rl.tokens
		wait := time.Duration(needed / rl.refillRate * float64(time.Second))

		// Double the wait per consecutive dry attempt, capped at 32x.
		if rl.consecutiveWaits > 0 {
			wait *= time.Duration(1 << uint(min(rl.consecutiveWaits, 5)))
		}
		rl.consecutiveWaits++
		return wait, false
	}

	rl.tokens--
	rl.lastRequest = time.Now()
	rl.consecutiveWaits = 0
	return 0, true
}

// refillTokens credits tokens for elapsed time. Caller holds the lock.
func (rl *RateLimiter) refillTokens() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}

	rl.tokens += elapsed * rl.refillRate
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now
}

// RecordRateLimitHit reacts to a 429 from the API: the bucket empties, the
// refill rate drops, and the API's Retry-After hint replaces the default.
func (rl *RateLimiter) RecordRateLimitHit(retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.tokens = 0
	if retryAfter > 0 {
		rl.retryAfter = retryAfter
	}
	rl.refillRate *= 0.8
	rl.lastRequest = time.Now()
	rl.consecutiveWaits++
}

// Reset restores the initial full-bucket state.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.tokens = rl.maxTokens
	rl.lastRefill = time.Now()
	rl.lastRequest = time.Now().Add(-rl.minInterval)
	rl.consecutiveWaits = 0
}

// RateLimiterStatus is a point-in-time view for the client status endpoint.
type RateLimiterStatus struct {
	AvailableTokens  float64
	MaxTokens        float64
	RefillRate       float64
	LastRefill       time.Time
	LastRequest      time.Time
	ConsecutiveWaits int
}

// Status reports the limiter state after refilling.
func (rl *RateLimiter) Status() RateLimiterStatus {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillTokens()

	return RateLimiterStatus{
		AvailableTokens:  rl.tokens,
		MaxTokens:        rl.maxTokens,
		RefillRate:       rl.refillRate,
		LastRefill:       rl.lastRefill,
		LastRequest:      rl.lastRequest,
		ConsecutiveWaits: rl.consecutiveWaits,
	}
}

// RetryConfig controls the client's retry loop around transient failures.
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64

	// Jitter spreads retries across workers (0.0 to 1.0).
	Jitter float64
}

// DefaultRetryConfig returns sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.1,
	}
}

// CalculateBackoff returns the wait before the given retry attempt.
func (c RetryConfig) CalculateBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		return c.InitialBackoff
	}

	backoff := float64(c.InitialBackoff)
	for i := 0; i < attempt; i++ {
		backoff *= c.BackoffMultiplier
	}
	if backoff > float64(c.MaxBackoff) {
		backoff = float64(c.MaxBackoff)
	}

	if c.Jitter > 0 {
		// Deterministic jitter keyed on the attempt number, so retries are
		// reproducible in tests.
		jitterAmount := backoff * c.Jitter
		adjustment := jitterAmount * float64((attempt*37)%100) / 100.0
		backoff = backoff - jitterAmount/2 + adjustment
	}

	return time.Duration(backoff)
}
