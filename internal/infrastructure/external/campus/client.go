// Package campus implements the Campus LMS API client.
// This package handles all communication with the Campus platform: activity
// completion state, grade histories, course structure, and active enrollments.
package campus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/learnhub/badge-engine/internal/domain/evidence"
	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the Campus API client.
type ClientConfig struct {
	// BaseURL is the Campus API base URL
	BaseURL string

	// APIKey is the API key for authentication
	APIKey string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// RateLimiterConfig for API rate limiting
	RateLimiterConfig RateLimiterConfig

	// CircuitBreakerConfig for fault tolerance
	CircuitBreakerConfig CircuitBreakerConfig

	// RetryConfig for retry behavior
	RetryConfig RetryConfig

	// Logger for structured logging
	Logger *slog.Logger

	// Debug enables debug logging
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:              baseURL,
		Timeout:              30 * time.Second,
		RateLimiterConfig:    DefaultRateLimiterConfig(),
		CircuitBreakerConfig: DefaultCircuitBreakerConfig(),
		RetryConfig:          DefaultRetryConfig(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the Campus API client. It implements the evidence source
// contracts the qualification engine reads from: ActivityCompletionStore,
// GradeStore, CourseRegistry, and CandidateSource.
type Client struct {
	config         ClientConfig
	httpClient     *http.Client
	logger         *slog.Logger
	rateLimiter    *RateLimiter
	circuitBreaker *CircuitBreaker
	mapper         *Mapper
}

// Compile-time checks that the client satisfies the source contracts.
var (
	_ evidence.ActivityCompletionStore = (*Client)(nil)
	_ evidence.GradeStore              = (*Client)(nil)
	_ evidence.CourseRegistry          = (*Client)(nil)
	_ evidence.CandidateSource         = (*Client)(nil)
)

// NewClient creates a new Campus API client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:         config.Logger,
		rateLimiter:    NewRateLimiter(config.RateLimiterConfig),
		circuitBreaker: NewCircuitBreaker(config.CircuitBreakerConfig),
		mapper:         NewMapper(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// EVIDENCE SOURCE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// List fetches all of a learner's activities in a course with completion
// state, handling pagination.
func (c *Client) List(ctx context.Context, user shared.UserID, course shared.CourseID) ([]evidence.Completion, error) {
	var all []ActivityDTO
	page := 1
	perPage := 200

	for {
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		params.Set("per_page", strconv.Itoa(perPage))

		path := fmt.Sprintf("/api/v1/courses/%s/users/%s/activities?%s",
			url.PathEscape(course.String()), url.PathEscape(user.String()), params.Encode())

		var response APIResponse[[]ActivityDTO]
		if err := c.doRequest(ctx, http.MethodGet, path, nil, &response); err != nil {
			return nil, c.sourceError("List", err)
		}
		if !response.Success {
			return nil, shared.WrapError("campus", "List", shared.ErrInvalidFormat, "api error", errors.New(response.Error))
		}

		all = append(all, response.Data...)

		if len(response.Data) < perPage || (response.Meta != nil && page >= response.Meta.TotalPages) {
			break
		}
		page++
	}

	return c.mapper.CompletionsFromDTO(all), nil
}

// History fetches the grade history for one activity, oldest first.
func (c *Client) History(ctx context.Context, user shared.UserID, item shared.ItemID) ([]evidence.GradePoint, error) {
	path := fmt.Sprintf("/api/v1/users/%s/activities/%s/grades",
		url.PathEscape(user.String()), url.PathEscape(item.String()))

	var response APIResponse[[]GradeDTO]
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &response); err != nil {
		if isNotFoundError(err) {
			// An activity with no grade records has an empty history.
			return nil, nil
		}
		return nil, c.sourceError("History", err)
	}
	if !response.Success {
		return nil, shared.WrapError("campus", "History", shared.ErrInvalidFormat, "api error", errors.New(response.Error))
	}

	return c.mapper.GradeHistoryFromDTO(response.Data), nil
}

// ActivityCount returns the total number of activities in a course.
func (c *Client) ActivityCount(ctx context.Context, course shared.CourseID) (int, error) {
	dto, err := c.getCourse(ctx, course)
	if err != nil {
		return 0, err
	}
	return dto.ActivityCount, nil
}

// CourseExists reports whether the course still exists and is not archived.
func (c *Client) CourseExists(ctx context.Context, course shared.CourseID) (bool, error) {
	dto, err := c.getCourse(ctx, course)
	if err != nil {
		if shared.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return !dto.Archived, nil
}

// UserExists reports whether the learner account still exists and is active.
func (c *Client) UserExists(ctx context.Context, user shared.UserID) (bool, error) {
	path := fmt.Sprintf("/api/v1/users/%s", url.PathEscape(user.String()))

	var response APIResponse[UserDTO]
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &response); err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, c.sourceError("UserExists", err)
	}
	if !response.Success {
		return false, nil
	}
	return response.Data.Active, nil
}

// ActiveCandidates enumerates all active enrollments, the (user, course)
// pairs one engine run evaluates. Pagination is followed to the end; a
// partial candidate list would silently skip learners.
func (c *Client) ActiveCandidates(ctx context.Context) ([]evidence.Candidate, error) {
	var all []EnrollmentDTO
	page := 1
	perPage := 500

	for {
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		params.Set("per_page", strconv.Itoa(perPage))

		path := "/api/v1/enrollments/active?" + params.Encode()

		var response APIResponse[[]EnrollmentDTO]
		if err := c.doRequest(ctx, http.MethodGet, path, nil, &response); err != nil {
			return nil, c.sourceError("ActiveCandidates", err)
		}
		if !response.Success {
			return nil, shared.WrapError("campus", "ActiveCandidates", shared.ErrInvalidFormat, "api error", errors.New(response.Error))
		}

		all = append(all, response.Data...)

		if len(response.Data) < perPage || (response.Meta != nil && page >= response.Meta.TotalPages) {
			break
		}
		page++
	}

	return c.mapper.CandidatesFromDTO(all), nil
}

func (c *Client) getCourse(ctx context.Context, course shared.CourseID) (*CourseDTO, error) {
	path := fmt.Sprintf("/api/v1/courses/%s", url.PathEscape(course.String()))

	var response APIResponse[CourseDTO]
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &response); err != nil {
		if isNotFoundError(err) {
			return nil, shared.WrapError("campus", "getCourse", shared.ErrNotFound, "course not found", err)
		}
		return nil, c.sourceError("getCourse", err)
	}
	if !response.Success {
		return nil, shared.WrapError("campus", "getCourse", shared.ErrInvalidFormat, "api error", errors.New(response.Error))
	}
	return &response.Data, nil
}

// sourceError maps transport-level failures onto the shared taxonomy so the
// engine's skip-and-continue logic can classify them.
func (c *Client) sourceError(op string, err error) error {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return shared.WrapError("campus", op, shared.ErrRateLimited, "campus api rate limited", err)
	}
	if errors.Is(err, ErrCircuitOpen) {
		return shared.WrapError("campus", op, shared.ErrServiceUnavailable, "campus api circuit open", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return shared.WrapError("campus", op, shared.ErrTimeout, "campus api timeout", err)
	}
	return shared.WrapError("campus", op, shared.ErrServiceUnavailable, "campus api request failed", err)
}

// isNotFoundError reports whether the error is an HTTP 404-shaped API error.
func isNotFoundError(err error) bool {
	var apiErr *APIErrorDTO
	if errors.As(err, &apiErr) {
		return apiErr.Code == "NOT_FOUND"
	}
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		return statusErr.code == http.StatusNotFound
	}
	return false
}

// statusError carries a bare HTTP status when the body had no parseable
// error payload.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("campus api: status %d", e.code)
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// doRequest performs an HTTP request with rate limiting, circuit breaking, and retries.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	// Check circuit breaker
	if err := c.circuitBreaker.Allow(); err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.RetryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.config.RetryConfig.CalculateBackoff(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		// Wait for rate limiter
		if err := c.rateLimiter.Allow(ctx); err != nil {
			return err
		}

		err := c.doSingleRequest(ctx, method, path, body, result)
		if err == nil {
			c.circuitBreaker.RecordSuccess()
			return nil
		}

		lastErr = err

		// Check if error is retryable
		if !c.isRetryable(err) {
			c.circuitBreaker.RecordFailure()
			return err
		}

		// Handle rate limit response
		var rateLimitErr *RateLimitError
		if errors.As(err, &rateLimitErr) {
			c.rateLimiter.RecordRateLimitHit(rateLimitErr.RetryAfter)
		}
	}

	c.circuitBreaker.RecordFailure()
	return fmt.Errorf("request failed after %d retries: %w", c.config.RetryConfig.MaxRetries, lastErr)
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	fullURL := c.config.BaseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	if c.config.Debug {
		c.logger.Debug("campus api request", "method", method, "path", path)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	// Handle rate limiting
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 60 * time.Second
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return &RateLimitError{
			RetryAfter: retryAfter,
			Message:    "rate limit exceeded",
		}
	}

	// Handle error responses
	if resp.StatusCode >= 400 {
		var apiErr APIErrorDTO
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Message != "" {
			return &apiErr
		}
		return &statusError{code: resp.StatusCode}
	}

	// Unmarshal response
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

// isRetryable checks if an error is retryable.
func (c *Client) isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Rate limit errors are retryable
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}

	// API errors - check error code
	var apiErr *APIErrorDTO
	if errors.As(err, &apiErr) {
		return apiErr.Code == "SERVER_ERROR" || apiErr.Code == "TEMPORARILY_UNAVAILABLE"
	}

	// Bare 5xx statuses are retryable
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		return statusErr.code >= 500
	}

	// Network errors are generally retryable
	errStr := err.Error()
	for _, sub := range []string{"timeout", "connection refused", "temporary", "reset", "EOF"} {
		if strings.Contains(errStr, sub) {
			return true
		}
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH AND STATUS
// ══════════════════════════════════════════════════════════════════════════════

// IsHealthy checks if the Campus API is reachable.
func (c *Client) IsHealthy(ctx context.Context) bool {
	var response APIResponse[map[string]interface{}]
	err := c.doSingleRequest(ctx, http.MethodGet, "/health", nil, &response)
	return err == nil && response.Success
}

// ClientStatus describes the client's protective machinery.
type ClientStatus struct {
	RateLimiter    RateLimiterStatus
	CircuitBreaker CircuitBreakerStatus
	IsHealthy      bool
}

// Status returns the current status of the client.
func (c *Client) Status(ctx context.Context) ClientStatus {
	return ClientStatus{
		RateLimiter:    c.rateLimiter.Status(),
		CircuitBreaker: c.circuitBreaker.Status(),
		IsHealthy:      c.IsHealthy(ctx),
	}
}

// Reset resets the rate limiter and circuit breaker.
func (c *Client) Reset() {
	c.rateLimiter.Reset()
	c.circuitBreaker.Reset()
}
