package handlers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// HealthChecker is what the server's health and readiness probes call.
type HealthChecker interface {
	Check(ctx context.Context) HealthStatus
	AddCheck(name string, check HealthCheckFunc)
	RemoveCheck(name string)
}

// HealthCheckFunc probes a single dependency. A nil return means healthy.
type HealthCheckFunc func(ctx context.Context) error

// HealthStatus is the aggregated result reported by /health and /ready.
type HealthStatus struct {
	Healthy   bool                   `json:"healthy"`
	Ready     bool                   `json:"ready"`
	Message   string                 `json:"message,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
}

// CheckResult is the outcome of one dependency probe.
type CheckResult struct {
	Healthy     bool      `json:"healthy"`
	Message     string    `json:"message,omitempty"`
	Duration    string    `json:"duration,omitempty"`
	LastChecked time.Time `json:"last_checked,omitempty"`
}

// CompositeHealthChecker runs named dependency probes in parallel and
// aggregates them. The worker registers the database, the hot cache when
// Redis is enabled, and the campus API.
type CompositeHealthChecker struct {
	mu        sync.RWMutex
	checks    map[string]HealthCheckFunc
	startTime time.Time
	version   string
	timeout   time.Duration
}

// NewCompositeHealthChecker creates an empty checker reporting the given
// service version.
func NewCompositeHealthChecker(version string) *CompositeHealthChecker {
	return &CompositeHealthChecker{
		checks:    make(map[string]HealthCheckFunc),
		startTime: time.Now(),
		version:   version,
		timeout:   5 * time.Second,
	}
}

// SetTimeout overrides the per-probe timeout.
func (c *CompositeHealthChecker) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// AddCheck registers a named probe, replacing any existing one.
func (c *CompositeHealthChecker) AddCheck(name string, check HealthCheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// RemoveCheck unregisters a probe.
func (c *CompositeHealthChecker) RemoveCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checks, name)
}

// Check runs every registered probe with its own timeout and reports the
// aggregate. Any failing probe marks the service unhealthy and not ready.
func (c *CompositeHealthChecker) Check(ctx context.Context) HealthStatus {
	c.mu.RLock()
	checks := make(map[string]HealthCheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	status := HealthStatus{
		Healthy:   true,
		Ready:     true,
		Checks:    make(map[string]CheckResult),
		Uptime:    time.Since(c.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Version:   c.version,
	}
	if len(checks) == 0 {
		status.Message = "No health checks registered"
		return status
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		failing []string
	)
	for name, check := range checks {
		wg.Add(1)
		go func(name string, check HealthCheckFunc) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			start := time.Now()
			err := check(checkCtx)

			result := CheckResult{
				Healthy:     err == nil,
				Message:     "OK",
				Duration:    time.Since(start).Round(time.Millisecond).String(),
				LastChecked: time.Now().UTC(),
			}
			if err != nil {
				result.Message = err.Error()
			}

			mu.Lock()
			status.Checks[name] = result
			if err != nil {
				failing = append(failing, name)
			}
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()

	if len(failing) > 0 {
		status.Healthy = false
		status.Ready = false
		status.Message = "Some checks failed: " + strings.Join(failing, ", ")
	} else {
		status.Message = "All checks passed"
	}
	return status
}

// Pinger is the probe surface shared by the postgres connection and the
// Redis cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewDatabaseCheck probes the award ledger database.
func NewDatabaseCheck(db Pinger) HealthCheckFunc {
	return func(ctx context.Context) error {
		return db.Ping(ctx)
	}
}

// NewCacheCheck probes the hot snapshot cache.
func NewCacheCheck(cache Pinger) HealthCheckFunc {
	return func(ctx context.Context) error {
		return cache.Ping(ctx)
	}
}

// CampusChecker is the health surface of the campus API client, which
// reports through its circuit breaker rather than an error return.
type CampusChecker interface {
	IsHealthy(ctx context.Context) bool
}

// NewCampusCheck probes the campus evidence source.
func NewCampusCheck(api CampusChecker) HealthCheckFunc {
	return func(ctx context.Context) error {
		if !api.IsHealthy(ctx) {
			return errors.New("campus API unavailable")
		}
		return nil
	}
}
