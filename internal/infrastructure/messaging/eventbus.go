// Package messaging implements the in-process event bus that connects the
// qualification engine to its event handlers.
package messaging

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// EventBus extends shared.EventPublisher with subscription management.
type EventBus interface {
	shared.EventPublisher
	Subscribe(eventType shared.EventType, handler shared.EventHandler) error
	SubscribeAll(handler shared.EventHandler) error
	Close() error
}

// InMemoryEventBus is a simple in-memory implementation of EventBus.
// The engine publishes award events through it; handlers that need
// durability (notifications) hand off to the queue instead of doing
// slow work inline.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	handlers    map[shared.EventType][]shared.EventHandler
	allHandlers []shared.EventHandler
	middlewares []Middleware
	asyncMode   bool
	workerPool  chan struct{}
	logger      *slog.Logger
	metrics     *EventBusMetrics
	closed      bool
	closeCh     chan struct{}
	wg          sync.WaitGroup
}

// InMemoryEventBusConfig contains configuration for InMemoryEventBus.
type InMemoryEventBusConfig struct {
	// AsyncMode enables asynchronous event processing
	AsyncMode bool

	// WorkerPoolSize is the number of concurrent workers for async processing
	WorkerPoolSize int

	// Logger for structured logging
	Logger *slog.Logger

	// EnableMetrics enables metrics collection
	EnableMetrics bool
}

// DefaultInMemoryEventBusConfig returns sensible defaults.
func DefaultInMemoryEventBusConfig() InMemoryEventBusConfig {
	return InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 10,
		EnableMetrics:  true,
	}
}

// NewInMemoryEventBus creates a new in-memory event bus.
func NewInMemoryEventBus(config InMemoryEventBusConfig) *InMemoryEventBus {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 10
	}

	bus := &InMemoryEventBus{
		handlers:    make(map[shared.EventType][]shared.EventHandler),
		allHandlers: make([]shared.EventHandler, 0),
		asyncMode:   config.AsyncMode,
		workerPool:  make(chan struct{}, config.WorkerPoolSize),
		logger:      config.Logger,
		closeCh:     make(chan struct{}),
	}

	if config.EnableMetrics {
		bus.metrics = NewEventBusMetrics()
	}

	return bus
}

// Use adds middleware applied to every handler execution, in registration
// order. Must be called before Publish.
func (b *InMemoryEventBus) Use(middleware Middleware) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.middlewares = append(b.middlewares, middleware)
}

// Subscribe registers a handler for a specific event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.logger.Debug("subscribed handler", "event_type", eventType)

	return nil
}

// SubscribeAll registers a handler for all events.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	b.allHandlers = append(b.allHandlers, handler)
	b.logger.Debug("subscribed global handler")

	return nil
}

// Publish sends an event to all subscribed handlers. A failing handler never
// fails the publish: award commits must not depend on notification delivery.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}

	handlers := make([]shared.EventHandler, 0, len(b.handlers[event.EventType()])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.EventType()]...)
	handlers = append(handlers, b.allHandlers...)
	middlewares := b.middlewares
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug("no handlers for event", "event_type", event.EventType())
		return nil
	}

	if b.metrics != nil {
		b.metrics.RecordPublish(event.EventType())
	}

	for _, handler := range handlers {
		wrapped := chain(handler, middlewares)
		if b.asyncMode {
			b.executeAsync(event, wrapped)
		} else {
			if err := b.executeSync(event, wrapped); err != nil {
				b.logger.Error("handler error", "event_type", event.EventType(), "error", err)
			}
		}
	}

	return nil
}

// executeAsync executes a handler asynchronously using the worker pool.
func (b *InMemoryEventBus) executeAsync(event shared.Event, handler shared.EventHandler) {
	b.wg.Add(1)

	go func() {
		defer b.wg.Done()

		// Acquire worker slot
		select {
		case b.workerPool <- struct{}{}:
			defer func() { <-b.workerPool }()
		case <-b.closeCh:
			return
		}

		start := time.Now()
		err := handler(event)
		duration := time.Since(start)

		if b.metrics != nil {
			b.metrics.RecordHandlerExecution(event.EventType(), duration, err == nil)
		}

		if err != nil {
			b.logger.Error("async handler error",
				"event_type", event.EventType(),
				"duration", duration,
				"error", err,
			)
		}
	}()
}

// executeSync executes a handler synchronously.
func (b *InMemoryEventBus) executeSync(event shared.Event, handler shared.EventHandler) error {
	start := time.Now()
	err := handler(event)
	duration := time.Since(start)

	if b.metrics != nil {
		b.metrics.RecordHandlerExecution(event.EventType(), duration, err == nil)
	}

	return err
}

// Close gracefully shuts down the event bus, waiting for pending handlers.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.closeCh)
	b.mu.Unlock()

	b.wg.Wait()

	b.logger.Info("event bus closed")
	return nil
}

// Metrics returns the current metrics, or nil when disabled.
func (b *InMemoryEventBus) Metrics() *EventBusMetrics {
	return b.metrics
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// Middleware wraps handler execution.
type Middleware func(shared.EventHandler) shared.EventHandler

// chain builds the handler call chain with middleware applied outermost-first.
func chain(handler shared.EventHandler, middlewares []Middleware) shared.EventHandler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

// RecoveryMiddleware recovers from panics in handlers. A panicking
// notification handler must never take down the qualification run that
// published the event.
func RecoveryMiddleware(logger *slog.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) (err error) {
			defer func() {
				if r := recover(); r != nil {
					stack := string(debug.Stack())
					logger.Error("handler panic recovered",
						"event_type", event.EventType(),
						"panic", r,
						"stack", stack,
					)
					err = fmt.Errorf("handler panic: %v", r)
				}
			}()
			return next(event)
		}
	}
}

// LoggingMiddleware logs handler execution.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) error {
			start := time.Now()
			err := next(event)
			duration := time.Since(start)

			if err != nil {
				logger.Error("handler failed",
					"event_type", event.EventType(),
					"aggregate_id", event.AggregateID(),
					"duration", duration,
					"error", err,
				)
			} else {
				logger.Debug("handler completed",
					"event_type", event.EventType(),
					"aggregate_id", event.AggregateID(),
					"duration", duration,
				)
			}

			return err
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// EventBusMetrics tracks event bus performance metrics.
type EventBusMetrics struct {
	mu sync.RWMutex

	PublishedTotal map[shared.EventType]int64

	HandlerExecutions    int64
	HandlerSuccesses     int64
	HandlerFailures      int64
	HandlerTotalDuration time.Duration
	HandlersByType       map[shared.EventType]int64

	LastReset time.Time
}

// NewEventBusMetrics creates a new metrics tracker.
func NewEventBusMetrics() *EventBusMetrics {
	return &EventBusMetrics{
		PublishedTotal: make(map[shared.EventType]int64),
		HandlersByType: make(map[shared.EventType]int64),
		LastReset:      time.Now(),
	}
}

// RecordPublish records a publish event.
func (m *EventBusMetrics) RecordPublish(eventType shared.EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PublishedTotal[eventType]++
}

// RecordHandlerExecution records a handler execution.
func (m *EventBusMetrics) RecordHandlerExecution(eventType shared.EventType, duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.HandlerExecutions++
	m.HandlerTotalDuration += duration
	m.HandlersByType[eventType]++

	if success {
		m.HandlerSuccesses++
	} else {
		m.HandlerFailures++
	}
}

// Snapshot returns a copy of current metrics.
func (m *EventBusMetrics) Snapshot() EventBusMetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	avgDuration := time.Duration(0)
	if m.HandlerExecutions > 0 {
		avgDuration = m.HandlerTotalDuration / time.Duration(m.HandlerExecutions)
	}

	var published int64
	for _, v := range m.PublishedTotal {
		published += v
	}

	return EventBusMetricsSnapshot{
		TotalPublished:         published,
		TotalHandlerExecs:      m.HandlerExecutions,
		HandlerSuccessRate:     m.successRate(),
		AverageHandlerDuration: avgDuration,
		LastReset:              m.LastReset,
	}
}

func (m *EventBusMetrics) successRate() float64 {
	if m.HandlerExecutions == 0 {
		return 1.0
	}
	return float64(m.HandlerSuccesses) / float64(m.HandlerExecutions)
}

// EventBusMetricsSnapshot is a point-in-time snapshot of metrics.
type EventBusMetricsSnapshot struct {
	TotalPublished         int64
	TotalHandlerExecs      int64
	HandlerSuccessRate     float64
	AverageHandlerDuration time.Duration
	LastReset              time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// ErrEventBusClosed is returned when operations are attempted on a closed bus.
var ErrEventBusClosed = errors.New("event bus is closed")
