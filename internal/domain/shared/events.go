// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
const (
	// Award events
	EventBadgeAwarded EventType = "award.badge_awarded"
	EventBadgeRevoked EventType = "award.badge_revoked"
	EventXPCredited   EventType = "award.xp_credited"

	// Evidence events
	EventSnapshotRebuilt EventType = "evidence.snapshot_rebuilt"
	EventSnapshotPruned  EventType = "evidence.snapshot_pruned"

	// System events
	EventRunCompleted       EventType = "system.run_completed"
	EventReconcileCompleted EventType = "system.reconcile_completed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventHandler processes a single domain event.
type EventHandler func(event Event) error

// EventPublisher publishes domain events to interested subscribers.
type EventPublisher interface {
	Publish(event Event) error
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	Version     int       `json:"version"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Award Events
// ═══════════════════════════════════════════════════════════════════════════

// BadgeAwardedEvent is emitted when a qualification outcome is committed to
// the ledger. The notification handler turns it into a queue payload for the
// presentation layer.
type BadgeAwardedEvent struct {
	BaseEvent
	UserID          string   `json:"user_id"`
	BadgeID         string   `json:"badge_id"`
	BadgeName       string   `json:"badge_name"`
	CourseID        string   `json:"course_id"`
	Occurrence      int      `json:"occurrence"`
	Coins           int      `json:"coins"`
	XP              int      `json:"xp"`
	EvidenceSummary []string `json:"evidence_summary"`
}

// Payload implements Event interface.
func (e BadgeAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":          e.UserID,
		"badge_id":         e.BadgeID,
		"badge_name":       e.BadgeName,
		"course_id":        e.CourseID,
		"occurrence":       e.Occurrence,
		"coins":            e.Coins,
		"xp":               e.XP,
		"evidence_summary": e.EvidenceSummary,
	}
}

// NewBadgeAwardedEvent creates a new BadgeAwardedEvent.
func NewBadgeAwardedEvent(userID, badgeID, badgeName, courseID string, occurrence, coins, xp int, evidence []string) BadgeAwardedEvent {
	return BadgeAwardedEvent{
		BaseEvent:       NewBaseEvent(EventBadgeAwarded, userID),
		UserID:          userID,
		BadgeID:         badgeID,
		BadgeName:       badgeName,
		CourseID:        courseID,
		Occurrence:      occurrence,
		Coins:           coins,
		XP:              xp,
		EvidenceSummary: evidence,
	}
}

// BadgeRevokedEvent is emitted when an admin retracts an award.
// Revocation removes the ledger record but never subtracts granted XP.
type BadgeRevokedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	BadgeID  string `json:"badge_id"`
	CourseID string `json:"course_id"`
	Reason   string `json:"reason,omitempty"`
}

// Payload implements Event interface.
func (e BadgeRevokedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"badge_id":  e.BadgeID,
		"course_id": e.CourseID,
		"reason":    e.Reason,
	}
}

// NewBadgeRevokedEvent creates a new BadgeRevokedEvent.
func NewBadgeRevokedEvent(userID, badgeID, courseID, reason string) BadgeRevokedEvent {
	return BadgeRevokedEvent{
		BaseEvent: NewBaseEvent(EventBadgeRevoked, userID),
		UserID:    userID,
		BadgeID:   badgeID,
		CourseID:  courseID,
		Reason:    reason,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// System Events
// ═══════════════════════════════════════════════════════════════════════════

// RunCompletedEvent is emitted after every engine run with its summary.
type RunCompletedEvent struct {
	BaseEvent
	Awarded int           `json:"awarded"`
	Skipped int           `json:"skipped"`
	Errors  int           `json:"errors"`
	Elapsed time.Duration `json:"elapsed"`
}

// Payload implements Event interface.
func (e RunCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"awarded": e.Awarded,
		"skipped": e.Skipped,
		"errors":  e.Errors,
		"elapsed": e.Elapsed.String(),
	}
}

// NewRunCompletedEvent creates a new RunCompletedEvent.
func NewRunCompletedEvent(awarded, skipped, errs int, elapsed time.Duration) RunCompletedEvent {
	return RunCompletedEvent{
		BaseEvent: NewBaseEvent(EventRunCompleted, "engine"),
		Awarded:   awarded,
		Skipped:   skipped,
		Errors:    errs,
		Elapsed:   elapsed,
	}
}
