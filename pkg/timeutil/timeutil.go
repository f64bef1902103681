// Package timeutil provides the time arithmetic used by deadline-based badge
// rules: lead-time computation, UTC normalization, and day boundaries for
// reconciler scheduling. No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// ToUTC normalizes a time to UTC. All persisted and compared timestamps go
// through this so that equality and ordering are timezone-independent.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// HoursBetween returns the number of hours from a to b. Negative when b is
// before a. Early-bird rules use this for the "completed N hours before the
// deadline" lead time.
func HoursBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours()
}

// LeadTime returns how far before the deadline the completion landed.
// Negative when the completion was late.
func LeadTime(completedAt, deadlineAt time.Time) time.Duration {
	return deadlineAt.Sub(completedAt)
}

// MetLeadTime reports whether a completion beat its deadline by at least the
// given window.
func MetLeadTime(completedAt, deadlineAt time.Time, window time.Duration) bool {
	return LeadTime(completedAt, deadlineAt) >= window
}

// StartOfDay returns the start of the day (00:00:00 UTC) containing t.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last nanosecond of the day containing t, in UTC.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Nanosecond)
}

// SameDay reports whether two times fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b))
}

// FormatTimestamp renders a timestamp the way snapshots and notifications
// display it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
