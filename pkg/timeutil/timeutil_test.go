package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetLeadTime(t *testing.T) {
	deadline := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	// Inclusive boundary: exactly the window still qualifies.
	assert.True(t, MetLeadTime(deadline.Add(-48*time.Hour), deadline, 48*time.Hour))
	assert.True(t, MetLeadTime(deadline.Add(-50*time.Hour), deadline, 48*time.Hour))
	assert.False(t, MetLeadTime(deadline.Add(-47*time.Hour), deadline, 48*time.Hour))
	assert.False(t, MetLeadTime(deadline.Add(time.Hour), deadline, 48*time.Hour))
}

func TestLeadTime(t *testing.T) {
	deadline := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 2*time.Hour, LeadTime(deadline.Add(-2*time.Hour), deadline))
	assert.Equal(t, -time.Hour, LeadTime(deadline.Add(time.Hour), deadline))
}

func TestHoursBetween(t *testing.T) {
	a := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, 5.5, HoursBetween(a, a.Add(5*time.Hour+30*time.Minute)))
	assert.Equal(t, -1.0, HoursBetween(a, a.Add(-time.Hour)))
}

func TestDayBoundaries(t *testing.T) {
	loc := time.FixedZone("UTC+6", 6*3600)
	// 03:00 on Feb 2 in UTC+6 is still Feb 1 in UTC.
	local := time.Date(2026, 2, 2, 3, 0, 0, 0, loc)

	start := StartOfDay(local)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, start.Add(24*time.Hour-time.Nanosecond), EndOfDay(local))
}

func TestSameDay(t *testing.T) {
	a := time.Date(2026, 2, 1, 0, 0, 1, 0, time.UTC)
	b := time.Date(2026, 2, 1, 23, 59, 59, 0, time.UTC)
	c := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)

	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(b, c))
}

func TestFormatTimestamp(t *testing.T) {
	loc := time.FixedZone("UTC+6", 6*3600)
	ts := time.Date(2026, 2, 1, 16, 30, 0, 0, loc)
	assert.Equal(t, "2026-02-01T10:30:00Z", FormatTimestamp(ts))
}
