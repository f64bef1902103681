package scheduler

import (
	"fmt"
	"time"
)

// IntervalSchedule fires at a fixed interval measured from the previous run.
// The default qualification and reconciliation schedules use this; a cron
// expression in the configuration swaps in a CronSchedule instead.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule creates an interval schedule.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{
		Interval: interval,
	}
}

// Next returns t plus the interval.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String renders the schedule in cron's @every notation.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval.String())
}
