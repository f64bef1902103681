package engine

import (
	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// Result is the outcome of evaluating one (user, badge) pair in a run.
// Making failure explicit per pair (instead of burying it in log lines) is
// what lets the summary, and the tests, account for every evaluation.
type Result struct {
	User    shared.UserID
	Course  shared.CourseID
	Badge   shared.BadgeID
	Awarded int // records created for this pair in this run
	Err     error
}

// Summary aggregates a run's results, the shape reported to the scheduler
// and operational monitoring.
type Summary struct {
	// Awarded is the number of award records created.
	Awarded int

	// Skipped is the number of (user, badge) evaluations that completed
	// without creating anything new, including duplicate-absorbed writes.
	Skipped int

	// Errors is the number of evaluations that failed (source reads,
	// storage reads). Failed pairs are retried implicitly on the next tick.
	Errors int
}

// add folds one result into the summary.
func (s *Summary) add(r Result) {
	switch {
	case r.Err != nil:
		s.Errors++
	case r.Awarded > 0:
		s.Awarded += r.Awarded
	default:
		s.Skipped++
	}
}
