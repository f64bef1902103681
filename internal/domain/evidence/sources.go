package evidence

import (
	"context"
	"time"

	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// Completion is one activity's completion state as reported by the platform.
type Completion struct {
	// ItemID identifies the activity.
	ItemID shared.ItemID

	// Title is the activity's display name.
	Title string

	// SortOrder is the activity's position within the course. Streak rules
	// walk activities in this order; an incomplete activity sitting between
	// two completions is what breaks a run.
	SortOrder int

	// Completed reports whether the learner finished the activity.
	Completed bool

	// CompletedAt is the completion timestamp (zero when not completed).
	CompletedAt time.Time

	// HasDeadline reports whether the activity carries an explicit deadline.
	HasDeadline bool

	// DeadlineAt is the deadline (meaningful only when HasDeadline).
	DeadlineAt time.Time

	// Gradable reports whether the activity records grades.
	Gradable bool
}

// GradePoint is one recorded grade for an activity.
type GradePoint struct {
	Timestamp  time.Time
	Percentage float64
}

// ActivityCompletionStore provides the completion state of a learner's
// activities within a course.
type ActivityCompletionStore interface {
	// List returns all activities for the (user, course) pair, completed or
	// not, in no particular order.
	List(ctx context.Context, user shared.UserID, course shared.CourseID) ([]Completion, error)
}

// GradeStore provides the recorded grade history for one activity,
// ordered oldest to newest.
type GradeStore interface {
	History(ctx context.Context, user shared.UserID, item shared.ItemID) ([]GradePoint, error)
}

// CourseRegistry answers questions about course structure and existence.
type CourseRegistry interface {
	// ActivityCount returns the total number of activities in a course,
	// the denominator for percentage-completion badges.
	ActivityCount(ctx context.Context, course shared.CourseID) (int, error)

	// CourseExists reports whether the course still exists. The reconciler
	// prunes snapshots of vanished courses.
	CourseExists(ctx context.Context, course shared.CourseID) (bool, error)

	// UserExists reports whether the learner still exists.
	UserExists(ctx context.Context, user shared.UserID) (bool, error)
}

// Candidate is one (user, course) pair the engine evaluates in a run.
type Candidate struct {
	User   shared.UserID
	Course shared.CourseID
}

// CandidateSource enumerates the active candidates for an engine run.
type CandidateSource interface {
	ActiveCandidates(ctx context.Context) ([]Candidate, error)
}

// SourceData is the fully resolved, read-only input one strategy evaluation
// works from. The engine (or the cache's recompute path) assembles it once
// per (user, course) and hands it to every applicable strategy, so a single
// source outage skips the whole candidate consistently.
type SourceData struct {
	// Completions for the (user, course) pair.
	Completions []Completion

	// Grades maps gradable activity IDs to their grade history
	// (oldest first).
	Grades map[shared.ItemID][]GradePoint

	// TotalActivities is the course's full activity count.
	TotalActivities int

	// SiblingAwards lists, per badge ID, the display names of sibling badges
	// already awarded to this user in this course. Only meta-composition
	// strategies read it.
	SiblingAwards map[shared.BadgeID]string
}
