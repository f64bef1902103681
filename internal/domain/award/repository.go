package award

import (
	"context"

	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// TryAwardResult reports the outcome of an insert-if-absent ledger write.
type TryAwardResult struct {
	// Created is false when the uniqueness constraint absorbed the write,
	// i.e. the expected idempotency path.
	Created bool

	// Occurrence is the index the record holds (or already held).
	Occurrence shared.Occurrence
}

// Ledger is the idempotent award store. Uniqueness constraints in the
// storage layer are the sole correctness mechanism against double-award
// races; every write is insert-if-absent and no distributed lock exists.
type Ledger interface {
	// TryAward inserts the record unless an equivalent one exists.
	// A duplicate is a silent no-op with Created=false, never an error.
	// Implementations assign the occurrence index atomically with the
	// insert; rec.Occurrence is the caller's expectation, the returned
	// Occurrence is what the ledger actually holds.
	TryAward(ctx context.Context, rec Record) (TryAwardResult, error)

	// ListByUserCourse returns all records for the pair, occurrence order.
	ListByUserCourse(ctx context.Context, user shared.UserID, course shared.CourseID) ([]Record, error)

	// SiblingAwards returns the badge IDs among the given set already
	// awarded to the user in the course. Meta-composition strategies and
	// source assembly read this.
	SiblingAwards(ctx context.Context, user shared.UserID, course shared.CourseID, badges []shared.BadgeID) ([]shared.BadgeID, error)

	// CountOccurrences returns how many occurrences exist for the triple.
	CountOccurrences(ctx context.Context, user shared.UserID, badge shared.BadgeID, course shared.CourseID) (int, error)

	// Revoke deletes all records for the triple. It intentionally leaves the
	// consumed set intact: the same evidence cannot immediately re-award
	// unless an admin also clears consumed evidence, which is a separate,
	// explicit action.
	Revoke(ctx context.Context, user shared.UserID, badge shared.BadgeID, course shared.CourseID) (int, error)
}

// ConsumedStore persists the append-only consumed-evidence sets.
type ConsumedStore interface {
	// MarkConsumed appends items to the set. Idempotent: re-adding a present
	// item is a no-op.
	MarkConsumed(ctx context.Context, user shared.UserID, badge shared.BadgeID, course shared.CourseID, items []shared.ItemID) error

	// IsConsumed reports membership of a single item.
	IsConsumed(ctx context.Context, user shared.UserID, badge shared.BadgeID, course shared.CourseID, item shared.ItemID) (bool, error)

	// GetSet loads the full set for a triple.
	GetSet(ctx context.Context, user shared.UserID, badge shared.BadgeID, course shared.CourseID) (ConsumedSet, error)

	// Clear removes the set. Admin-only, paired with Ledger.Revoke when the
	// intent is to allow re-qualification from the same evidence.
	Clear(ctx context.Context, user shared.UserID, badge shared.BadgeID, course shared.CourseID) error
}

// XPStore maintains the derived, monotonic XP balance per user.
type XPStore interface {
	// Credit adds XP to the balance. Amounts are never negative; revocation
	// does not retract XP ("permanent experience").
	Credit(ctx context.Context, user shared.UserID, amount shared.XP) error

	// Balance returns the user's cumulative XP.
	Balance(ctx context.Context, user shared.UserID) (shared.XP, error)
}
