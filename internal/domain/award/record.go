// Package award defines award records, the consumed-evidence set, and the
// persistence contracts of the idempotent award ledger.
package award

import (
	"encoding/hex"
	"sort"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/learnhub/badge-engine/internal/domain/evidence"
	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// Record is one committed qualification outcome. For non-repeatable badges at
// most one record exists per (user, badge, course); for repeatable badges the
// fingerprint column extends the uniqueness to one record per evidence set.
type Record struct {
	// ID is the record's UUID.
	ID string

	// UserID, BadgeID, CourseID identify the award scope.
	UserID   shared.UserID
	BadgeID  shared.BadgeID
	CourseID shared.CourseID

	// Occurrence is the 1-based index among this (user, badge, course)'s
	// awards. Always 1 for non-repeatable badges.
	Occurrence shared.Occurrence

	// Fingerprint is the stable hash of the evidence set backing this
	// occurrence; see Fingerprint().
	Fingerprint string

	// Repeatable mirrors the definition's flag at award time and selects
	// which uniqueness constraint guards the insert.
	Repeatable bool

	// Coins and XP as granted at award time (copied from the definition so
	// later definition edits don't rewrite history).
	Coins shared.Coins
	XP    shared.XP

	// AwardedAt is the commit timestamp.
	AwardedAt time.Time
}

// Fingerprint derives the occurrence fingerprint from an evidence group: the
// BLAKE2b-256 hash of the sorted, NUL-joined item IDs. Sorting first makes
// the fingerprint insensitive to evidence ordering, so concurrent engine runs
// that discover the same occurrence in different orders still collide on the
// uniqueness constraint instead of double-awarding.
func Fingerprint(group evidence.Group) string {
	ids := make([]string, 0, len(group.Items))
	for _, it := range group.Items {
		ids = append(ids, string(it.ID))
	}
	sort.Strings(ids)

	h, _ := blake2b.New256(nil)
	for i, id := range ids {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(id))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Validate checks record invariants before persistence.
func (r Record) Validate() error {
	if r.UserID.IsEmpty() {
		return shared.NewDomainError("award", "Validate", shared.ErrEmptyValue, "user ID is required")
	}
	if !r.BadgeID.IsValid() {
		return shared.NewDomainError("award", "Validate", shared.ErrInvalidID, "invalid badge ID")
	}
	if !r.CourseID.IsValid() {
		return shared.NewDomainError("award", "Validate", shared.ErrInvalidID, "invalid course ID")
	}
	if !r.Occurrence.IsValid() {
		return shared.ErrInvalidOccurrence
	}
	if r.Fingerprint == "" {
		return shared.ErrEmptyEvidence
	}
	if !r.Coins.IsValid() || !r.XP.IsValid() {
		return shared.NewDomainError("award", "Validate", shared.ErrValueOutOfRange, "invalid coin or XP value")
	}
	return nil
}
