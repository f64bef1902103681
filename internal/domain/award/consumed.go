package award

import (
	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// ConsumedSet is the set of evidence-item IDs already attributed to a prior
// occurrence of one (user, badge, course). It is append-only: re-evaluation
// must never credit a consumed item to a second occurrence. The only shrink
// path is an explicit admin action paired with revoking the award itself.
type ConsumedSet struct {
	UserID   shared.UserID
	BadgeID  shared.BadgeID
	CourseID shared.CourseID

	items map[shared.ItemID]struct{}
}

// NewConsumedSet builds a set from stored item IDs.
func NewConsumedSet(user shared.UserID, badge shared.BadgeID, course shared.CourseID, items []shared.ItemID) ConsumedSet {
	s := ConsumedSet{
		UserID:   user,
		BadgeID:  badge,
		CourseID: course,
		items:    make(map[shared.ItemID]struct{}, len(items)),
	}
	for _, id := range items {
		s.items[id] = struct{}{}
	}
	return s
}

// Contains reports whether the item is already consumed.
func (s ConsumedSet) Contains(id shared.ItemID) bool {
	_, ok := s.items[id]
	return ok
}

// Add records items as consumed in memory. Adding a present item is a no-op,
// mirroring the idempotent persistence contract.
func (s ConsumedSet) Add(ids ...shared.ItemID) {
	for _, id := range ids {
		s.items[id] = struct{}{}
	}
}

// Len returns the number of consumed items.
func (s ConsumedSet) Len() int {
	return len(s.items)
}
