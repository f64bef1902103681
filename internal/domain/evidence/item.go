// Package evidence defines evidence items, occurrence groups, the cached
// evidence snapshot, and the read-only source interfaces the qualification
// strategies consume.
package evidence

import (
	"sort"
	"time"

	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// ItemKind distinguishes the three shapes of proof a qualification can rest on.
type ItemKind string

const (
	// ItemActivityCompletion is a completed course activity.
	ItemActivityCompletion ItemKind = "activity_completion"

	// ItemGradeTransition is a first-to-latest grade improvement on one activity.
	ItemGradeTransition ItemKind = "grade_transition"

	// ItemSiblingBadge is another badge already present in the ledger.
	ItemSiblingBadge ItemKind = "sibling_badge"
)

// Item is one atomic piece of proof backing a qualification decision. Items
// are read-only projections of upstream data; this system never owns them.
type Item struct {
	// ID is the stable identifier used for consumed-set membership.
	ID shared.ItemID

	// Kind tells the snapshot renderer how to describe the item.
	Kind ItemKind

	// Label is the human-readable description, e.g. the activity title.
	Label string

	// OccurredAt orders items; for completions this is the completion time.
	OccurredAt time.Time

	// Meta carries kind-specific display data, e.g. "before"/"after"
	// percentages for grade transitions. Keys are fixed per kind so that
	// snapshot serialization stays deterministic.
	Meta map[string]string
}

// Group is the evidence backing exactly one occurrence of a badge. For
// repeatable badges each group is disjoint from every other occurrence's
// group; that disjointness is what the consumed set enforces.
type Group struct {
	Items []Item
}

// ItemIDs returns the member IDs in their current order.
func (g Group) ItemIDs() []shared.ItemID {
	ids := make([]shared.ItemID, len(g.Items))
	for i, it := range g.Items {
		ids[i] = it.ID
	}
	return ids
}

// EarliestAt returns the earliest item timestamp in the group. Occurrence
// indexes within one engine run are assigned in ascending EarliestAt order,
// which keeps numbering deterministic when several occurrences qualify at once.
func (g Group) EarliestAt() time.Time {
	var earliest time.Time
	for i, it := range g.Items {
		if i == 0 || it.OccurredAt.Before(earliest) {
			earliest = it.OccurredAt
		}
	}
	return earliest
}

// Labels returns the member labels, used for notification summaries.
func (g Group) Labels() []string {
	out := make([]string, len(g.Items))
	for i, it := range g.Items {
		out[i] = it.Label
	}
	return out
}

// SortItems orders items by occurrence time ascending, tie-broken by item ID
// so results stay stable when timestamps collide.
func SortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].OccurredAt.Equal(items[j].OccurredAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].OccurredAt.Before(items[j].OccurredAt)
	})
}

// SortGroups orders groups by earliest evidence timestamp ascending,
// tie-broken by the first item ID.
func SortGroups(groups []Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].EarliestAt(), groups[j].EarliestAt()
		if a.Equal(b) {
			if len(groups[i].Items) == 0 || len(groups[j].Items) == 0 {
				return len(groups[i].Items) < len(groups[j].Items)
			}
			return groups[i].Items[0].ID < groups[j].Items[0].ID
		}
		return a.Before(b)
	})
}
