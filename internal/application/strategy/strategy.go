// Package strategy implements the qualification rules, one evaluator per
// badge-rule family, and the registry that dispatches a badge definition to
// its evaluator.
//
// Strategies are pure: given the same source data and consumed set they
// produce the same result, with no side effects. The engine owns all
// persistence. The evidence cache and the reconciler reuse the exact same
// evaluation path (DeriveEvidence), which is what makes cached snapshots
// reproducible byte-for-byte.
package strategy

import (
	"sort"

	"github.com/learnhub/badge-engine/internal/domain/award"
	"github.com/learnhub/badge-engine/internal/domain/badge"
	"github.com/learnhub/badge-engine/internal/domain/evidence"
	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// Input carries everything one evaluation needs. The engine assembles it
// once per (user, course) and reuses it for every badge.
type Input struct {
	User     shared.UserID
	Course   shared.CourseID
	Def      badge.Definition
	Source   evidence.SourceData
	Consumed award.ConsumedSet
}

// Result is the outcome of one evaluation.
type Result struct {
	// Qualifies reports whether the badge's rule holds for the current
	// state, independent of whether anything new is awardable.
	Qualifies bool

	// NewOccurrences are the evidence groups not yet reflected in the
	// consumed set, one group per awardable occurrence, ordered by earliest
	// evidence timestamp (deterministic occurrence numbering).
	NewOccurrences []evidence.Group
}

// Strategy evaluates one badge-rule family.
type Strategy interface {
	// Kind returns the rule kind this strategy serves.
	Kind() badge.Kind

	// Evaluate applies the rule. Implementations must not mutate the input.
	Evaluate(in Input) (Result, error)
}

// Registry maps badge kinds to strategies. Adding a badge type means
// registering a strategy here, nothing else.
type Registry struct {
	strategies map[badge.Kind]Strategy
}

// NewRegistry creates a registry with all built-in strategies registered.
func NewRegistry() *Registry {
	r := &Registry{strategies: make(map[badge.Kind]Strategy)}
	r.Register(SingleCompletion{})
	r.Register(PercentageCompletion{})
	r.Register(Streak{})
	r.Register(AllBeforeDeadline{})
	r.Register(EarlyBird{})
	r.Register(DeadlineStreak{})
	r.Register(GradeImprovement{})
	r.Register(GradeImprovementAggregate{})
	r.Register(MetaComposition{})
	return r
}

// Register adds or replaces the strategy for its kind.
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Kind()] = s
}

// For returns the strategy for a definition's kind, or
// shared.ErrUnknownBadgeKind for kinds outside the closed set.
func (r *Registry) For(def badge.Definition) (Strategy, error) {
	s, ok := r.strategies[def.Kind]
	if !ok {
		return nil, shared.ErrUnknownBadgeKind
	}
	return s, nil
}

// DeriveEvidence recomputes every occurrence group for a (user, course,
// badge) from source data alone, as if nothing had been consumed. This is
// the single pure derivation shared by the engine's write-through path, the
// cache's lazy recompute, and the reconciler's verification, so all three
// always agree.
func DeriveEvidence(r *Registry, in Input) ([]evidence.Group, error) {
	s, err := r.For(in.Def)
	if err != nil {
		return nil, err
	}
	in.Consumed = award.NewConsumedSet(in.User, in.Def.ID, in.Course, nil)
	res, err := s.Evaluate(in)
	if err != nil {
		return nil, err
	}
	groups := res.NewOccurrences
	evidence.SortGroups(groups)
	return groups, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Shared helpers
// ─────────────────────────────────────────────────────────────────────────────

// completedByTime returns the completed activities sorted by completion
// timestamp ascending, tie-broken by item ID so colliding timestamps still
// order deterministically.
func completedByTime(cs []evidence.Completion) []evidence.Completion {
	out := make([]evidence.Completion, 0, len(cs))
	for _, c := range cs {
		if c.Completed {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].ItemID < out[j].ItemID
		}
		return out[i].CompletedAt.Before(out[j].CompletedAt)
	})
	return out
}

// byCourseOrder returns all activities sorted by their course position,
// tie-broken by item ID. Streak rules walk this order.
func byCourseOrder(cs []evidence.Completion) []evidence.Completion {
	out := make([]evidence.Completion, len(cs))
	copy(out, cs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder == out[j].SortOrder {
			return out[i].ItemID < out[j].ItemID
		}
		return out[i].SortOrder < out[j].SortOrder
	})
	return out
}

// completionItem converts a completion into an evidence item.
func completionItem(c evidence.Completion) evidence.Item {
	return evidence.Item{
		ID:         c.ItemID,
		Kind:       evidence.ItemActivityCompletion,
		Label:      c.Title,
		OccurredAt: c.CompletedAt,
	}
}

// anyConsumed reports whether any of the completions is already consumed.
// Whole-state rules (percentage, all-before-deadline, aggregates) use this
// as the "award already reflected" check for non-repeatable badges.
func anyConsumed(set award.ConsumedSet, cs []evidence.Completion) bool {
	for _, c := range cs {
		if set.Contains(c.ItemID) {
			return true
		}
	}
	return false
}
