package strategy

import (
	"fmt"

	"github.com/learnhub/badge-engine/internal/domain/badge"
	"github.com/learnhub/badge-engine/internal/domain/evidence"
	"github.com/learnhub/badge-engine/internal/domain/shared"
	"github.com/learnhub/badge-engine/pkg/timeutil"
)

// AllBeforeDeadline qualifies only when every deadline-bound activity was
// completed strictly before its deadline, and at least one deadline-bound
// activity exists. Activities without a deadline are exempt and appear in
// neither numerator nor denominator.
type AllBeforeDeadline struct{}

// Kind implements Strategy.
func (AllBeforeDeadline) Kind() badge.Kind {
	return badge.KindAllBeforeDeadline
}

// Evaluate implements Strategy.
func (AllBeforeDeadline) Evaluate(in Input) (Result, error) {
	bound := make([]evidence.Completion, 0, len(in.Source.Completions))
	for _, c := range in.Source.Completions {
		if c.HasDeadline {
			bound = append(bound, c)
		}
	}
	if len(bound) == 0 {
		return Result{}, nil
	}

	for _, c := range bound {
		if !c.Completed || !shared.StrictlyBefore(c.CompletedAt, c.DeadlineAt) {
			return Result{}, nil
		}
	}

	res := Result{Qualifies: true}
	if anyConsumed(in.Consumed, bound) {
		// Prior award already reflected; nothing new for this
		// non-repeatable rule.
		return res, nil
	}

	group := evidence.Group{}
	for _, c := range completedByTime(bound) {
		group.Items = append(group.Items, completionItem(c))
	}
	res.NewOccurrences = append(res.NewOccurrences, group)
	return res, nil
}

// EarlyBird is a per-activity repeatable rule: an activity qualifies on its
// own when it was completed at least the badge's EarlyBy window before its
// deadline. Each qualifying, not-yet-consumed activity is one occurrence.
type EarlyBird struct{}

// Kind implements Strategy.
func (EarlyBird) Kind() badge.Kind {
	return badge.KindEarlyBird
}

// Evaluate implements Strategy.
func (EarlyBird) Evaluate(in Input) (Result, error) {
	if in.Def.EarlyBy <= 0 {
		return Result{}, shared.ErrInvalidThreshold
	}

	res := Result{}
	for _, c := range completedByTime(in.Source.Completions) {
		if !c.HasDeadline {
			continue
		}
		lead := c.DeadlineAt.Sub(c.CompletedAt)
		if lead < in.Def.EarlyBy {
			continue
		}
		res.Qualifies = true
		if in.Consumed.Contains(c.ItemID) {
			continue
		}

		item := completionItem(c)
		item.Meta = map[string]string{
			"hours_early": fmt.Sprintf("%.0f", timeutil.HoursBetween(c.CompletedAt, c.DeadlineAt)),
		}
		res.NewOccurrences = append(res.NewOccurrences, evidence.Group{Items: []evidence.Item{item}})
	}
	return res, nil
}
