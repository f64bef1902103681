package strategy

import (
	"github.com/learnhub/badge-engine/internal/domain/badge"
	"github.com/learnhub/badge-engine/internal/domain/evidence"
)

// SingleCompletion qualifies once the count of completed activities not yet
// consumed reaches the badge's threshold (commonly 1). The evidence group is
// the first unconsumed completions in timestamp order.
type SingleCompletion struct{}

// Kind implements Strategy.
func (SingleCompletion) Kind() badge.Kind {
	return badge.KindSingleCompletion
}

// Evaluate implements Strategy.
func (SingleCompletion) Evaluate(in Input) (Result, error) {
	threshold := in.Def.Threshold
	if threshold < 1 {
		threshold = 1
	}

	completed := completedByTime(in.Source.Completions)

	unconsumed := make([]evidence.Completion, 0, len(completed))
	for _, c := range completed {
		if !in.Consumed.Contains(c.ItemID) {
			unconsumed = append(unconsumed, c)
		}
	}

	res := Result{Qualifies: len(completed) >= threshold}

	if in.Def.Repeatable {
		// Successive disjoint groups of `threshold` completions, each a
		// separate occurrence.
		for len(unconsumed) >= threshold {
			group := evidence.Group{}
			for _, c := range unconsumed[:threshold] {
				group.Items = append(group.Items, completionItem(c))
			}
			res.NewOccurrences = append(res.NewOccurrences, group)
			unconsumed = unconsumed[threshold:]
		}
		return res, nil
	}

	// Non-repeatable: one occurrence, and only when no completion was
	// consumed by a prior award.
	if len(unconsumed) >= threshold && !anyConsumed(in.Consumed, completed) {
		group := evidence.Group{}
		for _, c := range unconsumed[:threshold] {
			group.Items = append(group.Items, completionItem(c))
		}
		res.NewOccurrences = append(res.NewOccurrences, group)
	}
	return res, nil
}

// PercentageCompletion qualifies when completed/total reaches the badge's
// threshold percent. The rule is evaluated against the full activity set of
// the course, never incrementally: a percentage only exists over the whole
// denominator.
type PercentageCompletion struct{}

// Kind implements Strategy.
func (PercentageCompletion) Kind() badge.Kind {
	return badge.KindPercentageCompletion
}

// Evaluate implements Strategy.
func (PercentageCompletion) Evaluate(in Input) (Result, error) {
	total := in.Source.TotalActivities
	if total <= 0 {
		return Result{}, nil
	}

	completed := completedByTime(in.Source.Completions)
	percent := float64(len(completed)) * 100.0 / float64(total)

	res := Result{Qualifies: percent >= float64(in.Def.Threshold)}
	if !res.Qualifies {
		return res, nil
	}

	// Once the consumed set reflects a prior award, re-evaluation is a no-op
	// for this non-repeatable rule.
	if anyConsumed(in.Consumed, completed) {
		return res, nil
	}

	group := evidence.Group{}
	for _, c := range completed {
		group.Items = append(group.Items, completionItem(c))
	}
	if len(group.Items) > 0 {
		res.NewOccurrences = append(res.NewOccurrences, group)
	}
	return res, nil
}
