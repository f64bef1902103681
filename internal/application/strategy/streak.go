package strategy

import (
	"github.com/learnhub/badge-engine/internal/domain/badge"
	"github.com/learnhub/badge-engine/internal/domain/evidence"
	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// streakPredicate classifies one activity during a streak walk.
//   - counts: the activity extends the current run.
//   - exempt: the activity is skipped entirely; it neither extends nor
//     breaks the run.
//
// An activity that neither counts nor is exempt breaks the run.
type streakPredicate func(c evidence.Completion) (counts bool, exempt bool)

// walkStreak walks activities in course order, maintaining a running
// consecutive counter and partitioning qualifying runs into non-overlapping
// windows of size n. Each emitted window is a candidate occurrence; the
// window resets the partition counter so no activity ever lands in two
// windows.
func walkStreak(activities []evidence.Completion, n int, pred streakPredicate) (maxRun int, windows []evidence.Group) {
	run := 0
	window := make([]evidence.Item, 0, n)

	for _, c := range byCourseOrder(activities) {
		counts, exempt := pred(c)
		if exempt {
			continue
		}
		if !counts {
			run = 0
			window = window[:0]
			continue
		}

		run++
		if run > maxRun {
			maxRun = run
		}

		window = append(window, completionItem(c))
		if len(window) == n {
			g := evidence.Group{Items: make([]evidence.Item, n)}
			copy(g.Items, window)
			evidence.SortItems(g.Items)
			windows = append(windows, g)
			window = window[:0]
		}
	}
	return maxRun, windows
}

// filterUnconsumedWindows drops windows containing any consumed item. Prior
// occurrences always show up as fully (or partially, after admin edits)
// consumed windows; new occurrences contain none.
func filterUnconsumedWindows(in Input, windows []evidence.Group) []evidence.Group {
	out := windows[:0:0]
	for _, w := range windows {
		consumed := false
		for _, it := range w.Items {
			if in.Consumed.Contains(it.ID) {
				consumed = true
				break
			}
		}
		if !consumed {
			out = append(out, w)
		}
	}
	return out
}

// Streak qualifies when a run of consecutive completed activities (in course
// order, no incomplete activity in between) reaches the badge's threshold.
// Repeatable streak badges earn one occurrence per disjoint window of
// threshold completions.
type Streak struct{}

// Kind implements Strategy.
func (Streak) Kind() badge.Kind {
	return badge.KindStreak
}

// Evaluate implements Strategy.
func (Streak) Evaluate(in Input) (Result, error) {
	n := in.Def.Threshold
	if n < 2 {
		return Result{}, shared.ErrInvalidThreshold
	}

	maxRun, windows := walkStreak(in.Source.Completions, n, func(c evidence.Completion) (bool, bool) {
		return c.Completed, false
	})

	res := Result{Qualifies: maxRun >= n}
	fresh := filterUnconsumedWindows(in, windows)

	if in.Def.Repeatable {
		res.NewOccurrences = fresh
		return res, nil
	}
	if len(fresh) > 0 && len(fresh) == len(windows) {
		// Non-repeatable: only the first window, and only when no prior
		// occurrence exists.
		res.NewOccurrences = fresh[:1]
	}
	return res, nil
}

// DeadlineStreak is the streak rule with "completed strictly before its
// deadline" as the per-activity test. Activities without a deadline are
// exempt: they neither extend nor break the run, matching the exemption
// policy of the all-before-deadline rule.
type DeadlineStreak struct{}

// Kind implements Strategy.
func (DeadlineStreak) Kind() badge.Kind {
	return badge.KindDeadlineStreak
}

// Evaluate implements Strategy.
func (DeadlineStreak) Evaluate(in Input) (Result, error) {
	n := in.Def.Threshold
	if n < 2 {
		return Result{}, shared.ErrInvalidThreshold
	}

	maxRun, windows := walkStreak(in.Source.Completions, n, func(c evidence.Completion) (bool, bool) {
		if !c.HasDeadline {
			return false, true
		}
		return c.Completed && shared.StrictlyBefore(c.CompletedAt, c.DeadlineAt), false
	})

	res := Result{Qualifies: maxRun >= n}
	fresh := filterUnconsumedWindows(in, windows)

	if in.Def.Repeatable {
		res.NewOccurrences = fresh
		return res, nil
	}
	if len(fresh) > 0 && len(fresh) == len(windows) {
		res.NewOccurrences = fresh[:1]
	}
	return res, nil
}
