// Package badge defines badge definitions and the closed set of rule kinds
// the qualification engine knows how to evaluate.
package badge

import (
	"strings"
	"time"

	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// Kind is the type tag of a badge's qualification rule. The set of kinds is
// closed: adding one means registering a new strategy, not extending a branch
// list somewhere.
type Kind string

const (
	// KindSingleCompletion qualifies once the count of completed activities
	// (excluding already-consumed ones) reaches Threshold, commonly 1.
	KindSingleCompletion Kind = "single_completion"

	// KindPercentageCompletion qualifies when completed/total reaches
	// Threshold percent over the full activity set of the course.
	KindPercentageCompletion Kind = "percentage_completion"

	// KindStreak qualifies when a run of consecutive completions (in
	// completion-time order) reaches Threshold.
	KindStreak Kind = "streak"

	// KindAllBeforeDeadline qualifies when every deadline-bound activity was
	// completed strictly before its deadline, and at least one such activity
	// exists. Activities without a deadline are exempt.
	KindAllBeforeDeadline Kind = "all_before_deadline"

	// KindEarlyBird is a per-activity repeatable rule: an activity qualifies
	// individually when deadline - completion >= EarlyBy.
	KindEarlyBird Kind = "early_bird"

	// KindDeadlineStreak is the streak rule with "completed strictly before
	// its deadline" as the per-activity predicate. Activities without a
	// deadline are exempt and do not break the run.
	KindDeadlineStreak Kind = "deadline_streak"

	// KindGradeImprovement qualifies per activity when the first recorded
	// grade improved to the latest one according to GradeRule.
	KindGradeImprovement Kind = "grade_improvement"

	// KindGradeImprovementAggregate qualifies once at least Threshold
	// distinct activities show an improvement.
	KindGradeImprovementAggregate Kind = "grade_improvement_aggregate"

	// KindMetaComposition qualifies when SiblingThreshold of the Siblings
	// badges have already been awarded. Reads the ledger, not raw evidence.
	KindMetaComposition Kind = "meta_composition"
)

// AllKinds lists every known kind, used for validation and registry checks.
var AllKinds = []Kind{
	KindSingleCompletion,
	KindPercentageCompletion,
	KindStreak,
	KindAllBeforeDeadline,
	KindEarlyBird,
	KindDeadlineStreak,
	KindGradeImprovement,
	KindGradeImprovementAggregate,
	KindMetaComposition,
}

// IsValid checks whether the kind belongs to the closed set.
func (k Kind) IsValid() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// String returns the string representation.
func (k Kind) String() string {
	return string(k)
}

// GradeRule selects the improvement boundary for grade-improvement badges.
type GradeRule string

const (
	// GradeRuleFailToPass requires the first grade below PassPercent and the
	// latest grade at or above it.
	GradeRuleFailToPass GradeRule = "fail_to_pass"

	// GradeRuleAnyIncrease requires a strict numeric increase from first to
	// latest grade.
	GradeRuleAnyIncrease GradeRule = "any_increase"
)

// IsValid checks whether the grade rule is known.
func (g GradeRule) IsValid() bool {
	return g == GradeRuleFailToPass || g == GradeRuleAnyIncrease
}

// Definition is the immutable configuration of one badge. Definitions are
// loaded into the catalog at startup and rarely change.
type Definition struct {
	// ID is the badge slug, e.g. "early-bird".
	ID shared.BadgeID

	// Name is the display name shown in notifications and evidence.
	Name string

	// Kind selects the qualification strategy.
	Kind Kind

	// Repeatable marks badges that can be earned more than once per
	// (user, course), each occurrence backed by disjoint evidence.
	Repeatable bool

	// Coins granted per occurrence.
	Coins shared.Coins

	// XP granted per occurrence. XP is permanent once granted.
	XP shared.XP

	// Threshold is the rule-specific count: completions for
	// single_completion, percent (1-100) for percentage_completion, run
	// length for the streak kinds, improvement count for the aggregate
	// grade kind. Unused kinds leave it zero.
	Threshold int

	// EarlyBy is how far before the deadline a completion must land for
	// early_bird (e.g. 48h).
	EarlyBy time.Duration

	// GradeRule applies to the grade-improvement kinds.
	GradeRule GradeRule

	// PassPercent is the pass boundary for GradeRuleFailToPass (e.g. 60).
	PassPercent float64

	// Siblings are the base badges a meta_composition badge counts.
	Siblings []shared.BadgeID

	// SiblingThreshold is how many of Siblings must be awarded (e.g. 2 of 3).
	SiblingThreshold int
}

// Validate checks the definition for the misconfigurations the engine skips
// at run time: unknown kind, nonsense thresholds, missing sibling lists.
func (d Definition) Validate() error {
	if !d.ID.IsValid() {
		return shared.NewDomainError("badge", "Validate", shared.ErrInvalidID, "invalid badge ID: "+string(d.ID))
	}
	if strings.TrimSpace(d.Name) == "" {
		return shared.NewDomainError("badge", "Validate", shared.ErrEmptyValue, "badge name is required")
	}
	if !d.Kind.IsValid() {
		return shared.WrapError("badge", "Validate", shared.ErrInvalidInput, "unknown badge kind: "+string(d.Kind), shared.ErrUnknownBadgeKind)
	}
	if !d.Coins.IsValid() || !d.XP.IsValid() {
		return shared.ErrInvalidDefinition
	}

	switch d.Kind {
	case KindSingleCompletion:
		if d.Threshold < 1 {
			return shared.ErrInvalidThreshold
		}
	case KindPercentageCompletion:
		if d.Threshold < 1 || d.Threshold > 100 {
			return shared.ErrInvalidThreshold
		}
	case KindStreak, KindDeadlineStreak:
		if d.Threshold < 2 {
			return shared.ErrInvalidThreshold
		}
	case KindEarlyBird:
		if d.EarlyBy <= 0 {
			return shared.NewDomainError("badge", "Validate", shared.ErrValueOutOfRange, "early_bird requires a positive EarlyBy window")
		}
	case KindGradeImprovement:
		if !d.GradeRule.IsValid() {
			return shared.ErrInvalidDefinition
		}
		if d.GradeRule == GradeRuleFailToPass && (d.PassPercent <= 0 || d.PassPercent > 100) {
			return shared.ErrInvalidThreshold
		}
	case KindGradeImprovementAggregate:
		if !d.GradeRule.IsValid() || d.Threshold < 1 {
			return shared.ErrInvalidDefinition
		}
		if d.GradeRule == GradeRuleFailToPass && (d.PassPercent <= 0 || d.PassPercent > 100) {
			return shared.ErrInvalidThreshold
		}
	case KindMetaComposition:
		if len(d.Siblings) == 0 {
			return shared.NewDomainError("badge", "Validate", shared.ErrEmptyValue, "meta_composition requires sibling badges")
		}
		if d.SiblingThreshold < 1 || d.SiblingThreshold > len(d.Siblings) {
			return shared.ErrInvalidThreshold
		}
	}

	return nil
}
