package strategy

import (
	"fmt"

	"github.com/learnhub/badge-engine/internal/domain/badge"
	"github.com/learnhub/badge-engine/internal/domain/evidence"
	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// improvement is one activity whose grade history shows a qualifying
// first-to-latest improvement.
type improvement struct {
	completion evidence.Completion
	before     float64
	after      float64
	at         evidence.GradePoint
}

// findImprovements collects the activities whose first recorded grade
// improved to the latest one under the definition's grade rule. Results
// follow completion-time order for deterministic occurrence numbering.
func findImprovements(in Input) []improvement {
	var out []improvement
	for _, c := range completedByTime(in.Source.Completions) {
		if !c.Gradable {
			continue
		}
		history := in.Source.Grades[c.ItemID]
		if len(history) < 2 {
			continue
		}
		first := history[0]
		latest := history[len(history)-1]

		improved := false
		switch in.Def.GradeRule {
		case badge.GradeRuleFailToPass:
			improved = first.Percentage < in.Def.PassPercent && latest.Percentage >= in.Def.PassPercent
		case badge.GradeRuleAnyIncrease:
			improved = latest.Percentage > first.Percentage
		}
		if improved {
			out = append(out, improvement{
				completion: c,
				before:     first.Percentage,
				after:      latest.Percentage,
				at:         latest,
			})
		}
	}
	return out
}

// gradeItem renders one improvement as an evidence item. The before/after
// percentages ride along in Meta so the snapshot can show the comparison.
func gradeItem(imp improvement) evidence.Item {
	return evidence.Item{
		ID:         imp.completion.ItemID,
		Kind:       evidence.ItemGradeTransition,
		Label:      imp.completion.Title,
		OccurredAt: imp.at.Timestamp,
		Meta: map[string]string{
			"grade_before": fmt.Sprintf("%.1f", imp.before),
			"grade_after":  fmt.Sprintf("%.1f", imp.after),
		},
	}
}

// GradeImprovement qualifies per activity on a first-to-latest grade
// improvement (fail-to-pass or any strict increase, per the definition).
// Repeatable definitions earn one occurrence per improved activity; a
// non-repeatable definition takes the earliest improvement only.
type GradeImprovement struct{}

// Kind implements Strategy.
func (GradeImprovement) Kind() badge.Kind {
	return badge.KindGradeImprovement
}

// Evaluate implements Strategy.
func (GradeImprovement) Evaluate(in Input) (Result, error) {
	if !in.Def.GradeRule.IsValid() {
		return Result{}, shared.ErrInvalidDefinition
	}

	improvements := findImprovements(in)
	res := Result{Qualifies: len(improvements) > 0}

	if !in.Def.Repeatable {
		// One occurrence ever: any consumed improvement means the badge is
		// already spent, otherwise the earliest improvement earns it.
		for _, imp := range improvements {
			if in.Consumed.Contains(imp.completion.ItemID) {
				return res, nil
			}
		}
		if len(improvements) > 0 {
			res.NewOccurrences = append(res.NewOccurrences, evidence.Group{Items: []evidence.Item{gradeItem(improvements[0])}})
		}
		return res, nil
	}

	for _, imp := range improvements {
		if in.Consumed.Contains(imp.completion.ItemID) {
			continue
		}
		res.NewOccurrences = append(res.NewOccurrences, evidence.Group{Items: []evidence.Item{gradeItem(imp)}})
	}
	return res, nil
}

// GradeImprovementAggregate qualifies once at least the badge's threshold of
// distinct activities show a qualifying improvement; all contributors back
// the single occurrence together.
type GradeImprovementAggregate struct{}

// Kind implements Strategy.
func (GradeImprovementAggregate) Kind() badge.Kind {
	return badge.KindGradeImprovementAggregate
}

// Evaluate implements Strategy.
func (GradeImprovementAggregate) Evaluate(in Input) (Result, error) {
	if !in.Def.GradeRule.IsValid() || in.Def.Threshold < 1 {
		return Result{}, shared.ErrInvalidDefinition
	}

	improvements := findImprovements(in)
	res := Result{Qualifies: len(improvements) >= in.Def.Threshold}
	if !res.Qualifies {
		return res, nil
	}

	group := evidence.Group{}
	for _, imp := range improvements {
		if in.Consumed.Contains(imp.completion.ItemID) {
			// Prior award already reflected.
			return res, nil
		}
		group.Items = append(group.Items, gradeItem(imp))
	}
	res.NewOccurrences = append(res.NewOccurrences, group)
	return res, nil
}
