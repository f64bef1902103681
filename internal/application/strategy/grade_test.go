package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/learnhub/badge-engine/internal/domain/badge"
	"github.com/learnhub/badge-engine/internal/domain/evidence"
	"github.com/learnhub/badge-engine/internal/domain/shared"
)

func gradable(c evidence.Completion) evidence.Completion {
	c.Gradable = true
	return c
}

func history(points ...float64) []evidence.GradePoint {
	out := make([]evidence.GradePoint, len(points))
	for i, p := range points {
		out[i] = evidence.GradePoint{Timestamp: day0.Add(time.Duration(i) * 24 * time.Hour), Percentage: p}
	}
	return out
}

func TestGradeImprovement_FailToPass(t *testing.T) {
	def := badge.Definition{
		ID: "comeback", Name: "Comeback", Kind: badge.KindGradeImprovement,
		GradeRule: badge.GradeRuleFailToPass, PassPercent: 60, Repeatable: true,
	}

	src := evidence.SourceData{
		Completions: []evidence.Completion{
			gradable(completedOn("quiz1", 1, 0)),
			gradable(completedOn("quiz2", 2, 1)),
			gradable(completedOn("quiz3", 3, 2)),
			gradable(completedOn("quiz4", 4, 3)),
		},
		Grades: map[shared.ItemID][]evidence.GradePoint{
			// 40 then 75: fail to pass, qualifies.
			"quiz1": history(40, 75),
			// 70 then 90: improved but never failed.
			"quiz2": history(70, 90),
			// 40 then 55: still failing.
			"quiz3": history(40, 55),
			// Single grade: no transition exists.
			"quiz4": history(85),
		},
	}

	res, err := GradeImprovement{}.Evaluate(makeInput(def, src, emptyConsumed(def.ID)))
	assert.NoError(t, err)
	assert.True(t, res.Qualifies)
	assert.Len(t, res.NewOccurrences, 1)

	item := res.NewOccurrences[0].Items[0]
	assert.Equal(t, shared.ItemID("quiz1"), item.ID)
	assert.Equal(t, evidence.ItemGradeTransition, item.Kind)
	assert.Equal(t, "40.0", item.Meta["grade_before"])
	assert.Equal(t, "75.0", item.Meta["grade_after"])
}

func TestGradeImprovement_FirstToLatestOnly(t *testing.T) {
	def := badge.Definition{
		ID: "comeback", Name: "Comeback", Kind: badge.KindGradeImprovement,
		GradeRule: badge.GradeRuleFailToPass, PassPercent: 60, Repeatable: true,
	}

	src := evidence.SourceData{
		Completions: []evidence.Completion{gradable(completedOn("quiz1", 1, 0))},
		Grades: map[shared.ItemID][]evidence.GradePoint{
			// Passed in the middle but ended failing: first-to-latest rules,
			// intermediate grades never count.
			"quiz1": history(40, 80, 50),
		},
	}

	res, err := GradeImprovement{}.Evaluate(makeInput(def, src, emptyConsumed(def.ID)))
	assert.NoError(t, err)
	assert.False(t, res.Qualifies)
}

func TestGradeImprovement_AnyIncrease(t *testing.T) {
	def := badge.Definition{
		ID: "improver", Name: "Improver", Kind: badge.KindGradeImprovement,
		GradeRule: badge.GradeRuleAnyIncrease, Repeatable: true,
	}

	src := evidence.SourceData{
		Completions: []evidence.Completion{
			gradable(completedOn("quiz1", 1, 0)),
			gradable(completedOn("quiz2", 2, 1)),
		},
		Grades: map[shared.ItemID][]evidence.GradePoint{
			"quiz1": history(50, 50.5),
			// Equal first and latest: not a strict increase.
			"quiz2": history(80, 80),
		},
	}

	res, err := GradeImprovement{}.Evaluate(makeInput(def, src, emptyConsumed(def.ID)))
	assert.NoError(t, err)
	assert.Len(t, res.NewOccurrences, 1)
	assert.Equal(t, shared.ItemID("quiz1"), res.NewOccurrences[0].Items[0].ID)
}

func TestGradeImprovement_NonRepeatableTakesEarliestOfSeveral(t *testing.T) {
	def := badge.Definition{
		ID: "comeback", Name: "Comeback", Kind: badge.KindGradeImprovement,
		GradeRule: badge.GradeRuleFailToPass, PassPercent: 60,
	}

	// Two fresh improvements at once: the badge is still earnable, one
	// occurrence for the earliest improvement.
	src := evidence.SourceData{
		Completions: []evidence.Completion{
			gradable(completedOn("quiz1", 1, 0)),
			gradable(completedOn("quiz2", 2, 1)),
		},
		Grades: map[shared.ItemID][]evidence.GradePoint{
			"quiz1": history(40, 75),
			"quiz2": history(30, 65),
		},
	}

	res, err := GradeImprovement{}.Evaluate(makeInput(def, src, emptyConsumed(def.ID)))
	assert.NoError(t, err)
	assert.True(t, res.Qualifies)
	assert.Len(t, res.NewOccurrences, 1)
	assert.Equal(t, shared.ItemID("quiz1"), res.NewOccurrences[0].Items[0].ID)
}

func TestGradeImprovement_NonRepeatableSpent(t *testing.T) {
	def := badge.Definition{
		ID: "comeback", Name: "Comeback", Kind: badge.KindGradeImprovement,
		GradeRule: badge.GradeRuleFailToPass, PassPercent: 60,
	}

	src := evidence.SourceData{
		Completions: []evidence.Completion{
			gradable(completedOn("quiz1", 1, 0)),
			gradable(completedOn("quiz2", 2, 1)),
		},
		Grades: map[shared.ItemID][]evidence.GradePoint{
			"quiz1": history(40, 75),
			"quiz2": history(30, 65),
		},
	}

	res, err := GradeImprovement{}.Evaluate(makeInput(def, src, consumedWith(def.ID, "quiz1")))
	assert.NoError(t, err)
	assert.True(t, res.Qualifies)
	assert.Empty(t, res.NewOccurrences)
}

func TestGradeImprovementAggregate(t *testing.T) {
	def := badge.Definition{
		ID: "turnaround", Name: "Turnaround", Kind: badge.KindGradeImprovementAggregate,
		GradeRule: badge.GradeRuleFailToPass, PassPercent: 60, Threshold: 2,
	}

	src := evidence.SourceData{
		Completions: []evidence.Completion{
			gradable(completedOn("quiz1", 1, 0)),
			gradable(completedOn("quiz2", 2, 1)),
			gradable(completedOn("quiz3", 3, 2)),
		},
		Grades: map[shared.ItemID][]evidence.GradePoint{
			"quiz1": history(40, 75),
			"quiz2": history(55, 62),
			"quiz3": history(70, 90),
		},
	}

	res, err := GradeImprovementAggregate{}.Evaluate(makeInput(def, src, emptyConsumed(def.ID)))
	assert.NoError(t, err)
	assert.True(t, res.Qualifies)
	// All contributors back the one occurrence together.
	assert.Len(t, res.NewOccurrences, 1)
	assert.Equal(t, []string{"quiz1", "quiz2"}, idStrings(res.NewOccurrences[0]))

	// A consumed contributor means the award already happened.
	res, err = GradeImprovementAggregate{}.Evaluate(makeInput(def, src, consumedWith(def.ID, "quiz1")))
	assert.NoError(t, err)
	assert.True(t, res.Qualifies)
	assert.Empty(t, res.NewOccurrences)
}

func TestGradeImprovementAggregate_BelowThreshold(t *testing.T) {
	def := badge.Definition{
		ID: "turnaround", Name: "Turnaround", Kind: badge.KindGradeImprovementAggregate,
		GradeRule: badge.GradeRuleFailToPass, PassPercent: 60, Threshold: 3,
	}

	src := evidence.SourceData{
		Completions: []evidence.Completion{
			gradable(completedOn("quiz1", 1, 0)),
			gradable(completedOn("quiz2", 2, 1)),
		},
		Grades: map[shared.ItemID][]evidence.GradePoint{
			"quiz1": history(40, 75),
			"quiz2": history(55, 62),
		},
	}

	res, err := GradeImprovementAggregate{}.Evaluate(makeInput(def, src, emptyConsumed(def.ID)))
	assert.NoError(t, err)
	assert.False(t, res.Qualifies)
	assert.Empty(t, res.NewOccurrences)
}
