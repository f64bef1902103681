package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/learnhub/badge-engine/internal/domain/badge"
	"github.com/learnhub/badge-engine/internal/domain/evidence"
)

func TestSingleCompletion_FirstCompletion(t *testing.T) {
	def := badge.Definition{ID: "first-steps", Name: "First Steps", Kind: badge.KindSingleCompletion, Threshold: 1}
	src := evidence.SourceData{Completions: []evidence.Completion{
		incomplete("week02-quiz", 2),
		completedOn("week01-quiz", 1, 0),
	}}

	res, err := SingleCompletion{}.Evaluate(makeInput(def, src, emptyConsumed(def.ID)))
	assert.NoError(t, err)
	assert.True(t, res.Qualifies)
	assert.Len(t, res.NewOccurrences, 1)
	assert.Equal(t, []string{"week01-quiz"}, idStrings(res.NewOccurrences[0]))
}

func TestSingleCompletion_NonRepeatableSpentByConsumed(t *testing.T) {
	def := badge.Definition{ID: "first-steps", Name: "First Steps", Kind: badge.KindSingleCompletion, Threshold: 1}
	src := evidence.SourceData{Completions: []evidence.Completion{
		completedOn("week01-quiz", 1, 0),
		completedOn("week02-quiz", 2, 1),
	}}

	res, err := SingleCompletion{}.Evaluate(makeInput(def, src, consumedWith(def.ID, "week01-quiz")))
	assert.NoError(t, err)
	// Still qualifies, but the second completion must not re-earn it.
	assert.True(t, res.Qualifies)
	assert.Empty(t, res.NewOccurrences)
}

func TestSingleCompletion_RepeatableDisjointGroups(t *testing.T) {
	def := badge.Definition{
		ID: "grinder", Name: "Grinder",
		Kind: badge.KindSingleCompletion, Threshold: 2, Repeatable: true,
	}
	src := evidence.SourceData{Completions: []evidence.Completion{
		completedOn("a1", 1, 0),
		completedOn("a2", 2, 1),
		completedOn("a3", 3, 2),
		completedOn("a4", 4, 3),
		completedOn("a5", 5, 4),
	}}

	res, err := SingleCompletion{}.Evaluate(makeInput(def, src, emptyConsumed(def.ID)))
	assert.NoError(t, err)
	// Five completions at threshold two: two full occurrences, one remainder.
	assert.Len(t, res.NewOccurrences, 2)
	assert.Equal(t, []string{"a1", "a2"}, idStrings(res.NewOccurrences[0]))
	assert.Equal(t, []string{"a3", "a4"}, idStrings(res.NewOccurrences[1]))

	// After the first two occurrences are consumed, one more completion
	// finishes the third group.
	src.Completions = append(src.Completions, completedOn("a6", 6, 5))
	res, err = SingleCompletion{}.Evaluate(makeInput(def, src, consumedWith(def.ID, "a1", "a2", "a3", "a4")))
	assert.NoError(t, err)
	assert.Len(t, res.NewOccurrences, 1)
	assert.Equal(t, []string{"a5", "a6"}, idStrings(res.NewOccurrences[0]))
}

func TestPercentageCompletion(t *testing.T) {
	def := badge.Definition{ID: "halfway", Name: "Halfway There", Kind: badge.KindPercentageCompletion, Threshold: 50}

	src := evidence.SourceData{
		Completions:     []evidence.Completion{completedOn("a1", 1, 0), completedOn("a2", 2, 1)},
		TotalActivities: 5,
	}
	res, err := PercentageCompletion{}.Evaluate(makeInput(def, src, emptyConsumed(def.ID)))
	assert.NoError(t, err)
	// 2 of 5 is 40%, short of 50%.
	assert.False(t, res.Qualifies)
	assert.Empty(t, res.NewOccurrences)

	src.Completions = append(src.Completions, completedOn("a3", 3, 2))
	res, err = PercentageCompletion{}.Evaluate(makeInput(def, src, emptyConsumed(def.ID)))
	assert.NoError(t, err)
	assert.True(t, res.Qualifies)
	assert.Len(t, res.NewOccurrences, 1)
	assert.Len(t, res.NewOccurrences[0].Items, 3)
}

func TestPercentageCompletion_EmptyCourse(t *testing.T) {
	def := badge.Definition{ID: "halfway", Name: "Halfway There", Kind: badge.KindPercentageCompletion, Threshold: 50}

	res, err := PercentageCompletion{}.Evaluate(makeInput(def, evidence.SourceData{}, emptyConsumed(def.ID)))
	assert.NoError(t, err)
	// Zero activities means no percentage exists, never a division by zero.
	assert.False(t, res.Qualifies)
}

func TestPercentageCompletion_AlreadyAwarded(t *testing.T) {
	def := badge.Definition{ID: "halfway", Name: "Halfway There", Kind: badge.KindPercentageCompletion, Threshold: 50}
	src := evidence.SourceData{
		Completions:     []evidence.Completion{completedOn("a1", 1, 0), completedOn("a2", 2, 1)},
		TotalActivities: 2,
	}

	res, err := PercentageCompletion{}.Evaluate(makeInput(def, src, consumedWith(def.ID, "a1")))
	assert.NoError(t, err)
	assert.True(t, res.Qualifies)
	assert.Empty(t, res.NewOccurrences)
}

func idStrings(g evidence.Group) []string {
	out := make([]string, 0, len(g.Items))
	for _, id := range g.ItemIDs() {
		out = append(out, id.String())
	}
	return out
}
