package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/learnhub/badge-engine/internal/domain/badge"
	"github.com/learnhub/badge-engine/internal/domain/evidence"
)

func TestAllBeforeDeadline_AllMet(t *testing.T) {
	def := badge.Definition{ID: "never-late", Name: "Never Late", Kind: badge.KindAllBeforeDeadline}

	src := evidence.SourceData{Completions: []evidence.Completion{
		withDeadline(completedOn("a1", 1, 0), day0.AddDate(0, 0, 2)),
		withDeadline(completedOn("a2", 2, 1), day0.AddDate(0, 0, 3)),
		// No deadline: exempt from the rule entirely.
		completedOn("a3", 3, 10),
	}}

	res, err := AllBeforeDeadline{}.Evaluate(makeInput(def, src, emptyConsumed(def.ID)))
	assert.NoError(t, err)
	assert.True(t, res.Qualifies)
	assert.Len(t, res.NewOccurrences, 1)
	// Only the deadline-bound activities are the evidence.
	assert.Equal(t, []string{"a1", "a2"}, idStrings(res.NewOccurrences[0]))
}

func TestAllBeforeDeadline_OneMissRejects(t *testing.T) {
	def := badge.Definition{ID: "never-late", Name: "Never Late", Kind: badge.KindAllBeforeDeadline}

	deadline := day0.AddDate(0, 0, 2)
	src := evidence.SourceData{Completions: []evidence.Completion{
		withDeadline(completedOn("a1", 1, 0), deadline),
		// Completed exactly at its deadline: strictly-before fails.
		withDeadline(completedOn("a2", 2, 2), deadline),
	}}

	res, err := AllBeforeDeadline{}.Evaluate(makeInput(def, src, emptyConsumed(def.ID)))
	assert.NoError(t, err)
	assert.False(t, res.Qualifies)

	// An incomplete deadline-bound activity also rejects.
	src.Completions[1] = withDeadline(incomplete("a2", 2), deadline)
	res, err = AllBeforeDeadline{}.Evaluate(makeInput(def, src, emptyConsumed(def.ID)))
	assert.NoError(t, err)
	assert.False(t, res.Qualifies)
}

func TestAllBeforeDeadline_NoDeadlineBoundActivities(t *testing.T) {
	def := badge.Definition{ID: "never-late", Name: "Never Late", Kind: badge.KindAllBeforeDeadline}
	src := evidence.SourceData{Completions: []evidence.Completion{
		completedOn("a1", 1, 0),
		completedOn("a2", 2, 1),
	}}

	// Vacuous satisfaction is not qualification.
	res, err := AllBeforeDeadline{}.Evaluate(makeInput(def, src, emptyConsumed(def.ID)))
	assert.NoError(t, err)
	assert.False(t, res.Qualifies)
}

func TestEarlyBird_LeadTimeWindow(t *testing.T) {
	def := badge.Definition{
		ID: "early-bird", Name: "Early Bird",
		Kind: badge.KindEarlyBird, EarlyBy: 48 * time.Hour, Repeatable: true,
	}

	deadline := day0.Add(50 * time.Hour)
	src := evidence.SourceData{Completions: []evidence.Completion{
		// 50 hours early: qualifies.
		withDeadline(completedOn("a1", 1, 0), deadline),
		// 10 hours early: not enough.
		{ItemID: "a2", Title: "a2", SortOrder: 2, Completed: true,
			CompletedAt: deadline.Add(-10 * time.Hour), HasDeadline: true, DeadlineAt: deadline},
		// Exactly 48 hours early: the boundary is inclusive.
		{ItemID: "a3", Title: "a3", SortOrder: 3, Completed: true,
			CompletedAt: deadline.Add(-48 * time.Hour), HasDeadline: true, DeadlineAt: deadline},
	}}

	res, err := EarlyBird{}.Evaluate(makeInput(def, src, emptyConsumed(def.ID)))
	assert.NoError(t, err)
	assert.True(t, res.Qualifies)
	assert.Len(t, res.NewOccurrences, 2)

	// Each occurrence is a single activity carrying its lead time.
	first := res.NewOccurrences[0].Items[0]
	assert.Equal(t, "50", first.Meta["hours_early"])
}

func TestEarlyBird_ConsumedActivitiesStayConsumed(t *testing.T) {
	def := badge.Definition{
		ID: "early-bird", Name: "Early Bird",
		Kind: badge.KindEarlyBird, EarlyBy: 48 * time.Hour, Repeatable: true,
	}

	deadline := day0.Add(72 * time.Hour)
	src := evidence.SourceData{Completions: []evidence.Completion{
		withDeadline(completedOn("a1", 1, 0), deadline),
		withDeadline(completedOn("a2", 2, 0), deadline),
	}}

	res, err := EarlyBird{}.Evaluate(makeInput(def, src, consumedWith(def.ID, "a1")))
	assert.NoError(t, err)
	assert.True(t, res.Qualifies)
	assert.Len(t, res.NewOccurrences, 1)
	assert.Equal(t, []string{"a2"}, idStrings(res.NewOccurrences[0]))
}
