package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/learnhub/badge-engine/internal/domain/badge"
	"github.com/learnhub/badge-engine/internal/domain/evidence"
)

func TestStreak_GapBreaksRun(t *testing.T) {
	def := badge.Definition{ID: "on-a-roll", Name: "On a Roll", Kind: badge.KindStreak, Threshold: 5}

	// Seven activities in course order with one gap at position 4: the
	// longest run is 3, short of the threshold.
	src := evidence.SourceData{Completions: []evidence.Completion{
		completedOn("a1", 1, 0),
		completedOn("a2", 2, 1),
		completedOn("a3", 3, 2),
		incomplete("a4", 4),
		completedOn("a5", 5, 4),
		completedOn("a6", 6, 5),
		completedOn("a7", 7, 6),
	}}

	res, err := Streak{}.Evaluate(makeInput(def, src, emptyConsumed(def.ID)))
	assert.NoError(t, err)
	assert.False(t, res.Qualifies)
	assert.Empty(t, res.NewOccurrences)
}

func TestStreak_QualifiesAcrossCourseOrder(t *testing.T) {
	def := badge.Definition{ID: "on-a-roll", Name: "On a Roll", Kind: badge.KindStreak, Threshold: 3}

	// Completion timestamps are out of order on purpose; only the course
	// position sequence matters.
	src := evidence.SourceData{Completions: []evidence.Completion{
		completedOn("a3", 3, 0),
		completedOn("a1", 1, 5),
		completedOn("a2", 2, 2),
	}}

	res, err := Streak{}.Evaluate(makeInput(def, src, emptyConsumed(def.ID)))
	assert.NoError(t, err)
	assert.True(t, res.Qualifies)
	assert.Len(t, res.NewOccurrences, 1)
	assert.Len(t, res.NewOccurrences[0].Items, 3)
}

func TestStreak_RepeatableDisjointWindows(t *testing.T) {
	def := badge.Definition{ID: "on-a-roll", Name: "On a Roll", Kind: badge.KindStreak, Threshold: 2, Repeatable: true}

	src := evidence.SourceData{Completions: []evidence.Completion{
		completedOn("a1", 1, 0),
		completedOn("a2", 2, 1),
		completedOn("a3", 3, 2),
		completedOn("a4", 4, 3),
		completedOn("a5", 5, 4),
	}}

	res, err := Streak{}.Evaluate(makeInput(def, src, emptyConsumed(def.ID)))
	assert.NoError(t, err)
	// Five consecutive at window two: [a1,a2] and [a3,a4]; a5 waits.
	assert.Len(t, res.NewOccurrences, 2)

	// Re-evaluation with the first window consumed yields only the second.
	res, err = Streak{}.Evaluate(makeInput(def, src, consumedWith(def.ID, "a1", "a2")))
	assert.NoError(t, err)
	assert.Len(t, res.NewOccurrences, 1)
	assert.Equal(t, []string{"a3", "a4"}, idStrings(res.NewOccurrences[0]))
}

func TestStreak_NonRepeatableSpent(t *testing.T) {
	def := badge.Definition{ID: "on-a-roll", Name: "On a Roll", Kind: badge.KindStreak, Threshold: 2}

	src := evidence.SourceData{Completions: []evidence.Completion{
		completedOn("a1", 1, 0),
		completedOn("a2", 2, 1),
		completedOn("a3", 3, 2),
		completedOn("a4", 4, 3),
	}}

	res, err := Streak{}.Evaluate(makeInput(def, src, consumedWith(def.ID, "a1", "a2")))
	assert.NoError(t, err)
	assert.True(t, res.Qualifies)
	// A later window must not re-earn a non-repeatable streak badge.
	assert.Empty(t, res.NewOccurrences)
}

func withDeadline(c evidence.Completion, deadline time.Time) evidence.Completion {
	c.HasDeadline = true
	c.DeadlineAt = deadline
	return c
}

func TestDeadlineStreak_ExemptActivitiesDoNotBreakRun(t *testing.T) {
	def := badge.Definition{ID: "punctual", Name: "Punctual", Kind: badge.KindDeadlineStreak, Threshold: 3}

	src := evidence.SourceData{Completions: []evidence.Completion{
		withDeadline(completedOn("a1", 1, 0), day0.AddDate(0, 0, 1)),
		// No deadline: exempt, neither extends nor breaks.
		completedOn("a2", 2, 1),
		withDeadline(completedOn("a3", 3, 2), day0.AddDate(0, 0, 3)),
		withDeadline(completedOn("a4", 4, 3), day0.AddDate(0, 0, 4)),
	}}

	res, err := DeadlineStreak{}.Evaluate(makeInput(def, src, emptyConsumed(def.ID)))
	assert.NoError(t, err)
	assert.True(t, res.Qualifies)
	assert.Len(t, res.NewOccurrences, 1)
	assert.Equal(t, []string{"a1", "a3", "a4"}, idStrings(res.NewOccurrences[0]))
}

func TestDeadlineStreak_MissedDeadlineBreaksRun(t *testing.T) {
	def := badge.Definition{ID: "punctual", Name: "Punctual", Kind: badge.KindDeadlineStreak, Threshold: 3}

	src := evidence.SourceData{Completions: []evidence.Completion{
		withDeadline(completedOn("a1", 1, 0), day0.AddDate(0, 0, 1)),
		// Completed exactly at the deadline: not strictly before, breaks.
		withDeadline(completedOn("a2", 2, 2), day0.AddDate(0, 0, 2)),
		withDeadline(completedOn("a3", 3, 3), day0.AddDate(0, 0, 4)),
		withDeadline(completedOn("a4", 4, 4), day0.AddDate(0, 0, 5)),
	}}

	res, err := DeadlineStreak{}.Evaluate(makeInput(def, src, emptyConsumed(def.ID)))
	assert.NoError(t, err)
	assert.False(t, res.Qualifies)
	assert.Empty(t, res.NewOccurrences)
}

func TestStreak_RejectsDegenerateThreshold(t *testing.T) {
	def := badge.Definition{ID: "on-a-roll", Name: "On a Roll", Kind: badge.KindStreak, Threshold: 1}
	_, err := Streak{}.Evaluate(makeInput(def, evidence.SourceData{}, emptyConsumed(def.ID)))
	assert.Error(t, err)
}
