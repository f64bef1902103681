package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/learnhub/badge-engine/internal/domain/badge"
	"github.com/learnhub/badge-engine/internal/domain/evidence"
	"github.com/learnhub/badge-engine/internal/domain/shared"
)

func metaDef() badge.Definition {
	return badge.Definition{
		ID: "course-hero", Name: "Course Hero", Kind: badge.KindMetaComposition,
		Siblings:         []shared.BadgeID{"first-steps", "early-bird", "comeback"},
		SiblingThreshold: 2,
	}
}

func TestMetaComposition_TwoOfThree(t *testing.T) {
	def := metaDef()

	src := evidence.SourceData{SiblingAwards: map[shared.BadgeID]string{
		"early-bird":  "Early Bird",
		"first-steps": "First Steps",
	}}

	res, err := MetaComposition{}.Evaluate(makeInput(def, src, emptyConsumed(def.ID)))
	assert.NoError(t, err)
	assert.True(t, res.Qualifies)
	assert.Len(t, res.NewOccurrences, 1)

	// Sibling evidence is sorted by badge ID, independent of map order.
	assert.Equal(t, []string{"badge:early-bird", "badge:first-steps"}, idStrings(res.NewOccurrences[0]))
	assert.Equal(t, "Early Bird", res.NewOccurrences[0].Items[0].Label)
	assert.Equal(t, evidence.ItemSiblingBadge, res.NewOccurrences[0].Items[0].Kind)
}

func TestMetaComposition_OneOfThreeShort(t *testing.T) {
	def := metaDef()
	src := evidence.SourceData{SiblingAwards: map[shared.BadgeID]string{"first-steps": "First Steps"}}

	res, err := MetaComposition{}.Evaluate(makeInput(def, src, emptyConsumed(def.ID)))
	assert.NoError(t, err)
	assert.False(t, res.Qualifies)
	assert.Empty(t, res.NewOccurrences)
}

func TestMetaComposition_IgnoresNonSiblingAwards(t *testing.T) {
	def := metaDef()
	src := evidence.SourceData{SiblingAwards: map[shared.BadgeID]string{
		"first-steps": "First Steps",
		// Not in the sibling list; must not count toward the threshold.
		"unrelated": "Unrelated",
	}}

	res, err := MetaComposition{}.Evaluate(makeInput(def, src, emptyConsumed(def.ID)))
	assert.NoError(t, err)
	assert.False(t, res.Qualifies)
}

func TestMetaComposition_AlreadyAwarded(t *testing.T) {
	def := metaDef()
	src := evidence.SourceData{SiblingAwards: map[shared.BadgeID]string{
		"first-steps": "First Steps",
		"early-bird":  "Early Bird",
	}}

	res, err := MetaComposition{}.Evaluate(makeInput(def, src, consumedWith(def.ID, "badge:early-bird")))
	assert.NoError(t, err)
	assert.True(t, res.Qualifies)
	assert.Empty(t, res.NewOccurrences)
}
