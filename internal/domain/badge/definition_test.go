package badge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/learnhub/badge-engine/internal/domain/shared"
)

func validDef() Definition {
	return Definition{
		ID:        "first-steps",
		Name:      "First Steps",
		Kind:      KindSingleCompletion,
		Coins:     10,
		XP:        50,
		Threshold: 1,
	}
}

func TestKind_IsValid(t *testing.T) {
	for _, k := range AllKinds {
		assert.True(t, k.IsValid(), "kind %s", k)
	}
	assert.False(t, Kind("weekly_login").IsValid())
	assert.False(t, Kind("").IsValid())
}

func TestDefinition_Validate(t *testing.T) {
	assert.NoError(t, validDef().Validate())

	tests := []struct {
		name   string
		mutate func(*Definition)
	}{
		{"invalid ID", func(d *Definition) { d.ID = "Bad ID" }},
		{"empty name", func(d *Definition) { d.Name = "  " }},
		{"unknown kind", func(d *Definition) { d.Kind = "weekly_login" }},
		{"negative coins", func(d *Definition) { d.Coins = -1 }},
		{"XP over cap", func(d *Definition) { d.XP = shared.MaxXP + 1 }},
		{"zero threshold for single_completion", func(d *Definition) { d.Threshold = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDef()
			tt.mutate(&d)
			assert.Error(t, d.Validate())
		})
	}
}

func TestDefinition_Validate_KindSpecific(t *testing.T) {
	pct := validDef()
	pct.Kind = KindPercentageCompletion
	pct.Threshold = 101
	assert.Error(t, pct.Validate())
	pct.Threshold = 80
	assert.NoError(t, pct.Validate())

	// A streak of one is not a streak.
	streak := validDef()
	streak.Kind = KindStreak
	streak.Threshold = 1
	assert.Error(t, streak.Validate())
	streak.Threshold = 5
	assert.NoError(t, streak.Validate())

	early := validDef()
	early.Kind = KindEarlyBird
	assert.Error(t, early.Validate())
	early.EarlyBy = 48 * time.Hour
	assert.NoError(t, early.Validate())

	grade := validDef()
	grade.Kind = KindGradeImprovement
	assert.Error(t, grade.Validate())
	grade.GradeRule = GradeRuleFailToPass
	assert.Error(t, grade.Validate())
	grade.PassPercent = 60
	assert.NoError(t, grade.Validate())

	meta := validDef()
	meta.Kind = KindMetaComposition
	assert.Error(t, meta.Validate())
	meta.Siblings = []shared.BadgeID{"streak-master", "early-bird", "perfect-run"}
	meta.SiblingThreshold = 4
	assert.Error(t, meta.Validate())
	meta.SiblingThreshold = 2
	assert.NoError(t, meta.Validate())
}
