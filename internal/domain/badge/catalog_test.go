package badge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/learnhub/badge-engine/internal/domain/shared"
)

func TestNewCatalog(t *testing.T) {
	defs := []Definition{
		{ID: "zeta", Name: "Zeta", Kind: KindSingleCompletion, Threshold: 1},
		{ID: "alpha", Name: "Alpha", Kind: KindSingleCompletion, Threshold: 1},
	}

	cat, err := NewCatalog(defs)
	assert.NoError(t, err)
	assert.Equal(t, 2, cat.Len())

	got, err := cat.Get("alpha")
	assert.NoError(t, err)
	assert.Equal(t, "Alpha", got.Name)

	_, err = cat.Get("missing")
	assert.True(t, shared.IsNotFound(err))

	// All() is ID-sorted regardless of load order.
	all := cat.All()
	assert.Equal(t, shared.BadgeID("alpha"), all[0].ID)
	assert.Equal(t, shared.BadgeID("zeta"), all[1].ID)
}

func TestNewCatalog_RejectsDuplicatesAndInvalid(t *testing.T) {
	_, err := NewCatalog([]Definition{
		{ID: "alpha", Name: "Alpha", Kind: KindSingleCompletion, Threshold: 1},
		{ID: "alpha", Name: "Alpha again", Kind: KindSingleCompletion, Threshold: 1},
	})
	assert.True(t, shared.IsAlreadyExists(err))

	_, err = NewCatalog([]Definition{
		{ID: "broken", Name: "Broken", Kind: "weekly_login"},
	})
	assert.Error(t, err)
}
