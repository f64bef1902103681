package command

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/badge-engine/internal/domain/award"
	"github.com/learnhub/badge-engine/internal/domain/shared"
)

const legacyUser = "a81bc81b-dead-4e5d-abff-90865d1e13b1"

type fakeLegacyStore struct {
	mu      sync.Mutex
	pairs   []KVPair
	deleted []string
}

func (f *fakeLegacyStore) ListByPrefix(_ context.Context, prefix string) ([]KVPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []KVPair
	for _, p := range f.pairs {
		if len(p.Key) >= len(prefix) && p.Key[:len(prefix)] == prefix {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeLegacyStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	kept := f.pairs[:0]
	for _, p := range f.pairs {
		if p.Key != key {
			kept = append(kept, p)
		}
	}
	f.pairs = kept
	return nil
}

type recordingConsumed struct {
	mu    sync.Mutex
	marks map[string][]shared.ItemID
	err   error
}

func newRecordingConsumed() *recordingConsumed {
	return &recordingConsumed{marks: make(map[string][]shared.ItemID)}
}

func (r *recordingConsumed) MarkConsumed(_ context.Context, user shared.UserID, badgeID shared.BadgeID, course shared.CourseID, items []shared.ItemID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	k := user.String() + "/" + badgeID.String() + "/" + course.String()
	r.marks[k] = append(r.marks[k], items...)
	return nil
}

func (r *recordingConsumed) IsConsumed(context.Context, shared.UserID, shared.BadgeID, shared.CourseID, shared.ItemID) (bool, error) {
	return false, nil
}

func (r *recordingConsumed) GetSet(_ context.Context, user shared.UserID, badgeID shared.BadgeID, course shared.CourseID) (award.ConsumedSet, error) {
	return award.NewConsumedSet(user, badgeID, course, nil), nil
}

func (r *recordingConsumed) Clear(context.Context, shared.UserID, shared.BadgeID, shared.CourseID) error {
	return nil
}

func TestMigrateLegacyEvidence_AllThreeFormats(t *testing.T) {
	legacy := &fakeLegacyStore{pairs: []KVPair{
		{Key: "badge_consumed:" + legacyUser + ":first-steps:algebra-101", Value: "week01-quiz|week02-quiz"},
		{Key: "badge_consumed:" + legacyUser + ":grinder:algebra-101", Value: "a1, a2 ,a3"},
		{Key: "badge_consumed:" + legacyUser + ":comeback:algebra-101", Value: `["quiz1","quiz2"]`},
		// Unrelated namespace, never scanned.
		{Key: "session:abc", Value: "whatever"},
	}}
	consumed := newRecordingConsumed()

	report, err := NewMigrateLegacyEvidence(legacy, consumed, nil).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Migrated)
	assert.Equal(t, 0, report.Skipped)

	assert.Equal(t, []shared.ItemID{"week01-quiz", "week02-quiz"},
		consumed.marks[legacyUser+"/first-steps/algebra-101"])
	assert.Equal(t, []shared.ItemID{"a1", "a2", "a3"},
		consumed.marks[legacyUser+"/grinder/algebra-101"])
	assert.Equal(t, []shared.ItemID{"quiz1", "quiz2"},
		consumed.marks[legacyUser+"/comeback/algebra-101"])

	// Migrated keys are removed from the legacy table.
	assert.Len(t, legacy.deleted, 3)
}

func TestMigrateLegacyEvidence_SkipsMalformedEntries(t *testing.T) {
	legacy := &fakeLegacyStore{pairs: []KVPair{
		// Key missing the course segment.
		{Key: "badge_consumed:" + legacyUser + ":first-steps", Value: "week01-quiz"},
		// User is not a UUID.
		{Key: "badge_consumed:someone:first-steps:algebra-101", Value: "week01-quiz"},
		// Broken JSON array.
		{Key: "badge_consumed:" + legacyUser + ":grinder:algebra-101", Value: `["unterminated`},
		// Empty value carries nothing to migrate.
		{Key: "badge_consumed:" + legacyUser + ":comeback:algebra-101", Value: "   "},
		// One good entry among the wreckage.
		{Key: "badge_consumed:" + legacyUser + ":early-bird:algebra-101", Value: "a1|a2"},
	}}
	consumed := newRecordingConsumed()

	report, err := NewMigrateLegacyEvidence(legacy, consumed, nil).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Migrated)
	assert.Equal(t, 4, report.Skipped)

	// Skipped entries stay in the legacy store for manual inspection.
	assert.Equal(t, []string{"badge_consumed:" + legacyUser + ":early-bird:algebra-101"}, legacy.deleted)
}

func TestMigrateLegacyEvidence_RerunIsNoOp(t *testing.T) {
	legacy := &fakeLegacyStore{pairs: []KVPair{
		{Key: "badge_consumed:" + legacyUser + ":first-steps:algebra-101", Value: "week01-quiz"},
	}}
	consumed := newRecordingConsumed()
	cmd := NewMigrateLegacyEvidence(legacy, consumed, nil)

	report, err := cmd.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Migrated)

	// The worker runs the pass on every startup; a second pass finds nothing
	// left to move.
	report, err = cmd.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Migrated)
	assert.Equal(t, 0, report.Skipped)
	assert.Len(t, consumed.marks[legacyUser+"/first-steps/algebra-101"], 1)
}

func TestMigrateLegacyEvidence_StorageErrorStopsPass(t *testing.T) {
	legacy := &fakeLegacyStore{pairs: []KVPair{
		{Key: "badge_consumed:" + legacyUser + ":first-steps:algebra-101", Value: "week01-quiz"},
	}}
	consumed := newRecordingConsumed()
	consumed.err = shared.ErrLedgerUnavailable

	_, err := NewMigrateLegacyEvidence(legacy, consumed, nil).Execute(context.Background())
	assert.Error(t, err)
	assert.Empty(t, legacy.deleted)
}

func TestParseLegacyItems(t *testing.T) {
	items, err := parseLegacyItems("a1|a2|a3")
	require.NoError(t, err)
	assert.Len(t, items, 3)

	items, err = parseLegacyItems("a1,a2")
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = parseLegacyItems(`["a1"]`)
	require.NoError(t, err)
	assert.Equal(t, []shared.ItemID{"a1"}, items)

	items, err = parseLegacyItems("")
	require.NoError(t, err)
	assert.Empty(t, items)

	// Empty fragments between separators are dropped, not errors.
	items, err = parseLegacyItems("a1||a2")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
