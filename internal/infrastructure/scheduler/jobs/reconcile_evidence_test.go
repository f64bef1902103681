package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/badge-engine/internal/application/query"
	"github.com/learnhub/badge-engine/internal/application/source"
	"github.com/learnhub/badge-engine/internal/application/strategy"
	"github.com/learnhub/badge-engine/internal/domain/badge"
	"github.com/learnhub/badge-engine/internal/domain/evidence"
	"github.com/learnhub/badge-engine/internal/domain/shared"
)

const (
	reconUser   = shared.UserID("a81bc81b-dead-4e5d-abff-90865d1e13b1")
	reconCourse = shared.CourseID("algebra-101")
	reconBadge  = shared.BadgeID("first-steps")
)

type fakeSnapshots struct {
	mu      sync.Mutex
	data    map[evidence.SnapshotKey]evidence.Snapshot
	corrupt map[evidence.SnapshotKey]bool
	puts    int
	deletes int
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{
		data:    make(map[evidence.SnapshotKey]evidence.Snapshot),
		corrupt: make(map[evidence.SnapshotKey]bool),
	}
}

func (f *fakeSnapshots) Get(_ context.Context, key evidence.SnapshotKey) (evidence.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.corrupt[key] {
		return evidence.Snapshot{}, shared.ErrSnapshotCorrupt
	}
	snap, ok := f.data[key]
	if !ok {
		return evidence.Snapshot{}, shared.ErrSnapshotNotFound
	}
	return snap, nil
}

func (f *fakeSnapshots) Put(_ context.Context, snap evidence.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := evidence.SnapshotKey{User: snap.UserID, Course: snap.CourseID, Badge: snap.BadgeID}
	f.data[key] = snap
	delete(f.corrupt, key)
	f.puts++
	return nil
}

func (f *fakeSnapshots) Delete(_ context.Context, key evidence.SnapshotKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	delete(f.corrupt, key)
	f.deletes++
	return nil
}

func (f *fakeSnapshots) Keys(context.Context) ([]evidence.SnapshotKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]evidence.SnapshotKey, 0, len(f.data)+len(f.corrupt))
	for k := range f.data {
		keys = append(keys, k)
	}
	for k := range f.corrupt {
		if _, dup := f.data[k]; !dup {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

type fakeHot struct {
	mu   sync.Mutex
	data map[evidence.SnapshotKey][]byte
}

func newFakeHot() *fakeHot {
	return &fakeHot{data: make(map[evidence.SnapshotKey][]byte)}
}

func (f *fakeHot) Get(_ context.Context, key evidence.SnapshotKey) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.data[key]
	if !ok {
		return nil, shared.ErrSnapshotNotFound
	}
	return data, nil
}

func (f *fakeHot) Set(_ context.Context, key evidence.SnapshotKey, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = data
	return nil
}

func (f *fakeHot) Delete(_ context.Context, key evidence.SnapshotKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

type stubActivities struct {
	completions []evidence.Completion
}

func (s *stubActivities) List(context.Context, shared.UserID, shared.CourseID) ([]evidence.Completion, error) {
	return s.completions, nil
}

type stubCourses struct {
	total         int
	missingUser   bool
	missingCourse bool
}

func (s *stubCourses) ActivityCount(context.Context, shared.CourseID) (int, error) {
	return s.total, nil
}

func (s *stubCourses) CourseExists(context.Context, shared.CourseID) (bool, error) {
	return !s.missingCourse, nil
}

func (s *stubCourses) UserExists(context.Context, shared.UserID) (bool, error) {
	return !s.missingUser, nil
}

type stubCandidates struct {
	candidates []evidence.Candidate
}

func (s *stubCandidates) ActiveCandidates(context.Context) ([]evidence.Candidate, error) {
	return s.candidates, nil
}

type reconcileHarness struct {
	job     *ReconcileEvidenceJob
	reader  *query.EvidenceReader
	store   *fakeSnapshots
	hot     *fakeHot
	courses *stubCourses
	catalog *badge.Catalog
	key     evidence.SnapshotKey
}

func newReconcileHarness(t *testing.T) *reconcileHarness {
	t.Helper()

	catalog, err := badge.NewCatalog([]badge.Definition{{
		ID:        reconBadge,
		Name:      "First Steps",
		Kind:      badge.KindSingleCompletion,
		Threshold: 1,
		Coins:     10,
		XP:        50,
	}})
	require.NoError(t, err)

	activities := &stubActivities{completions: []evidence.Completion{{
		ItemID:      "week01-quiz",
		Title:       "Week 1 quiz",
		SortOrder:   1,
		Completed:   true,
		CompletedAt: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}}}
	courses := &stubCourses{total: 4}

	store := newFakeSnapshots()
	hot := newFakeHot()
	reader := query.NewEvidenceReader(catalog, strategy.NewRegistry(), &source.Assembler{
		Activities: activities,
		Courses:    courses,
		Catalog:    catalog,
	}, store, hot, nil)

	// No candidate source: the backfill phase stays off so each test counts
	// only the writes its own scenario causes.
	return &reconcileHarness{
		job:     NewReconcileEvidenceJob(reader, store, hot, courses, nil, catalog, nil, ReconcileConfig{SampleSize: 100, EntryTimeout: time.Second}),
		reader:  reader,
		store:   store,
		hot:     hot,
		courses: courses,
		catalog: catalog,
		key:     evidence.SnapshotKey{User: reconUser, Course: reconCourse, Badge: reconBadge},
	}
}

// seed places a snapshot in the durable store without going through Put, so
// the tests can count reconciliation writes in isolation.
func (h *reconcileHarness) seed(snap evidence.Snapshot) {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	h.store.data[h.key] = snap
}

func TestReconcileEvidenceJob_Identity(t *testing.T) {
	h := newReconcileHarness(t)
	assert.Equal(t, "reconcile_evidence", h.job.Name())
	assert.NotEmpty(t, h.job.Description())
}

func TestReconcileEvidenceJob_CleanSnapshotUntouched(t *testing.T) {
	h := newReconcileHarness(t)

	fresh, err := h.reader.Derive(context.Background(), h.key)
	require.NoError(t, err)
	h.seed(fresh)

	require.NoError(t, h.job.Run(context.Background()))

	assert.Equal(t, 0, h.store.puts)
	assert.Equal(t, 0, h.store.deletes)
}

func TestReconcileEvidenceJob_HealsDriftedSnapshot(t *testing.T) {
	h := newReconcileHarness(t)

	stale, err := h.reader.Derive(context.Background(), h.key)
	require.NoError(t, err)
	require.NotEmpty(t, stale.Entries)
	stale.Entries[0].Description = "Week 1 quiz (old title)"
	h.seed(stale)

	require.NoError(t, h.job.Run(context.Background()))

	require.Equal(t, 1, h.store.puts)
	healed, err := h.store.Get(context.Background(), h.key)
	require.NoError(t, err)
	assert.Equal(t, "Week 1 quiz", healed.Entries[0].Description)
}

func TestReconcileEvidenceJob_HealsCorruptSnapshot(t *testing.T) {
	h := newReconcileHarness(t)
	h.store.corrupt[h.key] = true

	require.NoError(t, h.job.Run(context.Background()))

	assert.Equal(t, 1, h.store.puts)
	_, err := h.store.Get(context.Background(), h.key)
	assert.NoError(t, err)
}

func TestReconcileEvidenceJob_PrunesVanishedUser(t *testing.T) {
	h := newReconcileHarness(t)

	fresh, err := h.reader.Derive(context.Background(), h.key)
	require.NoError(t, err)
	h.seed(fresh)
	data, err := fresh.Encode()
	require.NoError(t, err)
	require.NoError(t, h.hot.Set(context.Background(), h.key, data))

	h.courses.missingUser = true
	require.NoError(t, h.job.Run(context.Background()))

	// Both tiers are cleared; no recompute happens for an orphan.
	assert.Equal(t, 1, h.store.deletes)
	assert.Equal(t, 0, h.store.puts)
	_, err = h.hot.Get(context.Background(), h.key)
	assert.Error(t, err)
}

func TestReconcileEvidenceJob_PrunesVanishedCourse(t *testing.T) {
	h := newReconcileHarness(t)

	fresh, err := h.reader.Derive(context.Background(), h.key)
	require.NoError(t, err)
	h.seed(fresh)

	h.courses.missingCourse = true
	require.NoError(t, h.job.Run(context.Background()))

	assert.Equal(t, 1, h.store.deletes)
	_, err = h.store.Get(context.Background(), h.key)
	assert.ErrorIs(t, err, shared.ErrSnapshotNotFound)
}

func TestReconcileEvidenceJob_BackfillsUncachedCombination(t *testing.T) {
	h := newReconcileHarness(t)
	cands := &stubCandidates{candidates: []evidence.Candidate{{User: reconUser, Course: reconCourse}}}
	job := NewReconcileEvidenceJob(h.reader, h.store, h.hot, h.courses, cands, h.catalog, nil,
		ReconcileConfig{SampleSize: 100, BackfillBatchSize: 10, EntryTimeout: time.Second})

	require.NoError(t, job.Run(context.Background()))

	require.Equal(t, 1, h.store.puts)
	snap, err := h.store.Get(context.Background(), h.key)
	require.NoError(t, err)
	assert.Equal(t, reconBadge, snap.BadgeID)
}

func TestReconcileEvidenceJob_BackfillSkipsCachedCombination(t *testing.T) {
	h := newReconcileHarness(t)

	fresh, err := h.reader.Derive(context.Background(), h.key)
	require.NoError(t, err)
	h.seed(fresh)

	cands := &stubCandidates{candidates: []evidence.Candidate{{User: reconUser, Course: reconCourse}}}
	job := NewReconcileEvidenceJob(h.reader, h.store, h.hot, h.courses, cands, h.catalog, nil,
		ReconcileConfig{SampleSize: 100, BackfillBatchSize: 10, EntryTimeout: time.Second})

	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, 0, h.store.puts)
}

func TestReconcileEvidenceJob_BackfillHonorsBatchSize(t *testing.T) {
	h := newReconcileHarness(t)
	cands := &stubCandidates{candidates: []evidence.Candidate{
		{User: reconUser, Course: reconCourse},
		{User: reconUser, Course: shared.CourseID("geometry-201")},
	}}
	job := NewReconcileEvidenceJob(h.reader, h.store, h.hot, h.courses, cands, h.catalog, nil,
		ReconcileConfig{SampleSize: 100, BackfillBatchSize: 1, EntryTimeout: time.Second})

	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, 1, h.store.puts)
}

func TestSampleKeys(t *testing.T) {
	keys := make([]evidence.SnapshotKey, 10)
	for i := range keys {
		keys[i] = evidence.SnapshotKey{User: reconUser, Course: reconCourse, Badge: shared.BadgeID(string(rune('a' + i)))}
	}

	sample := sampleKeys(keys, 3)
	assert.Len(t, sample, 3)
	seen := make(map[evidence.SnapshotKey]bool)
	for _, k := range sample {
		assert.Contains(t, keys, k)
		assert.False(t, seen[k], "sample must not repeat keys")
		seen[k] = true
	}

	// When the population fits, the sample is a copy of the whole set.
	all := sampleKeys(keys, 100)
	assert.Equal(t, keys, all)
	all[0] = evidence.SnapshotKey{}
	assert.NotEqual(t, keys[0], all[0])
}
