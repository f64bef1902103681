package jobs

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/learnhub/badge-engine/internal/application/query"
	"github.com/learnhub/badge-engine/internal/domain/badge"
	"github.com/learnhub/badge-engine/internal/domain/evidence"
	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECONCILE EVIDENCE JOB
// ══════════════════════════════════════════════════════════════════════════════

// ReconcileEvidenceJob keeps the snapshot cache honest. Each pass backfills
// a bounded batch of combinations that were never cached, samples a batch of
// stored snapshots and re-derives each from source data to heal drift, and
// prunes snapshots whose owning user or course no longer exists. Snapshots
// are pure cache, so every action here is safe to repeat.
type ReconcileEvidenceJob struct {
	reader     *query.EvidenceReader
	snapshots  evidence.SnapshotStore
	hot        query.HotCache
	courses    evidence.CourseRegistry
	candidates evidence.CandidateSource
	catalog    *badge.Catalog
	logger     *slog.Logger
	config     ReconcileConfig
}

// ReconcileConfig contains configuration for the reconciliation pass.
type ReconcileConfig struct {
	// SampleSize is the number of snapshots verified per pass. The sample is
	// random, so repeated passes converge on full coverage.
	SampleSize int

	// BackfillBatchSize caps how many previously-uncached combinations get
	// computed per pass, so a cold cache warms up without a load spike.
	BackfillBatchSize int

	// EntryTimeout bounds the work done for one snapshot.
	EntryTimeout time.Duration
}

// DefaultReconcileConfig returns sensible defaults.
func DefaultReconcileConfig() ReconcileConfig {
	return ReconcileConfig{
		SampleSize:        200,
		BackfillBatchSize: 100,
		EntryTimeout:      30 * time.Second,
	}
}

// NewReconcileEvidenceJob creates the reconciliation job. hot may be nil.
// candidates may be nil, which disables the backfill phase.
func NewReconcileEvidenceJob(
	reader *query.EvidenceReader,
	snapshots evidence.SnapshotStore,
	hot query.HotCache,
	courses evidence.CourseRegistry,
	candidates evidence.CandidateSource,
	catalog *badge.Catalog,
	logger *slog.Logger,
	config ReconcileConfig,
) *ReconcileEvidenceJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.SampleSize <= 0 {
		config.SampleSize = DefaultReconcileConfig().SampleSize
	}
	if config.BackfillBatchSize <= 0 {
		config.BackfillBatchSize = DefaultReconcileConfig().BackfillBatchSize
	}
	if config.EntryTimeout <= 0 {
		config.EntryTimeout = DefaultReconcileConfig().EntryTimeout
	}
	return &ReconcileEvidenceJob{
		reader:     reader,
		snapshots:  snapshots,
		hot:        hot,
		courses:    courses,
		candidates: candidates,
		catalog:    catalog,
		logger:     logger,
		config:     config,
	}
}

// Name implements scheduler.Job.
func (j *ReconcileEvidenceJob) Name() string {
	return "reconcile_evidence"
}

// Description implements scheduler.Job.
func (j *ReconcileEvidenceJob) Description() string {
	return "Backfills uncached evidence, verifies sampled snapshots against fresh derivations, and prunes orphans"
}

// Run implements scheduler.Job. A failure on one snapshot is logged and
// skipped; only the initial key listing can fail the whole pass.
func (j *ReconcileEvidenceJob) Run(ctx context.Context) error {
	keys, err := j.snapshots.Keys(ctx)
	if err != nil {
		return err
	}

	backfilled := j.backfill(ctx, keys)
	if err := ctx.Err(); err != nil {
		return err
	}

	sample := sampleKeys(keys, j.config.SampleSize)

	var verified, healed, pruned, failed int
	for _, key := range sample {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		outcome, err := j.reconcileOne(ctx, key)
		if err != nil {
			failed++
			j.logger.Warn("snapshot reconciliation skipped",
				"user", key.User.String(),
				"badge", key.Badge.String(),
				"error", err,
			)
			continue
		}
		switch outcome {
		case outcomeClean:
			verified++
		case outcomeHealed:
			healed++
		case outcomePruned:
			pruned++
		}
	}

	j.logger.Info("evidence reconciliation finished",
		"backfilled", backfilled,
		"sampled", len(sample),
		"verified", verified,
		"healed", healed,
		"pruned", pruned,
		"failed", failed,
	)
	return nil
}

// backfill computes snapshots for (user, course, badge) combinations that
// exist on the platform but were never cached, up to the configured batch
// size. A failed candidate listing skips the phase rather than aborting the
// sampling and pruning that follow.
func (j *ReconcileEvidenceJob) backfill(ctx context.Context, keys []evidence.SnapshotKey) int {
	if j.candidates == nil || j.catalog == nil {
		return 0
	}

	cands, err := j.candidates.ActiveCandidates(ctx)
	if err != nil {
		j.logger.Warn("backfill skipped, candidate listing failed", "error", err)
		return 0
	}

	existing := make(map[evidence.SnapshotKey]struct{}, len(keys))
	for _, k := range keys {
		existing[k] = struct{}{}
	}

	var backfilled int
	for _, cand := range cands {
		for _, def := range j.catalog.All() {
			if backfilled >= j.config.BackfillBatchSize || ctx.Err() != nil {
				return backfilled
			}

			key := evidence.SnapshotKey{User: cand.User, Course: cand.Course, Badge: def.ID}
			if _, ok := existing[key]; ok {
				continue
			}

			if err := j.backfillOne(ctx, key); err != nil {
				j.logger.Warn("snapshot backfill skipped",
					"user", key.User.String(),
					"badge", key.Badge.String(),
					"error", err,
				)
				continue
			}
			backfilled++
		}
	}
	return backfilled
}

func (j *ReconcileEvidenceJob) backfillOne(ctx context.Context, key evidence.SnapshotKey) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.EntryTimeout)
	defer cancel()

	_, err := j.reader.Recompute(ctx, key)
	return err
}

type reconcileOutcome int

const (
	outcomeClean reconcileOutcome = iota
	outcomeHealed
	outcomePruned
)

func (j *ReconcileEvidenceJob) reconcileOne(ctx context.Context, key evidence.SnapshotKey) (reconcileOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, j.config.EntryTimeout)
	defer cancel()

	// Orphan check first: a vanished user or course means the snapshot goes
	// away regardless of its content.
	userOK, err := j.courses.UserExists(ctx, key.User)
	if err != nil {
		return outcomeClean, err
	}
	courseOK := true
	if userOK {
		courseOK, err = j.courses.CourseExists(ctx, key.Course)
		if err != nil {
			return outcomeClean, err
		}
	}
	if !userOK || !courseOK {
		if err := j.snapshots.Delete(ctx, key); err != nil && !shared.IsNotFound(err) {
			return outcomeClean, err
		}
		if j.hot != nil {
			_ = j.hot.Delete(ctx, key)
		}
		return outcomePruned, nil
	}

	stored, err := j.snapshots.Get(ctx, key)
	if err != nil {
		if shared.IsNotFound(err) || shared.IsCorruptData(err) {
			// Gone or unreadable: rebuild outright.
			if _, err := j.reader.Recompute(ctx, key); err != nil {
				return outcomeClean, err
			}
			return outcomeHealed, nil
		}
		return outcomeClean, err
	}

	fresh, err := j.reader.Derive(ctx, key)
	if err != nil {
		return outcomeClean, err
	}

	if stored.EqualDerivation(fresh) {
		return outcomeClean, nil
	}

	// Drift: the fresh derivation wins, snapshots are never authoritative.
	if _, err := j.reader.Recompute(ctx, key); err != nil {
		return outcomeClean, err
	}
	return outcomeHealed, nil
}

// sampleKeys picks up to n keys uniformly at random without mutating the
// input order.
func sampleKeys(keys []evidence.SnapshotKey, n int) []evidence.SnapshotKey {
	if len(keys) <= n {
		out := make([]evidence.SnapshotKey, len(keys))
		copy(out, keys)
		return out
	}

	perm := rand.Perm(len(keys))
	out := make([]evidence.SnapshotKey, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, keys[idx])
	}
	return out
}
