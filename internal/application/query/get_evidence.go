// Package query implements the on-demand read side of the badge engine:
// "why did I earn this" evidence lookups served from the snapshot cache and
// recomputed lazily on a miss.
package query

import (
	"context"
	"log/slog"
	"time"

	"github.com/learnhub/badge-engine/internal/application/source"
	"github.com/learnhub/badge-engine/internal/application/strategy"
	"github.com/learnhub/badge-engine/internal/domain/badge"
	"github.com/learnhub/badge-engine/internal/domain/evidence"
	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// HotCache is the fast snapshot cache layered in front of the durable
// snapshot store (redis in production). A miss returns shared.ErrNotFound.
type HotCache interface {
	Get(ctx context.Context, key evidence.SnapshotKey) ([]byte, error)
	Set(ctx context.Context, key evidence.SnapshotKey, data []byte) error
	Delete(ctx context.Context, key evidence.SnapshotKey) error
}

// EvidenceReader serves evidence snapshots: hot cache, then durable store,
// then a recompute through the same pure derivation the engine and the
// reconciler use. Reads never fail user-visibly: when everything is
// unavailable the caller gets an empty snapshot, not an error.
type EvidenceReader struct {
	catalog   *badge.Catalog
	registry  *strategy.Registry
	assembler *source.Assembler
	snapshots evidence.SnapshotStore
	hot       HotCache
	logger    *slog.Logger
}

// NewEvidenceReader creates an EvidenceReader. hot may be nil (no redis).
func NewEvidenceReader(
	catalog *badge.Catalog,
	registry *strategy.Registry,
	assembler *source.Assembler,
	snapshots evidence.SnapshotStore,
	hot HotCache,
	logger *slog.Logger,
) *EvidenceReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvidenceReader{
		catalog:   catalog,
		registry:  registry,
		assembler: assembler,
		snapshots: snapshots,
		hot:       hot,
		logger:    logger,
	}
}

// Get returns the evidence snapshot for a (user, course, badge), computing
// and caching it on a miss. forceRecompute bypasses both cache tiers and
// overwrites them with a fresh derivation. A corrupt cached snapshot is
// discarded silently and recomputed, never surfaced as an error.
func (r *EvidenceReader) Get(ctx context.Context, user shared.UserID, course shared.CourseID, badgeID shared.BadgeID, forceRecompute bool) (evidence.Snapshot, error) {
	key := evidence.SnapshotKey{User: user, Course: course, Badge: badgeID}

	if !forceRecompute {
		if snap, ok := r.fromHot(ctx, key); ok {
			return snap, nil
		}
		snap, err := r.snapshots.Get(ctx, key)
		switch {
		case err == nil:
			r.backfillHot(ctx, key, snap)
			return snap, nil
		case shared.IsCorruptData(err):
			r.logger.Warn("discarding corrupt evidence snapshot",
				"user", user.String(), "badge", badgeID.String())
		case !shared.IsNotFound(err):
			r.logger.Warn("snapshot store read failed, falling back to recompute",
				"user", user.String(), "badge", badgeID.String(), "error", err)
		}
	}

	return r.recompute(ctx, key)
}

// Recompute is the forced-derivation entry point used by the reconciler.
func (r *EvidenceReader) Recompute(ctx context.Context, key evidence.SnapshotKey) (evidence.Snapshot, error) {
	return r.recompute(ctx, key)
}

// Derive recomputes a snapshot without persisting it, for drift comparison.
func (r *EvidenceReader) Derive(ctx context.Context, key evidence.SnapshotKey) (evidence.Snapshot, error) {
	def, err := r.catalog.Get(key.Badge)
	if err != nil {
		return evidence.Snapshot{}, err
	}
	sourceData, err := r.assembler.Assemble(ctx, key.User, key.Course, []badge.Definition{def})
	if err != nil {
		return evidence.Snapshot{}, err
	}
	groups, err := strategy.DeriveEvidence(r.registry, strategy.Input{
		User:   key.User,
		Course: key.Course,
		Def:    def,
		Source: sourceData,
	})
	if err != nil {
		return evidence.Snapshot{}, err
	}
	return evidence.NewSnapshot(key.User, key.Course, key.Badge, groups, time.Now()), nil
}

func (r *EvidenceReader) recompute(ctx context.Context, key evidence.SnapshotKey) (evidence.Snapshot, error) {
	snap, err := r.Derive(ctx, key)
	if err != nil {
		if shared.IsSourceFailure(err) {
			// Graceful degradation: the UI shows "no evidence" and the next
			// read retries, the same contract as a plain miss.
			r.logger.Warn("evidence recompute degraded to empty snapshot",
				"user", key.User.String(), "badge", key.Badge.String(), "error", err)
			return evidence.NewSnapshot(key.User, key.Course, key.Badge, nil, time.Now()), nil
		}
		return evidence.Snapshot{}, err
	}

	if err := r.snapshots.Put(ctx, snap); err != nil {
		r.logger.Warn("snapshot store write failed", "error", err)
	}
	r.backfillHot(ctx, key, snap)
	return snap, nil
}

func (r *EvidenceReader) fromHot(ctx context.Context, key evidence.SnapshotKey) (evidence.Snapshot, bool) {
	if r.hot == nil {
		return evidence.Snapshot{}, false
	}
	data, err := r.hot.Get(ctx, key)
	if err != nil {
		return evidence.Snapshot{}, false
	}
	snap, err := evidence.DecodeSnapshot(data)
	if err != nil {
		// Corrupt hot entry: drop it and let the slower tiers answer.
		_ = r.hot.Delete(ctx, key)
		return evidence.Snapshot{}, false
	}
	return snap, true
}

func (r *EvidenceReader) backfillHot(ctx context.Context, key evidence.SnapshotKey, snap evidence.Snapshot) {
	if r.hot == nil {
		return
	}
	data, err := snap.Encode()
	if err != nil {
		return
	}
	if err := r.hot.Set(ctx, key, data); err != nil {
		r.logger.Debug("hot cache backfill failed", "error", err)
	}
}
