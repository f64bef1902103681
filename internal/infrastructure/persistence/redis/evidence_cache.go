// Package redis implements the hot tier of the badge engine's caching.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/learnhub/badge-engine/internal/domain/evidence"
	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// HOT EVIDENCE CACHE
// ══════════════════════════════════════════════════════════════════════════════

// EvidenceCache implements query.HotCache: raw encoded snapshots keyed by
// (user, course, badge) with a staleness-bounding TTL. It stores bytes, not
// decoded snapshots, so a corrupt entry surfaces at decode time where the
// read path already treats it as a miss.
type EvidenceCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewEvidenceCache creates an EvidenceCache. A non-positive ttl falls back to
// TTLEvidenceCache.
func NewEvidenceCache(cache *Cache, ttl time.Duration) *EvidenceCache {
	if ttl <= 0 {
		ttl = TTLEvidenceCache
	}
	return &EvidenceCache{cache: cache, ttl: ttl}
}

// Get returns the cached snapshot bytes, shared.ErrNotFound on a miss.
func (e *EvidenceCache) Get(ctx context.Context, key evidence.SnapshotKey) ([]byte, error) {
	data, err := e.cache.GetBytes(ctx, e.key(key))
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.ErrSnapshotNotFound
		}
		return nil, shared.WrapError("evidence", "HotGet", shared.ErrServiceUnavailable, "hot cache read failed", err)
	}
	return data, nil
}

// Set stores the snapshot bytes under the cache TTL.
func (e *EvidenceCache) Set(ctx context.Context, key evidence.SnapshotKey, data []byte) error {
	if err := e.cache.SetBytes(ctx, e.key(key), data, e.ttl); err != nil {
		return shared.WrapError("evidence", "HotSet", shared.ErrServiceUnavailable, "hot cache write failed", err)
	}
	return nil
}

// Delete drops the cached snapshot. Absent keys are a no-op.
func (e *EvidenceCache) Delete(ctx context.Context, key evidence.SnapshotKey) error {
	if err := e.cache.Delete(ctx, e.key(key)); err != nil {
		return shared.WrapError("evidence", "HotDelete", shared.ErrServiceUnavailable, "hot cache delete failed", err)
	}
	return nil
}

func (e *EvidenceCache) key(key evidence.SnapshotKey) string {
	return EvidenceKey(key.User.String(), key.Course.String(), key.Badge.String())
}
