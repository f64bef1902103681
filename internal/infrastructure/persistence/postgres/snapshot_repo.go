// Package postgres implements the PostgreSQL persistence layer for the badge
// engine.
package postgres

import (
	"context"
	"time"

	"github.com/learnhub/badge-engine/internal/domain/evidence"
	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DURABLE SNAPSHOT STORE IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotRepository implements evidence.SnapshotStore for PostgreSQL. Rows
// are pure cache: an undecodable payload decodes to ErrCorruptData and the
// caller recomputes instead of failing.
type SnapshotRepository struct {
	conn *Connection
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(conn *Connection) *SnapshotRepository {
	return &SnapshotRepository{conn: conn}
}

// Get returns the stored snapshot for a key.
func (r *SnapshotRepository) Get(ctx context.Context, key evidence.SnapshotKey) (evidence.Snapshot, error) {
	query := `
		SELECT payload FROM evidence_snapshots
		WHERE user_id = $1 AND course_id = $2 AND badge_id = $3
	`

	var payload []byte
	err := r.conn.QueryRow(ctx, query,
		key.User.String(), key.Course.String(), key.Badge.String()).Scan(&payload)
	if err != nil {
		if IsNoRows(err) {
			return evidence.Snapshot{}, shared.ErrSnapshotNotFound
		}
		return evidence.Snapshot{}, shared.WrapError("evidence", "Get", shared.ErrStorageUnavailable, "snapshot query failed", err)
	}

	return evidence.DecodeSnapshot(payload)
}

// Put stores the snapshot, last-writer-wins.
func (r *SnapshotRepository) Put(ctx context.Context, snap evidence.Snapshot) error {
	payload, err := snap.Encode()
	if err != nil {
		return shared.WrapError("evidence", "Put", shared.ErrInvalidInput, "snapshot encode failed", err)
	}

	query := `
		INSERT INTO evidence_snapshots (user_id, course_id, badge_id, schema_version, payload, derived_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id, course_id, badge_id) DO UPDATE
		SET schema_version = EXCLUDED.schema_version,
		    payload = EXCLUDED.payload,
		    derived_at = EXCLUDED.derived_at,
		    updated_at = NOW()
	`

	_, err = r.conn.Exec(ctx, query,
		snap.UserID.String(), snap.CourseID.String(), snap.BadgeID.String(),
		snap.SchemaVersion, payload, snap.DerivedAt)
	if err != nil {
		return shared.WrapError("evidence", "Put", shared.ErrStorageUnavailable, "snapshot upsert failed", err)
	}
	return nil
}

// Delete removes a snapshot. Deleting an absent snapshot is a no-op.
func (r *SnapshotRepository) Delete(ctx context.Context, key evidence.SnapshotKey) error {
	query := `
		DELETE FROM evidence_snapshots
		WHERE user_id = $1 AND course_id = $2 AND badge_id = $3
	`

	_, err := r.conn.Exec(ctx, query,
		key.User.String(), key.Course.String(), key.Badge.String())
	if err != nil {
		return shared.WrapError("evidence", "Delete", shared.ErrStorageUnavailable, "snapshot delete failed", err)
	}
	return nil
}

// Keys lists all stored snapshot keys, oldest first, for reconciler sampling.
func (r *SnapshotRepository) Keys(ctx context.Context) ([]evidence.SnapshotKey, error) {
	query := `
		SELECT user_id, course_id, badge_id FROM evidence_snapshots
		ORDER BY updated_at
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, shared.WrapError("evidence", "Keys", shared.ErrStorageUnavailable, "snapshot key scan failed", err)
	}
	defer rows.Close()

	keys := make([]evidence.SnapshotKey, 0)
	for rows.Next() {
		var user, course, badge string
		if err := rows.Scan(&user, &course, &badge); err != nil {
			return nil, shared.WrapError("evidence", "Keys", shared.ErrStorageUnavailable, "snapshot key scan failed", err)
		}
		keys = append(keys, evidence.SnapshotKey{
			User:   shared.UserID(user),
			Course: shared.CourseID(course),
			Badge:  shared.BadgeID(badge),
		})
	}

	return keys, rows.Err()
}

// Touch bumps updated_at without rewriting the payload, letting the
// reconciler rotate its sampling window.
func (r *SnapshotRepository) Touch(ctx context.Context, key evidence.SnapshotKey, at time.Time) error {
	query := `
		UPDATE evidence_snapshots SET updated_at = $4
		WHERE user_id = $1 AND course_id = $2 AND badge_id = $3
	`

	_, err := r.conn.Exec(ctx, query,
		key.User.String(), key.Course.String(), key.Badge.String(), at)
	if err != nil {
		return shared.WrapError("evidence", "Touch", shared.ErrStorageUnavailable, "snapshot touch failed", err)
	}
	return nil
}
