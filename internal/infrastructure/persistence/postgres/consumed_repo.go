// Package postgres implements the PostgreSQL persistence layer for the badge
// engine.
package postgres

import (
	"context"

	"github.com/learnhub/badge-engine/internal/domain/award"
	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONSUMED-EVIDENCE STORE IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ConsumedRepository implements award.ConsumedStore for PostgreSQL. The table
// is append-only in normal operation; only the admin Clear path deletes.
type ConsumedRepository struct {
	conn *Connection
}

// NewConsumedRepository creates a new ConsumedRepository.
func NewConsumedRepository(conn *Connection) *ConsumedRepository {
	return &ConsumedRepository{conn: conn}
}

// MarkConsumed appends items to the set. Re-adding a present item is absorbed
// by the primary key, so the call is idempotent and safe to use for healing
// after a crash between ledger insert and consumed write.
func (r *ConsumedRepository) MarkConsumed(ctx context.Context, user shared.UserID, badge shared.BadgeID, course shared.CourseID, items []shared.ItemID) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO consumed_evidence (user_id, badge_id, course_id, item_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING
	`

	for _, item := range items {
		_, err := r.conn.Exec(ctx, query,
			user.String(), badge.String(), course.String(), item.String())
		if err != nil {
			return shared.WrapError("award", "MarkConsumed", shared.ErrStorageUnavailable, "consumed insert failed", err)
		}
	}
	return nil
}

// IsConsumed reports membership of a single item.
func (r *ConsumedRepository) IsConsumed(ctx context.Context, user shared.UserID, badge shared.BadgeID, course shared.CourseID, item shared.ItemID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM consumed_evidence
			WHERE user_id = $1 AND badge_id = $2 AND course_id = $3 AND item_id = $4
		)
	`

	var exists bool
	err := r.conn.QueryRow(ctx, query,
		user.String(), badge.String(), course.String(), item.String()).Scan(&exists)
	if err != nil {
		return false, shared.WrapError("award", "IsConsumed", shared.ErrStorageUnavailable, "consumed lookup failed", err)
	}
	return exists, nil
}

// GetSet loads the full consumed set for a triple.
func (r *ConsumedRepository) GetSet(ctx context.Context, user shared.UserID, badge shared.BadgeID, course shared.CourseID) (award.ConsumedSet, error) {
	query := `
		SELECT item_id FROM consumed_evidence
		WHERE user_id = $1 AND badge_id = $2 AND course_id = $3
	`

	rows, err := r.conn.Query(ctx, query, user.String(), badge.String(), course.String())
	if err != nil {
		return award.ConsumedSet{}, shared.WrapError("award", "GetSet", shared.ErrStorageUnavailable, "consumed query failed", err)
	}
	defer rows.Close()

	items := make([]shared.ItemID, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return award.ConsumedSet{}, shared.WrapError("award", "GetSet", shared.ErrStorageUnavailable, "consumed scan failed", err)
		}
		items = append(items, shared.ItemID(id))
	}
	if err := rows.Err(); err != nil {
		return award.ConsumedSet{}, shared.WrapError("award", "GetSet", shared.ErrStorageUnavailable, "consumed iteration failed", err)
	}

	return award.NewConsumedSet(user, badge, course, items), nil
}

// Clear removes the whole set for a triple. Admin-only companion to Revoke.
func (r *ConsumedRepository) Clear(ctx context.Context, user shared.UserID, badge shared.BadgeID, course shared.CourseID) error {
	query := `
		DELETE FROM consumed_evidence
		WHERE user_id = $1 AND badge_id = $2 AND course_id = $3
	`

	_, err := r.conn.Exec(ctx, query, user.String(), badge.String(), course.String())
	if err != nil {
		return shared.WrapError("award", "Clear", shared.ErrStorageUnavailable, "consumed delete failed", err)
	}
	return nil
}
