// Package postgres implements the PostgreSQL persistence layer for the badge
// engine.
package postgres

import (
	"context"
	"time"

	"github.com/learnhub/badge-engine/internal/domain/award"
	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AWARD LEDGER IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AwardRepository implements award.Ledger for PostgreSQL. Every write goes
// through ON CONFLICT DO NOTHING against the partial unique indexes; no
// advisory locks, no SELECT-then-INSERT.
type AwardRepository struct {
	conn *Connection
}

// NewAwardRepository creates a new AwardRepository.
func NewAwardRepository(conn *Connection) *AwardRepository {
	return &AwardRepository{conn: conn}
}

// TryAward inserts the record unless an equivalent one already exists. The
// occurrence index is derived inside the insert (max existing + 1), never
// taken from rec, so two overlapping runs discovering different fingerprints
// cannot both commit the same index. The duplicate path returns the existing
// record's occurrence so callers can report the award the user actually
// holds.
func (r *AwardRepository) TryAward(ctx context.Context, rec award.Record) (award.TryAwardResult, error) {
	query := `
		INSERT INTO award_records (
			id, user_id, badge_id, course_id, occurrence, fingerprint,
			repeatable, coins, xp, awarded_at
		)
		SELECT $1, $2, $3, $4, COALESCE(MAX(occurrence), 0) + 1, $5, $6, $7, $8, $9
		FROM award_records
		WHERE user_id = $2 AND badge_id = $3 AND course_id = $4
		ON CONFLICT DO NOTHING
		RETURNING occurrence
	`

	var inserted int
	err := r.conn.QueryRow(ctx, query,
		rec.ID,
		rec.UserID.String(),
		rec.BadgeID.String(),
		rec.CourseID.String(),
		rec.Fingerprint,
		rec.Repeatable,
		rec.Coins.Int(),
		rec.XP.Int(),
		rec.AwardedAt,
	).Scan(&inserted)
	if err == nil {
		return award.TryAwardResult{Created: true, Occurrence: shared.Occurrence(inserted)}, nil
	}
	if !IsNoRows(err) {
		return award.TryAwardResult{}, shared.WrapError("award", "TryAward", shared.ErrStorageUnavailable, "ledger insert failed", err)
	}

	// Absorbed by a uniqueness constraint: resolve which occurrence the
	// colliding record holds.
	var existing int
	lookup := `
		SELECT occurrence FROM award_records
		WHERE user_id = $1 AND badge_id = $2 AND course_id = $3
		  AND (NOT repeatable OR fingerprint = $4)
		ORDER BY occurrence
		LIMIT 1
	`
	err = r.conn.QueryRow(ctx, lookup,
		rec.UserID.String(), rec.BadgeID.String(), rec.CourseID.String(), rec.Fingerprint,
	).Scan(&existing)
	if err != nil {
		if IsNoRows(err) {
			// Raced with a revoke between insert and lookup; report as
			// absorbed with the attempted occurrence.
			return award.TryAwardResult{Created: false, Occurrence: rec.Occurrence}, nil
		}
		return award.TryAwardResult{}, shared.WrapError("award", "TryAward", shared.ErrStorageUnavailable, "duplicate lookup failed", err)
	}

	return award.TryAwardResult{Created: false, Occurrence: shared.Occurrence(existing)}, nil
}

// ListByUserCourse returns all of a user's awards in a course, ordered by
// badge then occurrence.
func (r *AwardRepository) ListByUserCourse(ctx context.Context, user shared.UserID, course shared.CourseID) ([]award.Record, error) {
	query := `
		SELECT id, user_id, badge_id, course_id, occurrence, fingerprint,
			   repeatable, coins, xp, awarded_at
		FROM award_records
		WHERE user_id = $1 AND course_id = $2
		ORDER BY badge_id, occurrence
	`

	rows, err := r.conn.Query(ctx, query, user.String(), course.String())
	if err != nil {
		return nil, shared.WrapError("award", "ListByUserCourse", shared.ErrStorageUnavailable, "ledger query failed", err)
	}
	defer rows.Close()

	records := make([]award.Record, 0)
	for rows.Next() {
		var rec award.Record
		var userID, badgeID, courseID, fingerprint string
		var occurrence, coins, xp int
		var awardedAt time.Time

		if err := rows.Scan(&rec.ID, &userID, &badgeID, &courseID, &occurrence,
			&fingerprint, &rec.Repeatable, &coins, &xp, &awardedAt); err != nil {
			return nil, shared.WrapError("award", "ListByUserCourse", shared.ErrStorageUnavailable, "ledger scan failed", err)
		}

		rec.UserID = shared.UserID(userID)
		rec.BadgeID = shared.BadgeID(badgeID)
		rec.CourseID = shared.CourseID(courseID)
		rec.Occurrence = shared.Occurrence(occurrence)
		rec.Fingerprint = fingerprint
		rec.Coins = shared.Coins(coins)
		rec.XP = shared.XP(xp)
		rec.AwardedAt = awardedAt
		records = append(records, rec)
	}

	return records, rows.Err()
}

// SiblingAwards returns which of the given badges the user already holds in
// the course.
func (r *AwardRepository) SiblingAwards(ctx context.Context, user shared.UserID, course shared.CourseID, badges []shared.BadgeID) ([]shared.BadgeID, error) {
	if len(badges) == 0 {
		return nil, nil
	}

	ids := make([]string, len(badges))
	for i, b := range badges {
		ids[i] = b.String()
	}

	query := `
		SELECT DISTINCT badge_id FROM award_records
		WHERE user_id = $1 AND course_id = $2 AND badge_id = ANY($3)
	`

	rows, err := r.conn.Query(ctx, query, user.String(), course.String(), ids)
	if err != nil {
		return nil, shared.WrapError("award", "SiblingAwards", shared.ErrStorageUnavailable, "sibling query failed", err)
	}
	defer rows.Close()

	awarded := make([]shared.BadgeID, 0, len(badges))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, shared.WrapError("award", "SiblingAwards", shared.ErrStorageUnavailable, "sibling scan failed", err)
		}
		awarded = append(awarded, shared.BadgeID(id))
	}

	return awarded, rows.Err()
}

// CountOccurrences returns how many awards exist for the triple.
func (r *AwardRepository) CountOccurrences(ctx context.Context, user shared.UserID, badge shared.BadgeID, course shared.CourseID) (int, error) {
	query := `
		SELECT COUNT(*) FROM award_records
		WHERE user_id = $1 AND badge_id = $2 AND course_id = $3
	`

	var count int
	err := r.conn.QueryRow(ctx, query, user.String(), badge.String(), course.String()).Scan(&count)
	if err != nil {
		return 0, shared.WrapError("award", "CountOccurrences", shared.ErrStorageUnavailable, "occurrence count failed", err)
	}
	return count, nil
}

// Revoke deletes all records for the triple and reports how many were
// removed. The consumed-evidence rows are intentionally untouched.
func (r *AwardRepository) Revoke(ctx context.Context, user shared.UserID, badge shared.BadgeID, course shared.CourseID) (int, error) {
	query := `
		DELETE FROM award_records
		WHERE user_id = $1 AND badge_id = $2 AND course_id = $3
	`

	tag, err := r.conn.Exec(ctx, query, user.String(), badge.String(), course.String())
	if err != nil {
		return 0, shared.WrapError("award", "Revoke", shared.ErrStorageUnavailable, "ledger delete failed", err)
	}
	return int(tag.RowsAffected()), nil
}
