package query

import (
	"context"
	"time"

	"github.com/learnhub/badge-engine/internal/domain/award"
	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AWARD HISTORY
// ══════════════════════════════════════════════════════════════════════════════

// AwardView is the read model of one committed award.
type AwardView struct {
	BadgeID    string    `json:"badge_id"`
	CourseID   string    `json:"course_id"`
	Occurrence int       `json:"occurrence"`
	Coins      int       `json:"coins"`
	XP         int       `json:"xp"`
	AwardedAt  time.Time `json:"awarded_at"`
}

// AwardHistoryResult is the response of an award history query.
type AwardHistoryResult struct {
	UserID string      `json:"user_id"`
	Awards []AwardView `json:"awards"`
	XP     int         `json:"xp_balance"`
}

// AwardHistory reads a user's committed awards and XP balance from the
// ledger. It is a pure read side: no derivation, no cache.
type AwardHistory struct {
	ledger award.Ledger
	xp     award.XPStore
}

// NewAwardHistory creates the award history query handler.
func NewAwardHistory(ledger award.Ledger, xp award.XPStore) *AwardHistory {
	return &AwardHistory{ledger: ledger, xp: xp}
}

// ListByCourse returns the user's awards in one course, occurrence order,
// together with the cumulative XP balance.
func (q *AwardHistory) ListByCourse(ctx context.Context, user shared.UserID, course shared.CourseID) (AwardHistoryResult, error) {
	records, err := q.ledger.ListByUserCourse(ctx, user, course)
	if err != nil {
		return AwardHistoryResult{}, err
	}

	balance, err := q.xp.Balance(ctx, user)
	if err != nil {
		return AwardHistoryResult{}, err
	}

	views := make([]AwardView, 0, len(records))
	for _, rec := range records {
		views = append(views, AwardView{
			BadgeID:    rec.BadgeID.String(),
			CourseID:   rec.CourseID.String(),
			Occurrence: rec.Occurrence.Int(),
			Coins:      rec.Coins.Int(),
			XP:         rec.XP.Int(),
			AwardedAt:  rec.AwardedAt,
		})
	}

	return AwardHistoryResult{
		UserID: user.String(),
		Awards: views,
		XP:     balance.Int(),
	}, nil
}
