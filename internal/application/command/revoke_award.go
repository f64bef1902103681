// Package command holds the explicit, operator-initiated write operations:
// award revocation and the one-time legacy evidence migration. Everything
// here is invoked by an admin or a deploy step, never by the scheduler.
package command

import (
	"context"
	"log/slog"

	"github.com/learnhub/badge-engine/internal/application/engine"
	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// RevokeAward removes a user's award records for one badge in one course.
// Consumed evidence stays marked, so the same evidence cannot silently
// re-qualify on the next engine tick; XP already credited is never retracted.
type RevokeAward struct {
	engine *engine.Engine
	logger *slog.Logger
}

// NewRevokeAward creates the revocation command.
func NewRevokeAward(eng *engine.Engine, logger *slog.Logger) *RevokeAward {
	if logger == nil {
		logger = slog.Default()
	}
	return &RevokeAward{engine: eng, logger: logger}
}

// Execute revokes the award and reports how many records were removed.
// Revoking a never-awarded badge is a no-op, not an error.
func (c *RevokeAward) Execute(ctx context.Context, user shared.UserID, badge shared.BadgeID, course shared.CourseID, reason string) (int, error) {
	removed, err := c.engine.Revoke(ctx, user, badge, course, reason)
	if err != nil {
		return 0, err
	}
	c.logger.Info("award revoked",
		"user", user.String(),
		"badge", badge.String(),
		"course", course.String(),
		"reason", reason,
		"removed", removed,
	)
	return removed, nil
}
