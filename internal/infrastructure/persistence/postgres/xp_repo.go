// Package postgres implements the PostgreSQL persistence layer for the badge
// engine.
package postgres

import (
	"context"

	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// XP BALANCE STORE IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// XPRepository implements award.XPStore for PostgreSQL. Balances only ever
// increase; there is no debit path at the storage level.
type XPRepository struct {
	conn *Connection
}

// NewXPRepository creates a new XPRepository.
func NewXPRepository(conn *Connection) *XPRepository {
	return &XPRepository{conn: conn}
}

// Credit adds XP to the user's balance, creating the row on first credit.
func (r *XPRepository) Credit(ctx context.Context, user shared.UserID, amount shared.XP) error {
	if amount < 0 {
		return shared.ErrNegativeXPChange
	}
	if amount == 0 {
		return nil
	}

	query := `
		INSERT INTO xp_balances (user_id, balance, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET balance = xp_balances.balance + EXCLUDED.balance,
		    updated_at = NOW()
	`

	_, err := r.conn.Exec(ctx, query, user.String(), amount.Int())
	if err != nil {
		return shared.WrapError("award", "CreditXP", shared.ErrStorageUnavailable, "xp credit failed", err)
	}
	return nil
}

// Balance returns the user's cumulative XP. An unknown user has balance 0.
func (r *XPRepository) Balance(ctx context.Context, user shared.UserID) (shared.XP, error) {
	query := `SELECT balance FROM xp_balances WHERE user_id = $1`

	var balance int64
	err := r.conn.QueryRow(ctx, query, user.String()).Scan(&balance)
	if err != nil {
		if IsNoRows(err) {
			return 0, nil
		}
		return 0, shared.WrapError("award", "BalanceXP", shared.ErrStorageUnavailable, "xp balance query failed", err)
	}
	return shared.XP(balance), nil
}
