// Package postgres implements the PostgreSQL persistence layer for the badge
// engine.
package postgres

import (
	"context"

	"github.com/learnhub/badge-engine/internal/application/command"
	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEGACY KEY-VALUE STORE IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LegacyKVRepository implements command.LegacyStore over the inherited
// legacy_kv table. Read-and-delete only; nothing in the engine writes here.
type LegacyKVRepository struct {
	conn *Connection
}

// NewLegacyKVRepository creates a new LegacyKVRepository.
func NewLegacyKVRepository(conn *Connection) *LegacyKVRepository {
	return &LegacyKVRepository{conn: conn}
}

// ListByPrefix returns all pairs whose key starts with prefix, key order.
func (r *LegacyKVRepository) ListByPrefix(ctx context.Context, prefix string) ([]command.KVPair, error) {
	query := `
		SELECT key, value FROM legacy_kv
		WHERE key LIKE $1 || '%'
		ORDER BY key
	`

	rows, err := r.conn.Query(ctx, query, prefix)
	if err != nil {
		return nil, shared.WrapError("legacy", "ListByPrefix", shared.ErrStorageUnavailable, "legacy scan failed", err)
	}
	defer rows.Close()

	pairs := make([]command.KVPair, 0)
	for rows.Next() {
		var p command.KVPair
		if err := rows.Scan(&p.Key, &p.Value); err != nil {
			return nil, shared.WrapError("legacy", "ListByPrefix", shared.ErrStorageUnavailable, "legacy scan failed", err)
		}
		pairs = append(pairs, p)
	}

	return pairs, rows.Err()
}

// Delete removes a migrated key. Deleting an absent key is a no-op.
func (r *LegacyKVRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM legacy_kv WHERE key = $1`

	_, err := r.conn.Exec(ctx, query, key)
	if err != nil {
		return shared.WrapError("legacy", "Delete", shared.ErrStorageUnavailable, "legacy delete failed", err)
	}
	return nil
}
