// Package postgres implements the PostgreSQL persistence layer for the badge
// engine.
package postgres

// GetMigrations returns all embedded migrations in version order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_award_ledger",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_evidence_tables",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_xp_and_legacy_kv",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE AWARD LEDGER
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create the award ledger
-- Version: 001
-- The partial unique indexes below are the idempotency mechanism: every
-- engine write is INSERT ... ON CONFLICT DO NOTHING against them.

CREATE TABLE IF NOT EXISTS award_records (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL,
    badge_id VARCHAR(64) NOT NULL,
    course_id VARCHAR(64) NOT NULL,
    occurrence INTEGER NOT NULL DEFAULT 1,
    fingerprint CHAR(64) NOT NULL,
    repeatable BOOLEAN NOT NULL DEFAULT FALSE,
    coins INTEGER NOT NULL DEFAULT 0,
    xp INTEGER NOT NULL DEFAULT 0,
    awarded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_occurrence CHECK (occurrence >= 1),
    CONSTRAINT valid_coins CHECK (coins >= 0),
    CONSTRAINT valid_xp CHECK (xp >= 0)
);

-- Non-repeatable badges: at most one record per (user, badge, course).
CREATE UNIQUE INDEX IF NOT EXISTS uq_award_records_once
    ON award_records(user_id, badge_id, course_id) WHERE NOT repeatable;

-- Repeatable badges: at most one record per evidence fingerprint, so the
-- same occurrence can never be recorded twice even across concurrent runs.
CREATE UNIQUE INDEX IF NOT EXISTS uq_award_records_fingerprint
    ON award_records(user_id, badge_id, course_id, fingerprint) WHERE repeatable;

CREATE INDEX IF NOT EXISTS idx_award_records_user_course
    ON award_records(user_id, course_id);
CREATE INDEX IF NOT EXISTS idx_award_records_triple
    ON award_records(user_id, badge_id, course_id);
CREATE INDEX IF NOT EXISTS idx_award_records_awarded_at
    ON award_records(awarded_at DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS award_records;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE EVIDENCE TABLES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Consumed-evidence sets and durable snapshots
-- Version: 002

-- Append-only set of evidence item IDs already credited toward a badge.
-- One row per item; re-inserts are absorbed by the primary key.
CREATE TABLE IF NOT EXISTS consumed_evidence (
    user_id UUID NOT NULL,
    badge_id VARCHAR(64) NOT NULL,
    course_id VARCHAR(64) NOT NULL,
    item_id VARCHAR(255) NOT NULL,
    consumed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (user_id, badge_id, course_id, item_id)
);

CREATE INDEX IF NOT EXISTS idx_consumed_evidence_triple
    ON consumed_evidence(user_id, badge_id, course_id);

-- Durable evidence snapshots. Pure cache: any row here must be reproducible
-- from source data, and a corrupt payload is recomputed, never repaired.
CREATE TABLE IF NOT EXISTS evidence_snapshots (
    user_id UUID NOT NULL,
    course_id VARCHAR(64) NOT NULL,
    badge_id VARCHAR(64) NOT NULL,
    schema_version INTEGER NOT NULL DEFAULT 1,
    payload JSONB NOT NULL,
    derived_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (user_id, course_id, badge_id)
);

CREATE INDEX IF NOT EXISTS idx_evidence_snapshots_updated
    ON evidence_snapshots(updated_at);
`

const migration002Down = `
DROP TABLE IF EXISTS evidence_snapshots;
DROP TABLE IF EXISTS consumed_evidence;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE XP BALANCES AND LEGACY KV
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: XP balances and the inherited key-value table
-- Version: 003

-- Derived, monotonic XP balance per user. Credits only; revocation never
-- subtracts.
CREATE TABLE IF NOT EXISTS xp_balances (
    user_id UUID PRIMARY KEY,
    balance BIGINT NOT NULL DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_balance CHECK (balance >= 0)
);

-- The previous system's generic key-value table, kept only as the source for
-- the one-time consumed-evidence migration. New code never writes here.
CREATE TABLE IF NOT EXISTS legacy_kv (
    key VARCHAR(512) PRIMARY KEY,
    value TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const migration003Down = `
DROP TABLE IF EXISTS legacy_kv;
DROP TABLE IF EXISTS xp_balances;
`
