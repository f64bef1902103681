package command

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/learnhub/badge-engine/internal/domain/award"
	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// legacyPrefix namespaces the consumed-evidence entries inside the shared
// key-value table the previous system wrote everything into.
const legacyPrefix = "badge_consumed:"

// KVPair is one row of the legacy key-value store.
type KVPair struct {
	Key   string
	Value string
}

// LegacyStore reads the previous system's key-value rows.
type LegacyStore interface {
	// ListByPrefix returns all pairs whose key starts with prefix.
	ListByPrefix(ctx context.Context, prefix string) ([]KVPair, error)

	// Delete removes a key after successful migration.
	Delete(ctx context.Context, key string) error
}

// MigrationReport summarizes one migration pass.
type MigrationReport struct {
	Migrated int // entries converted into consumed-set rows
	Skipped  int // malformed entries left in place and logged
}

// MigrateLegacyEvidence is the one-time import of consumed-evidence sets from
// the previous system's serialized strings into first-class consumed rows.
// The old system stored one string per (user, badge, course) under
// "badge_consumed:<user>:<badge>:<course>", in whichever of three formats the
// writing code path happened to use: a pipe-delimited list, a comma-separated
// list, or a JSON array of strings.
type MigrateLegacyEvidence struct {
	legacy   LegacyStore
	consumed award.ConsumedStore
	logger   *slog.Logger
}

// NewMigrateLegacyEvidence creates the migration command.
func NewMigrateLegacyEvidence(legacy LegacyStore, consumed award.ConsumedStore, logger *slog.Logger) *MigrateLegacyEvidence {
	if logger == nil {
		logger = slog.Default()
	}
	return &MigrateLegacyEvidence{legacy: legacy, consumed: consumed, logger: logger}
}

// Execute migrates every legacy entry it can parse. Malformed keys or values
// are logged and skipped, never fatal: the pass is re-runnable and marking
// already-present items consumed again is a no-op.
func (c *MigrateLegacyEvidence) Execute(ctx context.Context) (MigrationReport, error) {
	var report MigrationReport

	pairs, err := c.legacy.ListByPrefix(ctx, legacyPrefix)
	if err != nil {
		return report, shared.WrapError("command", "MigrateLegacyEvidence", shared.ErrStorageUnavailable, "legacy store scan failed", err)
	}

	for _, pair := range pairs {
		user, badgeID, course, err := parseLegacyKey(pair.Key)
		if err != nil {
			c.logger.Warn("skipping malformed legacy key", "key", pair.Key, "error", err)
			report.Skipped++
			continue
		}

		items, err := parseLegacyItems(pair.Value)
		if err != nil {
			c.logger.Warn("skipping unparseable legacy value", "key", pair.Key, "error", err)
			report.Skipped++
			continue
		}
		if len(items) == 0 {
			report.Skipped++
			continue
		}

		if err := c.consumed.MarkConsumed(ctx, user, badgeID, course, items); err != nil {
			// Storage trouble mid-pass: stop and let the operator re-run.
			return report, err
		}
		if err := c.legacy.Delete(ctx, pair.Key); err != nil {
			c.logger.Warn("migrated entry not deleted from legacy store", "key", pair.Key, "error", err)
		}
		report.Migrated++
	}

	c.logger.Info("legacy evidence migration finished",
		"migrated", report.Migrated, "skipped", report.Skipped)
	return report, nil
}

// parseLegacyKey splits "badge_consumed:<user>:<badge>:<course>".
func parseLegacyKey(key string) (shared.UserID, shared.BadgeID, shared.CourseID, error) {
	rest, ok := strings.CutPrefix(key, legacyPrefix)
	if !ok {
		return "", "", "", shared.NewDomainError("command", "parseLegacyKey", shared.ErrInvalidInput, "unexpected key prefix")
	}
	parts := strings.Split(rest, ":")
	if len(parts) != 3 {
		return "", "", "", shared.NewDomainError("command", "parseLegacyKey", shared.ErrInvalidInput, "key does not have user:badge:course shape")
	}
	user, err := shared.NewUserID(parts[0])
	if err != nil {
		return "", "", "", err
	}
	badgeID, err := shared.NewBadgeID(parts[1])
	if err != nil {
		return "", "", "", err
	}
	course, err := shared.NewCourseID(parts[2])
	if err != nil {
		return "", "", "", err
	}
	return user, badgeID, course, nil
}

// parseLegacyItems decodes a legacy serialized item-ID list. JSON arrays are
// tried first (they are self-describing), then pipe-delimited, then CSV.
func parseLegacyItems(value string) ([]shared.ItemID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	if strings.HasPrefix(value, "[") {
		var raw []string
		if err := json.Unmarshal([]byte(value), &raw); err != nil {
			return nil, shared.WrapError("command", "parseLegacyItems", shared.ErrInvalidInput, "invalid JSON array", err)
		}
		return toItemIDs(raw)
	}

	sep := ","
	if strings.Contains(value, "|") {
		sep = "|"
	}
	return toItemIDs(strings.Split(value, sep))
}

func toItemIDs(raw []string) ([]shared.ItemID, error) {
	items := make([]shared.ItemID, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := shared.NewItemID(s)
		if err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	return items, nil
}
