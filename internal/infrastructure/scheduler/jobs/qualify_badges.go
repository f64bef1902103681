// Package jobs contains the scheduled jobs of the badge engine: the periodic
// qualification run and the evidence reconciliation pass.
package jobs

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/learnhub/badge-engine/internal/application/engine"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUALIFY BADGES JOB
// ══════════════════════════════════════════════════════════════════════════════

// QualifyBadgesJob runs one full qualification pass over all active
// candidates. Overlapping runs are allowed: the ledger's uniqueness
// constraints absorb any duplicate outcome, so the job does not hold a lock.
type QualifyBadgesJob struct {
	engine *engine.Engine
	logger *slog.Logger

	// State (for metrics)
	lastSummary atomic.Value // *RunStats
}

// RunStats contains statistics from a qualification run.
type RunStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Awarded     int
	Skipped     int
	Errors      int
}

// NewQualifyBadgesJob creates the qualification job.
func NewQualifyBadgesJob(eng *engine.Engine, logger *slog.Logger) *QualifyBadgesJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &QualifyBadgesJob{engine: eng, logger: logger}
}

// Name implements scheduler.Job.
func (j *QualifyBadgesJob) Name() string {
	return "qualify_badges"
}

// Description implements scheduler.Job.
func (j *QualifyBadgesJob) Description() string {
	return "Evaluates all badge rules for active learners and commits new awards"
}

// Run implements scheduler.Job.
func (j *QualifyBadgesJob) Run(ctx context.Context) error {
	startedAt := time.Now()

	summary, err := j.engine.Run(ctx)

	stats := &RunStats{
		StartedAt:   startedAt,
		CompletedAt: time.Now(),
		Duration:    time.Since(startedAt),
		Awarded:     summary.Awarded,
		Skipped:     summary.Skipped,
		Errors:      summary.Errors,
	}
	j.lastSummary.Store(stats)

	if err != nil {
		// Partial progress is already committed; the next tick picks up the
		// rest.
		j.logger.Error("qualification run aborted",
			"awarded", summary.Awarded,
			"errors", summary.Errors,
			"error", err,
		)
		return err
	}
	return nil
}

// LastStats returns the stats of the most recent run, or nil before the
// first one.
func (j *QualifyBadgesJob) LastStats() *RunStats {
	v, _ := j.lastSummary.Load().(*RunStats)
	return v
}
