// Package engine implements the badge qualification engine: the scheduled
// entry point that iterates active (user, course) candidates, evaluates
// every active badge against the evidence sources and the consumed set, and
// commits qualifying outcomes to the award ledger.
//
// Concurrency model: one run partitions candidates by user across a bounded
// worker pool, so two workers never race on the same user's consumed set or
// ledger rows. Between overlapping runs (or against an on-demand recompute)
// the storage layer's uniqueness constraints are the sole correctness
// mechanism; every write is insert-if-absent.
package engine

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/learnhub/badge-engine/internal/application/source"
	"github.com/learnhub/badge-engine/internal/application/strategy"
	"github.com/learnhub/badge-engine/internal/domain/award"
	"github.com/learnhub/badge-engine/internal/domain/badge"
	"github.com/learnhub/badge-engine/internal/domain/evidence"
	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// Config contains engine tuning knobs.
type Config struct {
	// Workers is the worker pool size. Candidates partition across workers
	// by user hash; 1 means fully sequential.
	Workers int

	// RunTimeout bounds a single run. Zero disables the bound.
	RunTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:    4,
		RunTimeout: 10 * time.Minute,
	}
}

// Engine evaluates qualification rules and persists outcomes.
type Engine struct {
	catalog    *badge.Catalog
	registry   *strategy.Registry
	assembler  *source.Assembler
	candidates evidence.CandidateSource
	ledger     award.Ledger
	consumed   award.ConsumedStore
	xp         award.XPStore
	snapshots  evidence.SnapshotStore
	publisher  shared.EventPublisher
	logger     *slog.Logger
	config     Config
}

// New creates an Engine.
func New(
	catalog *badge.Catalog,
	registry *strategy.Registry,
	assembler *source.Assembler,
	candidates evidence.CandidateSource,
	ledger award.Ledger,
	consumed award.ConsumedStore,
	xp award.XPStore,
	snapshots evidence.SnapshotStore,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	config Config,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &Engine{
		catalog:    catalog,
		registry:   registry,
		assembler:  assembler,
		candidates: candidates,
		ledger:     ledger,
		consumed:   consumed,
		xp:         xp,
		snapshots:  snapshots,
		publisher:  publisher,
		logger:     logger,
		config:     config,
	}
}

// Run executes one full qualification pass. Per-(user,badge) failures are
// collected into the summary and never abort the run; only a storage outage
// does, and even then the partial summary is returned alongside the error.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	started := time.Now()
	if e.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.RunTimeout)
		defer cancel()
	}

	var summary Summary

	// Misconfigured badges are dropped for the whole run and logged once,
	// not once per user.
	defs := make([]badge.Definition, 0, e.catalog.Len())
	for _, def := range e.catalog.All() {
		if err := def.Validate(); err != nil {
			e.logger.Warn("skipping invalid badge definition for this run",
				"badge", def.ID.String(), "error", err)
			summary.Skipped++
			continue
		}
		if _, err := e.registry.For(def); err != nil {
			e.logger.Warn("no strategy registered for badge kind",
				"badge", def.ID.String(), "kind", def.Kind.String())
			summary.Skipped++
			continue
		}
		defs = append(defs, def)
	}

	candidates, err := e.candidates.ActiveCandidates(ctx)
	if err != nil {
		return summary, shared.WrapError("engine", "Run", shared.ErrServiceUnavailable, "candidate enumeration failed", err)
	}

	// Partition by user so a user's consumed set and ledger rows are only
	// ever touched by one worker within this run.
	buckets := make([][]evidence.Candidate, e.config.Workers)
	for _, c := range candidates {
		h := fnv.New32a()
		h.Write([]byte(c.User))
		idx := int(h.Sum32()) % e.config.Workers
		if idx < 0 {
			idx += e.config.Workers
		}
		buckets[idx] = append(buckets[idx], c)
	}

	results := make(chan Result, len(candidates)*len(defs)+1)
	var fatal error
	var fatalOnce sync.Once
	runCtx, abort := context.WithCancel(ctx)
	defer abort()

	var wg sync.WaitGroup
	for _, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		wg.Add(1)
		go func(bucket []evidence.Candidate) {
			defer wg.Done()
			for _, cand := range bucket {
				if runCtx.Err() != nil {
					return
				}
				for _, r := range e.processCandidate(runCtx, cand, defs) {
					if r.Err != nil && shared.IsStorageOutage(r.Err) {
						fatalOnce.Do(func() {
							fatal = r.Err
							abort()
						})
					}
					results <- r
				}
			}
		}(bucket)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		summary.add(r)
	}

	e.logger.Info("qualification run finished",
		"awarded", summary.Awarded,
		"skipped", summary.Skipped,
		"errors", summary.Errors,
		"candidates", len(candidates),
		"elapsed", time.Since(started).String(),
	)
	if e.publisher != nil {
		if err := e.publisher.Publish(shared.NewRunCompletedEvent(summary.Awarded, summary.Skipped, summary.Errors, time.Since(started))); err != nil {
			e.logger.Warn("failed to publish run summary event", "error", err)
		}
	}

	if fatal != nil {
		return summary, fatal
	}
	return summary, ctx.Err()
}

// processCandidate evaluates every valid badge for one (user, course).
func (e *Engine) processCandidate(ctx context.Context, cand evidence.Candidate, defs []badge.Definition) []Result {
	results := make([]Result, 0, len(defs))

	sourceData, err := e.assembler.Assemble(ctx, cand.User, cand.Course, defs)
	if err != nil {
		// Source unavailable: skip this candidate for every badge this run;
		// the next tick retries.
		for _, def := range defs {
			results = append(results, Result{User: cand.User, Course: cand.Course, Badge: def.ID, Err: err})
		}
		return results
	}

	for _, def := range defs {
		results = append(results, e.evaluateBadge(ctx, cand, def, sourceData))
	}
	return results
}

// evaluateBadge runs one strategy and commits any new occurrences.
func (e *Engine) evaluateBadge(ctx context.Context, cand evidence.Candidate, def badge.Definition, sourceData evidence.SourceData) Result {
	res := Result{User: cand.User, Course: cand.Course, Badge: def.ID}

	strat, err := e.registry.For(def)
	if err != nil {
		res.Err = err
		return res
	}

	consumedSet, err := e.consumed.GetSet(ctx, cand.User, def.ID, cand.Course)
	if err != nil {
		res.Err = err
		return res
	}

	in := strategy.Input{
		User:     cand.User,
		Course:   cand.Course,
		Def:      def,
		Source:   sourceData,
		Consumed: consumedSet,
	}
	outcome, err := strat.Evaluate(in)
	if err != nil {
		res.Err = err
		return res
	}
	if len(outcome.NewOccurrences) == 0 {
		return res
	}

	// Deterministic occurrence numbering: ascending earliest evidence
	// timestamp, regardless of discovery order. The count here only orders
	// the records we hand over; the ledger assigns the final index at insert
	// time, so an overlapping run cannot produce duplicate indexes.
	evidence.SortGroups(outcome.NewOccurrences)

	base, err := e.ledger.CountOccurrences(ctx, cand.User, def.ID, cand.Course)
	if err != nil {
		res.Err = err
		return res
	}

	for i, group := range outcome.NewOccurrences {
		created, err := e.commitOccurrence(ctx, cand, def, group, shared.Occurrence(base+i+1))
		if err != nil {
			res.Err = err
			return res
		}
		if created {
			res.Awarded++
		}
	}
	return res
}

// commitOccurrence persists one occurrence: ledger insert, consumed-set
// append, XP credit, event publication, snapshot write-through. The ledger
// insert is the idempotency gate; a duplicate absorbs silently and still
// heals the consumed set.
func (e *Engine) commitOccurrence(ctx context.Context, cand evidence.Candidate, def badge.Definition, group evidence.Group, occ shared.Occurrence) (bool, error) {
	rec := award.Record{
		ID:          uuid.NewString(),
		UserID:      cand.User,
		BadgeID:     def.ID,
		CourseID:    cand.Course,
		Occurrence:  occ,
		Fingerprint: award.Fingerprint(group),
		Repeatable:  def.Repeatable,
		Coins:       def.Coins,
		XP:          def.XP,
		AwardedAt:   time.Now().UTC(),
	}
	if err := rec.Validate(); err != nil {
		return false, err
	}

	outcome, err := e.ledger.TryAward(ctx, rec)
	if err != nil {
		return false, err
	}

	// Mark evidence consumed on both paths: after a duplicate-absorbed write
	// the consumed set may lag the ledger (e.g. a crash between the two
	// writes) and this heals it. MarkConsumed is idempotent.
	if err := e.consumed.MarkConsumed(ctx, cand.User, def.ID, cand.Course, group.ItemIDs()); err != nil {
		return outcome.Created, err
	}

	if !outcome.Created {
		return false, nil
	}

	if err := e.xp.Credit(ctx, cand.User, def.XP); err != nil {
		return true, err
	}

	if e.publisher != nil {
		event := shared.NewBadgeAwardedEvent(
			cand.User.String(), def.ID.String(), def.Name, cand.Course.String(),
			outcome.Occurrence.Int(), def.Coins.Int(), def.XP.Int(), group.Labels(),
		)
		if err := e.publisher.Publish(event); err != nil {
			e.logger.Warn("failed to publish award event",
				"user", cand.User.String(), "badge", def.ID.String(), "error", err)
		}
	}

	e.writeThroughSnapshot(ctx, cand, def)
	return true, nil
}

// writeThroughSnapshot refreshes the evidence snapshot after an award using
// the same pure derivation the reconciler verifies with. Failures only cost
// a later lazy recompute, so they log and move on.
func (e *Engine) writeThroughSnapshot(ctx context.Context, cand evidence.Candidate, def badge.Definition) {
	sourceData, err := e.assembler.Assemble(ctx, cand.User, cand.Course, []badge.Definition{def})
	if err != nil {
		e.logger.Warn("snapshot write-through skipped: source unavailable",
			"user", cand.User.String(), "badge", def.ID.String(), "error", err)
		return
	}
	groups, err := strategy.DeriveEvidence(e.registry, strategy.Input{
		User:   cand.User,
		Course: cand.Course,
		Def:    def,
		Source: sourceData,
	})
	if err != nil {
		e.logger.Warn("snapshot write-through skipped: derivation failed",
			"user", cand.User.String(), "badge", def.ID.String(), "error", err)
		return
	}
	snap := evidence.NewSnapshot(cand.User, cand.Course, def.ID, groups, time.Now())
	if err := e.snapshots.Put(ctx, snap); err != nil {
		e.logger.Warn("snapshot write-through failed",
			"user", cand.User.String(), "badge", def.ID.String(), "error", err)
	}
}

// Revoke removes all award records for the triple and publishes the
// revocation event. The consumed set stays intact on purpose: the same
// evidence cannot immediately re-award unless an admin also clears it, which
// is a separate explicit action. Granted XP is never retracted.
func (e *Engine) Revoke(ctx context.Context, user shared.UserID, badgeID shared.BadgeID, course shared.CourseID, reason string) (int, error) {
	removed, err := e.ledger.Revoke(ctx, user, badgeID, course)
	if err != nil {
		return 0, err
	}
	if removed > 0 && e.publisher != nil {
		event := shared.NewBadgeRevokedEvent(user.String(), badgeID.String(), course.String(), reason)
		if err := e.publisher.Publish(event); err != nil {
			e.logger.Warn("failed to publish revoke event", "error", err)
		}
	}
	if err := e.snapshots.Delete(ctx, evidence.SnapshotKey{User: user, Course: course, Badge: badgeID}); err != nil && !shared.IsNotFound(err) {
		e.logger.Warn("failed to drop snapshot after revoke", "error", err)
	}
	return removed, nil
}
