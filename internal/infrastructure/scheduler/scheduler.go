// Package scheduler runs the badge engine's background jobs: the periodic
// qualification pass over active candidates and the evidence reconciliation
// sweep. Jobs are registered with either an interval or a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrNilJob is returned when registering a nil job.
	ErrNilJob = errors.New("job cannot be nil")

	// ErrNilSchedule is returned when registering a job without a schedule.
	ErrNilSchedule = errors.New("schedule cannot be nil")

	// ErrJobAlreadyExists is returned on duplicate job names.
	ErrJobAlreadyExists = errors.New("job already exists")

	// ErrJobNotFound is returned when a job name is not registered.
	ErrJobNotFound = errors.New("job not found")

	// ErrSchedulerAlreadyRunning is returned by Start on a running scheduler.
	ErrSchedulerAlreadyRunning = errors.New("scheduler is already running")

	// ErrSchedulerNotRunning is returned by Stop on a stopped scheduler.
	ErrSchedulerNotRunning = errors.New("scheduler is not running")
)

// Job is one schedulable unit of background work. Run receives a context
// that is cancelled when the scheduler stops; a long qualification pass is
// expected to notice and return early.
type Job interface {
	Name() string
	Run(ctx context.Context) error
	Description() string
}

// Schedule decides when a job fires.
type Schedule interface {
	// Next returns the first fire time strictly after t.
	Next(t time.Time) time.Time

	String() string
}

// JobResult records one job execution.
type JobResult struct {
	JobName     string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Success     bool
	Error       error
}

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	Logger *slog.Logger

	// Timezone for schedule calculations. Cron schedules in particular fire
	// on wall-clock boundaries in this location. Defaults to UTC.
	Timezone *time.Location

	// MaxHistorySize bounds the retained execution history.
	MaxHistorySize int

	// EnableMetrics turns on execution counters.
	EnableMetrics bool
}

// DefaultSchedulerConfig returns sensible defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Logger:         slog.Default(),
		Timezone:       time.UTC,
		MaxHistorySize: 1000,
		EnableMetrics:  true,
	}
}

// Scheduler owns the registered jobs and the tick loop that fires them.
type Scheduler struct {
	mu sync.RWMutex

	logger     *slog.Logger
	timezone   *time.Location
	maxHistory int

	jobs      map[string]*scheduledJob
	running   bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startedAt time.Time

	metrics    *SchedulerMetrics
	lastRuns   map[string]*JobResult
	runHistory []JobResult
}

// scheduledJob pairs a Job with its schedule and bookkeeping.
type scheduledJob struct {
	job       Job
	schedule  Schedule
	enabled   bool
	lastRun   time.Time
	nextRun   time.Time
	runCount  int64
	failCount int64
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(config SchedulerConfig) *Scheduler {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timezone == nil {
		config.Timezone = time.UTC
	}
	if config.MaxHistorySize <= 0 {
		config.MaxHistorySize = 1000
	}

	s := &Scheduler{
		logger:     config.Logger,
		timezone:   config.Timezone,
		maxHistory: config.MaxHistorySize,
		jobs:       make(map[string]*scheduledJob),
		lastRuns:   make(map[string]*JobResult),
		runHistory: make([]JobResult, 0, config.MaxHistorySize),
	}
	if config.EnableMetrics {
		s.metrics = NewSchedulerMetrics()
	}
	return s
}

// Register adds a job. Job names are unique; registering a second job under
// the same name is an error, not a replacement.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	if job == nil {
		return ErrNilJob
	}
	if schedule == nil {
		return ErrNilSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}

	now := time.Now().In(s.timezone)
	sj := &scheduledJob{
		job:      job,
		schedule: schedule,
		enabled:  true,
		nextRun:  schedule.Next(now),
	}
	s.jobs[name] = sj

	s.logger.Info("job registered",
		"job", name,
		"description", job.Description(),
		"next_run", sj.nextRun.Format(time.RFC3339),
	)
	return nil
}

// EnableJob re-enables a disabled job and recomputes its next fire time.
func (s *Scheduler) EnableJob(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sj, exists := s.jobs[jobName]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}

	sj.enabled = true
	sj.nextRun = sj.schedule.Next(time.Now().In(s.timezone))
	s.logger.Info("job enabled", "job", jobName, "next_run", sj.nextRun)
	return nil
}

// DisableJob keeps the job registered but stops scheduling it. RunNow still
// works on a disabled job.
func (s *Scheduler) DisableJob(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sj, exists := s.jobs[jobName]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}

	sj.enabled = false
	s.logger.Info("job disabled", "job", jobName)
	return nil
}

// Start begins the tick loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSchedulerAlreadyRunning
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("scheduler started", "jobs_count", len(s.jobs))

	s.wg.Add(1)
	go s.runLoop()
	return nil
}

// Stop cancels the loop and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()

	s.logger.Info("scheduler stopped", "uptime", time.Since(s.startedAt).String())
	return nil
}

// IsRunning reports whether the tick loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) runLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.fireDueJobs()
		}
	}
}

func (s *Scheduler) fireDueJobs() {
	now := time.Now().In(s.timezone)

	s.mu.RLock()
	due := make([]*scheduledJob, 0)
	for _, sj := range s.jobs {
		if sj.enabled && !sj.nextRun.IsZero() && now.After(sj.nextRun) {
			due = append(due, sj)
		}
	}
	s.mu.RUnlock()

	for _, sj := range due {
		s.wg.Add(1)
		go s.runScheduled(sj)
	}
}

// runScheduled executes one due job. The next fire time is advanced before
// the run so a slow pass cannot pile up overlapping executions of itself.
func (s *Scheduler) runScheduled(sj *scheduledJob) {
	defer s.wg.Done()

	name := sj.job.Name()
	startedAt := time.Now()

	s.logger.Info("job started", "job", name)

	s.mu.Lock()
	sj.lastRun = startedAt
	sj.nextRun = sj.schedule.Next(startedAt.In(s.timezone))
	sj.runCount++
	s.mu.Unlock()

	err := sj.job.Run(s.ctx)
	result := s.record(name, startedAt, err)

	s.mu.Lock()
	if err != nil {
		sj.failCount++
	}
	s.mu.Unlock()

	s.logResult(result)
}

// RunNow executes a job immediately, outside its schedule. The admin surface
// and tests use this; the scheduled bookkeeping (run counts, next fire time)
// is left untouched.
func (s *Scheduler) RunNow(ctx context.Context, jobName string) (*JobResult, error) {
	s.mu.RLock()
	sj, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}

	s.logger.Info("manual job execution started", "job", jobName)

	startedAt := time.Now()
	err := sj.job.Run(ctx)
	result := s.record(jobName, startedAt, err)

	s.logResult(result)
	return result, err
}

// record builds the JobResult and folds it into metrics and history.
func (s *Scheduler) record(jobName string, startedAt time.Time, err error) *JobResult {
	completedAt := time.Now()
	result := &JobResult{
		JobName:     jobName,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		Duration:    completedAt.Sub(startedAt),
		Success:     err == nil,
		Error:       err,
	}

	if s.metrics != nil {
		s.metrics.RecordExecution(jobName, result.Duration, err == nil)
	}

	s.mu.Lock()
	s.lastRuns[jobName] = result
	s.runHistory = append(s.runHistory, *result)
	if len(s.runHistory) > s.maxHistory {
		s.runHistory = s.runHistory[len(s.runHistory)-s.maxHistory:]
	}
	s.mu.Unlock()

	return result
}

func (s *Scheduler) logResult(result *JobResult) {
	if result.Error != nil {
		s.logger.Error("job failed",
			"job", result.JobName,
			"duration", result.Duration.String(),
			"error", result.Error,
		)
		return
	}
	s.logger.Info("job completed",
		"job", result.JobName,
		"duration", result.Duration.String(),
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// STATUS & INFO
// ══════════════════════════════════════════════════════════════════════════════

// JobInfo is the status view of one registered job.
type JobInfo struct {
	Name        string
	Description string
	Enabled     bool
	Schedule    string
	LastRun     time.Time
	NextRun     time.Time
	RunCount    int64
	FailCount   int64
	LastResult  *JobResult
}

// ListJobs returns the status of all registered jobs.
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name := range s.jobs {
		infos = append(infos, s.jobInfoLocked(name))
	}
	return infos
}

// GetJobInfo returns the status of one job.
func (s *Scheduler) GetJobInfo(jobName string) (*JobInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.jobs[jobName]; !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}
	info := s.jobInfoLocked(jobName)
	return &info, nil
}

func (s *Scheduler) jobInfoLocked(name string) JobInfo {
	sj := s.jobs[name]
	return JobInfo{
		Name:        name,
		Description: sj.job.Description(),
		Enabled:     sj.enabled,
		Schedule:    sj.schedule.String(),
		LastRun:     sj.lastRun,
		NextRun:     sj.nextRun,
		RunCount:    sj.runCount,
		FailCount:   sj.failCount,
		LastResult:  s.lastRuns[name],
	}
}

// GetHistory returns the most recent executions, newest last.
func (s *Scheduler) GetHistory(limit int) []JobResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.runHistory) {
		limit = len(s.runHistory)
	}
	start := len(s.runHistory) - limit
	result := make([]JobResult, limit)
	copy(result, s.runHistory[start:])
	return result
}

// GetMetrics returns the execution counters, or nil when metrics are
// disabled.
func (s *Scheduler) GetMetrics() *SchedulerMetrics {
	return s.metrics
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// SchedulerMetrics counts job executions.
type SchedulerMetrics struct {
	mu sync.RWMutex

	TotalExecutions int64
	TotalSuccesses  int64
	TotalFailures   int64
	TotalDuration   time.Duration

	ExecutionsByJob map[string]int64
	FailuresByJob   map[string]int64
}

// NewSchedulerMetrics creates zeroed counters.
func NewSchedulerMetrics() *SchedulerMetrics {
	return &SchedulerMetrics{
		ExecutionsByJob: make(map[string]int64),
		FailuresByJob:   make(map[string]int64),
	}
}

// RecordExecution folds one execution into the counters.
func (m *SchedulerMetrics) RecordExecution(jobName string, duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalExecutions++
	m.TotalDuration += duration
	m.ExecutionsByJob[jobName]++

	if success {
		m.TotalSuccesses++
	} else {
		m.TotalFailures++
		m.FailuresByJob[jobName]++
	}
}

// MetricsSnapshot is a point-in-time view of the counters.
type MetricsSnapshot struct {
	TotalExecutions int64
	TotalSuccesses  int64
	TotalFailures   int64
	SuccessRate     float64
	AverageDuration time.Duration
}

// Snapshot returns a consistent copy of the counters.
func (m *SchedulerMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		TotalExecutions: m.TotalExecutions,
		TotalSuccesses:  m.TotalSuccesses,
		TotalFailures:   m.TotalFailures,
	}
	if m.TotalExecutions > 0 {
		snap.SuccessRate = float64(m.TotalSuccesses) / float64(m.TotalExecutions)
		snap.AverageDuration = m.TotalDuration / time.Duration(m.TotalExecutions)
	}
	return snap
}
