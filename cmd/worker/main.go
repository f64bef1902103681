// Package main is the badge engine worker: it runs the periodic
// qualification passes, the evidence reconciler, and the REST API that
// serves evidence and award reads.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/learnhub/badge-engine/config"
	"github.com/learnhub/badge-engine/internal/application/command"
	"github.com/learnhub/badge-engine/internal/application/engine"
	"github.com/learnhub/badge-engine/internal/application/eventhandler"
	"github.com/learnhub/badge-engine/internal/application/query"
	"github.com/learnhub/badge-engine/internal/application/source"
	"github.com/learnhub/badge-engine/internal/application/strategy"
	"github.com/learnhub/badge-engine/internal/domain/badge"
	"github.com/learnhub/badge-engine/internal/domain/shared"
	"github.com/learnhub/badge-engine/internal/infrastructure/external/campus"
	"github.com/learnhub/badge-engine/internal/infrastructure/messaging"
	"github.com/learnhub/badge-engine/internal/infrastructure/persistence/postgres"
	"github.com/learnhub/badge-engine/internal/infrastructure/persistence/redis"
	"github.com/learnhub/badge-engine/internal/infrastructure/scheduler"
	"github.com/learnhub/badge-engine/internal/infrastructure/scheduler/jobs"
	httpapi "github.com/learnhub/badge-engine/internal/interface/http"
	"github.com/learnhub/badge-engine/internal/interface/http/handlers"
	"github.com/learnhub/badge-engine/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// Configuration & logging
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := newLogger(cfg)
	slog.SetDefault(log)
	log.Info("starting badge engine worker",
		"version", cfg.App.Version,
		"environment", string(cfg.App.Environment),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// Badge catalog
	// ─────────────────────────────────────────────────────────────────────────
	catalogData, err := os.ReadFile(cfg.App.CatalogPath)
	if err != nil {
		return fmt.Errorf("read badge catalog: %w", err)
	}
	defs, err := badge.ParseDefinitions(catalogData)
	if err != nil {
		return fmt.Errorf("parse badge catalog: %w", err)
	}
	catalog, err := badge.NewCatalog(defs)
	if err != nil {
		return fmt.Errorf("build badge catalog: %w", err)
	}
	log.Info("badge catalog loaded", "definitions", len(defs))

	// ─────────────────────────────────────────────────────────────────────────
	// PostgreSQL
	// ─────────────────────────────────────────────────────────────────────────
	conn, err := postgres.NewConnection(ctx, postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Database:        cfg.Database.Name,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  cfg.Database.ConnectTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close()

	if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	awardRepo := postgres.NewAwardRepository(conn)
	consumedRepo := postgres.NewConsumedRepository(conn)
	xpRepo := postgres.NewXPRepository(conn)
	snapshotRepo := postgres.NewSnapshotRepository(conn)
	legacyRepo := postgres.NewLegacyKVRepository(conn)

	// ─────────────────────────────────────────────────────────────────────────
	// Redis (optional: without it evidence reads fall through to postgres
	// and award notifications are not queued)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		cache       *redis.Cache
		hotCache    query.HotCache
		notifyQueue eventhandler.NotificationQueue
	)
	if !cfg.Redis.Disabled {
		cache, err = redis.NewCache(redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer cache.Close()

		hotCache = redis.NewEvidenceCache(cache, redis.TTLEvidenceCache)
		notifyQueue = redis.NewNotificationQueue(cache)
	} else {
		log.Warn("redis disabled, running without hot cache and notification queue")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Campus API client
	// ─────────────────────────────────────────────────────────────────────────
	campusClient := campus.NewClient(campus.ClientConfig{
		BaseURL: cfg.Campus.BaseURL,
		APIKey:  cfg.Campus.APIKey,
		Timeout: cfg.Campus.RequestTimeout,
		RateLimiterConfig: campus.RateLimiterConfig{
			RequestsPerSecond: float64(cfg.Campus.RateLimit) / 60.0,
			BurstSize:         cfg.Campus.RateLimitBurst,
			WaitTimeout:       cfg.Campus.RequestTimeout,
			RetryAfter:        cfg.Campus.RetryBaseDelay,
		},
		CircuitBreakerConfig: campus.CircuitBreakerConfig{
			FailureThreshold:   cfg.Campus.CircuitBreakerThreshold,
			SuccessThreshold:   2,
			Timeout:            cfg.Campus.CircuitBreakerTimeout,
			HalfOpenMaxRetries: 3,
		},
		RetryConfig: campus.RetryConfig{
			MaxRetries:        cfg.Campus.MaxRetries,
			InitialBackoff:    cfg.Campus.RetryBaseDelay,
			MaxBackoff:        cfg.Campus.RetryMaxDelay,
			BackoffMultiplier: 2.0,
			Jitter:            0.2,
		},
		Logger: log,
		Debug:  cfg.App.Debug,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// Application layer
	// ─────────────────────────────────────────────────────────────────────────
	registry := strategy.NewRegistry()
	assembler := &source.Assembler{
		Activities: campusClient,
		Grades:     campusClient,
		Courses:    campusClient,
		Ledger:     awardRepo,
		Catalog:    catalog,
	}

	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 10,
		Logger:         log,
		EnableMetrics:  true,
	})
	defer bus.Close()
	bus.Use(messaging.RecoveryMiddleware(log))
	bus.Use(messaging.LoggingMiddleware(log))

	if notifyQueue != nil {
		awardedHandler := eventhandler.NewBadgeAwardedHandler(notifyQueue, log)
		if err := bus.Subscribe(shared.EventBadgeAwarded, awardedHandler.Handle); err != nil {
			return fmt.Errorf("subscribe award handler: %w", err)
		}
	}

	eng := engine.New(
		catalog,
		registry,
		assembler,
		campusClient,
		awardRepo,
		consumedRepo,
		xpRepo,
		snapshotRepo,
		bus,
		log,
		engine.Config{
			Workers:    cfg.Engine.Workers,
			RunTimeout: cfg.Engine.RunTimeout,
		},
	)

	evidenceReader := query.NewEvidenceReader(catalog, registry, assembler, snapshotRepo, hotCache, log)
	awardHistory := query.NewAwardHistory(awardRepo, xpRepo)
	revokeCmd := command.NewRevokeAward(eng, log)
	migrateCmd := command.NewMigrateLegacyEvidence(legacyRepo, consumedRepo, log)

	// Legacy consumed-evidence rows must exist before the first qualification
	// pass, or evidence the old system already credited gets awarded again.
	// The pass is idempotent; the admin endpoint stays available for re-runs.
	report, err := migrateCmd.Execute(ctx)
	if err != nil {
		return fmt.Errorf("migrate legacy evidence: %w", err)
	}
	if report.Migrated > 0 || report.Skipped > 0 {
		log.Info("legacy evidence migrated", "migrated", report.Migrated, "skipped", report.Skipped)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Scheduler
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.NewScheduler(scheduler.SchedulerConfig{
			Logger:         log,
			Timezone:       time.UTC,
			MaxHistorySize: 1000,
			EnableMetrics:  true,
		})

		var qualifySchedule scheduler.Schedule = scheduler.NewIntervalSchedule(cfg.Scheduler.QualifyInterval)
		if cfg.Scheduler.QualifyCron != "" {
			qualifySchedule, err = scheduler.ParseCronSchedule(cfg.Scheduler.QualifyCron)
			if err != nil {
				return fmt.Errorf("parse qualify cron: %w", err)
			}
		}

		qualifyJob := jobs.NewQualifyBadgesJob(eng, log)
		if err := sched.Register(qualifyJob, qualifySchedule); err != nil {
			return fmt.Errorf("register qualify job: %w", err)
		}

		reconcileJob := jobs.NewReconcileEvidenceJob(
			evidenceReader,
			snapshotRepo,
			hotCache,
			campusClient,
			campusClient,
			catalog,
			log,
			jobs.ReconcileConfig{
				SampleSize:        cfg.Scheduler.ReconcileSampleSize,
				BackfillBatchSize: cfg.Scheduler.ReconcileBackfillSize,
				EntryTimeout:      30 * time.Second,
			},
		)
		if err := sched.Register(reconcileJob, scheduler.NewIntervalSchedule(cfg.Scheduler.ReconcileInterval)); err != nil {
			return fmt.Errorf("register reconcile job: %w", err)
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer sched.Stop()
	} else {
		log.Warn("scheduler disabled, qualification runs only on demand")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// HTTP API
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("database", handlers.NewDatabaseCheck(conn))
	if cache != nil {
		health.AddCheck("cache", handlers.NewCacheCheck(cache))
	}
	health.AddCheck("campus_api", handlers.NewCampusCheck(campusClient))

	httpLog := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
	})

	server := httpapi.NewServer(httpapi.Config{
		Host:               cfg.HTTP.Host,
		Port:               cfg.HTTP.Port,
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       15 * time.Second,
		IdleTimeout:        60 * time.Second,
		MaxHeaderBytes:     1 << 20,
		EnableCORS:         true,
		AllowedOrigins:     []string{"*"},
		RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
		APIKeyHeader:       "X-API-Key",
		AdminAPIKeys:       cfg.HTTP.AdminAPIKeys,
	}, httpapi.Dependencies{
		Evidence:      evidenceReader,
		Awards:        awardHistory,
		Revoke:        revokeCmd,
		MigrateLegacy: migrateCmd,
		Logger:        httpLog,
		HealthChecker: health,
	})

	serverErr := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// Shutdown
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			log.Error("http server failed", "error", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", "error", err)
	}

	log.Info("badge engine worker stopped")
	return nil
}

// newLogger builds the process-wide slog logger from the observability
// settings.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Observability.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Observability.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
