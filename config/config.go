// Package config loads the badge engine configuration from environment
// variables with sensible defaults for development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	// Application
	App AppConfig

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Campus learning platform API
	Campus CampusConfig

	// Qualification engine
	Engine EngineConfig

	// Scheduler
	Scheduler SchedulerConfig

	// HTTP API
	HTTP HTTPConfig

	// Observability
	Observability ObservabilityConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string
	Environment Environment
	Debug       bool
	Version     string

	// CatalogPath is the JSON file holding the badge definitions.
	CatalogPath string

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string

	// Connection pool settings
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// Timeouts
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Disabled runs the engine without the hot evidence cache and the
	// notification queue. Degraded but functional: reads fall through to
	// postgres.
	Disabled bool
}

// CampusConfig holds Campus API settings.
type CampusConfig struct {
	// Base URL of the Campus platform
	BaseURL string

	// Authentication
	APIKey string

	// Rate limiting (protect from being blocked)
	RateLimit      int // requests per minute
	RateLimitBurst int // burst size
	RequestTimeout time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	// Circuit breaker settings
	CircuitBreakerThreshold int           // failures before opening
	CircuitBreakerTimeout   time.Duration // time before half-open
}

// EngineConfig holds qualification engine settings.
type EngineConfig struct {
	// Workers is the size of the evaluation worker pool.
	Workers int

	// RunTimeout bounds one full qualification pass.
	RunTimeout time.Duration
}

// SchedulerConfig holds background job settings.
type SchedulerConfig struct {
	// Enable/disable scheduler
	Enabled bool

	// Job intervals
	QualifyInterval   time.Duration // full qualification pass
	ReconcileInterval time.Duration // snapshot verification pass

	// QualifyCron, when set, replaces QualifyInterval with a fixed
	// wall-clock schedule (standard 5-field cron expression).
	QualifyCron string

	// Reconciliation sampling and cold-cache backfill
	ReconcileSampleSize   int
	ReconcileBackfillSize int

	// Concurrency
	MaxConcurrentJobs int
	JobTimeout        time.Duration
}

// HTTPConfig holds HTTP API settings.
type HTTPConfig struct {
	Host               string
	Port               int
	RateLimitPerMinute int

	// AdminAPIKeys guard the revoke and migration endpoints. Empty disables
	// the admin surface entirely.
	AdminAPIKeys []string
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App:           loadAppConfig(),
		Database:      loadDatabaseConfig(),
		Redis:         loadRedisConfig(),
		Campus:        loadCampusConfig(),
		Engine:        loadEngineConfig(),
		Scheduler:     loadSchedulerConfig(),
		HTTP:          loadHTTPConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func loadAppConfig() AppConfig {
	env := Environment(getEnv("APP_ENV", "development"))

	return AppConfig{
		Name:            getEnv("APP_NAME", "badge-engine"),
		Environment:     env,
		Debug:           env == EnvDevelopment || getEnvBool("APP_DEBUG", false),
		Version:         getEnv("APP_VERSION", "0.1.0"),
		CatalogPath:     getEnv("BADGE_CATALOG_PATH", "badges.json"),
		ShutdownTimeout: getEnvDuration("APP_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		Name:            getEnv("DB_NAME", "badges"),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxConns:        int32(getEnvInt("DB_MAX_CONNS", 25)),
		MinConns:        int32(getEnvInt("DB_MIN_CONNS", 5)),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 1*time.Minute),
		ConnectTimeout:  getEnvDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Host:         getEnv("REDIS_HOST", "localhost"),
		Port:         getEnvInt("REDIS_PORT", 6379),
		Password:     getEnv("REDIS_PASSWORD", ""),
		DB:           getEnvInt("REDIS_DB", 0),
		PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
		MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		Disabled:     getEnvBool("REDIS_DISABLED", false),
	}
}

func loadCampusConfig() CampusConfig {
	return CampusConfig{
		BaseURL:                 getEnv("CAMPUS_BASE_URL", "https://campus.learnhub.io"),
		APIKey:                  getEnv("CAMPUS_API_KEY", ""),
		RateLimit:               getEnvInt("CAMPUS_RATE_LIMIT", 60),
		RateLimitBurst:          getEnvInt("CAMPUS_RATE_LIMIT_BURST", 10),
		RequestTimeout:          getEnvDuration("CAMPUS_REQUEST_TIMEOUT", 30*time.Second),
		MaxRetries:              getEnvInt("CAMPUS_MAX_RETRIES", 3),
		RetryBaseDelay:          getEnvDuration("CAMPUS_RETRY_BASE_DELAY", 1*time.Second),
		RetryMaxDelay:           getEnvDuration("CAMPUS_RETRY_MAX_DELAY", 30*time.Second),
		CircuitBreakerThreshold: getEnvInt("CAMPUS_CB_THRESHOLD", 5),
		CircuitBreakerTimeout:   getEnvDuration("CAMPUS_CB_TIMEOUT", 60*time.Second),
	}
}

func loadEngineConfig() EngineConfig {
	return EngineConfig{
		Workers:    getEnvInt("ENGINE_WORKERS", 4),
		RunTimeout: getEnvDuration("ENGINE_RUN_TIMEOUT", 10*time.Minute),
	}
}

func loadSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:               getEnvBool("SCHEDULER_ENABLED", true),
		QualifyInterval:       getEnvDuration("SCHEDULER_QUALIFY_INTERVAL", 15*time.Minute),
		QualifyCron:           getEnv("SCHEDULER_QUALIFY_CRON", ""),
		ReconcileInterval:     getEnvDuration("SCHEDULER_RECONCILE_INTERVAL", 6*time.Hour),
		ReconcileSampleSize:   getEnvInt("SCHEDULER_RECONCILE_SAMPLE", 200),
		ReconcileBackfillSize: getEnvInt("SCHEDULER_RECONCILE_BACKFILL", 100),
		MaxConcurrentJobs:     getEnvInt("SCHEDULER_MAX_CONCURRENT", 2),
		JobTimeout:            getEnvDuration("SCHEDULER_JOB_TIMEOUT", 30*time.Minute),
	}
}

func loadHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Host:               getEnv("HTTP_HOST", "0.0.0.0"),
		Port:               getEnvInt("HTTP_PORT", 8080),
		RateLimitPerMinute: getEnvInt("HTTP_RATE_LIMIT", 100),
		AdminAPIKeys:       getEnvStringSlice("HTTP_ADMIN_API_KEYS", nil),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	if c.App.CatalogPath == "" {
		errs = append(errs, "BADGE_CATALOG_PATH is required")
	}

	if c.App.Environment == EnvProduction {
		if c.Database.Password == "" {
			errs = append(errs, "DB_PASSWORD is required in production")
		}
		if c.Campus.APIKey == "" {
			errs = append(errs, "CAMPUS_API_KEY is required in production")
		}
	}

	if c.Engine.Workers < 1 {
		errs = append(errs, "ENGINE_WORKERS must be at least 1")
	}

	if c.Scheduler.ReconcileSampleSize < 1 {
		errs = append(errs, "SCHEDULER_RECONCILE_SAMPLE must be at least 1")
	}

	if c.Scheduler.ReconcileBackfillSize < 1 {
		errs = append(errs, "SCHEDULER_RECONCILE_BACKFILL must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// --- Helper functions for environment variable parsing ---

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvStringSlice(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}

	parts := strings.Split(val, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		result = append(result, p)
	}
	return result
}
