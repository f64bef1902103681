package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "badge-engine", cfg.App.Name)
	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.True(t, cfg.App.Debug)
	assert.Equal(t, "badges.json", cfg.App.CatalogPath)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, int32(25), cfg.Database.MaxConns)

	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.False(t, cfg.Redis.Disabled)

	assert.Equal(t, "https://campus.learnhub.io", cfg.Campus.BaseURL)
	assert.Equal(t, 60, cfg.Campus.RateLimit)

	assert.Equal(t, 4, cfg.Engine.Workers)
	assert.Equal(t, 10*time.Minute, cfg.Engine.RunTimeout)

	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.QualifyInterval)
	assert.Equal(t, 200, cfg.Scheduler.ReconcileSampleSize)
	assert.Equal(t, 100, cfg.Scheduler.ReconcileBackfillSize)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Empty(t, cfg.HTTP.AdminAPIKeys)

	assert.Equal(t, "info", cfg.Observability.LogLevel)
	assert.Equal(t, "json", cfg.Observability.LogFormat)

	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("ENGINE_WORKERS", "8")
	t.Setenv("SCHEDULER_QUALIFY_INTERVAL", "5m")
	t.Setenv("SCHEDULER_QUALIFY_CRON", "0 3 * * *")
	t.Setenv("REDIS_DISABLED", "true")
	t.Setenv("HTTP_ADMIN_API_KEYS", "key-one, key-two ,,key-three")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvStaging, cfg.App.Environment)
	assert.False(t, cfg.App.Debug)
	assert.Equal(t, 8, cfg.Engine.Workers)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.QualifyInterval)
	assert.Equal(t, "0 3 * * *", cfg.Scheduler.QualifyCron)
	assert.True(t, cfg.Redis.Disabled)
	assert.Equal(t, []string{"key-one", "key-two", "key-three"}, cfg.HTTP.AdminAPIKeys)
}

func TestLoad_MalformedValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("ENGINE_WORKERS", "many")
	t.Setenv("SCHEDULER_QUALIFY_INTERVAL", "soon")
	t.Setenv("REDIS_DISABLED", "maybe")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Engine.Workers)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.QualifyInterval)
	assert.False(t, cfg.Redis.Disabled)
}

func TestValidate_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD is required in production")
	assert.Contains(t, err.Error(), "CAMPUS_API_KEY is required in production")

	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("CAMPUS_API_KEY", "campus-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestValidate_RejectsNonsenseBounds(t *testing.T) {
	cases := map[string]struct {
		mutate func(*Config)
		want   string
	}{
		"empty catalog path": {
			mutate: func(c *Config) { c.App.CatalogPath = "" },
			want:   "BADGE_CATALOG_PATH is required",
		},
		"zero workers": {
			mutate: func(c *Config) { c.Engine.Workers = 0 },
			want:   "ENGINE_WORKERS must be at least 1",
		},
		"zero reconcile sample": {
			mutate: func(c *Config) { c.Scheduler.ReconcileSampleSize = 0 },
			want:   "SCHEDULER_RECONCILE_SAMPLE must be at least 1",
		},
		"zero reconcile backfill": {
			mutate: func(c *Config) { c.Scheduler.ReconcileBackfillSize = 0 },
			want:   "SCHEDULER_RECONCILE_BACKFILL must be at least 1",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)

			tc.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
