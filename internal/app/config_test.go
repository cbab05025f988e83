package app

import (
	"testing"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOnly() aconfig.Config {
	return aconfig.Config{
		EnvPrefix: "CATALOG",
		SkipFlags: true,
		SkipFiles: true,
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := loadConfig(envOnly())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Equal(t, 10, cfg.DefaultPageSize)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, []string{"*"}, cfg.CORS.Origins)
	assert.Equal(t, 3*time.Second, cfg.Graceful.ReadinessDelay)
	assert.Equal(t, 15*time.Second, cfg.Graceful.ShutdownTimeout)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("CATALOG_STORAGE_DRIVER", "postgres")
	t.Setenv("CATALOG_STORAGE_DATABASE_URL", "postgres://catalog@localhost/catalog")
	t.Setenv("CATALOG_DEFAULT_PAGE_SIZE", "25")

	cfg, err := loadConfig(envOnly())
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://catalog@localhost/catalog", cfg.Storage.DatabaseURL)
	assert.Equal(t, 25, cfg.DefaultPageSize)
}

func TestLoadConfig_PlatformDefaults(t *testing.T) {
	t.Setenv("CATALOG_STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://platform/db")
	t.Setenv("PORT", "9090")

	cfg, err := loadConfig(envOnly())
	require.NoError(t, err)
	assert.Equal(t, "postgres://platform/db", cfg.Storage.DatabaseURL)
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			DefaultPageSize: 10,
			Storage:         StorageConfig{Driver: DriverMemory},
			RateLimit:       RateLimitConfig{Max: 1, Window: time.Second},
		}
	}
	require.NoError(t, (&Config{
		DefaultPageSize: 1,
		Storage:         StorageConfig{Driver: DriverPostgres, DatabaseURL: "postgres://x"},
		RateLimit:       RateLimitConfig{Max: 1, Window: time.Second},
	}).Validate())

	for _, tc := range []struct {
		name   string
		mutate func(c *Config)
		msg    string
	}{
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "redis" }, msg: `unknown storage driver "redis"`},
		{name: "postgres without url", mutate: func(c *Config) { c.Storage.Driver = DriverPostgres }, msg: "database URL is required"},
		{name: "page size", mutate: func(c *Config) { c.DefaultPageSize = 0 }, msg: "default page size"},
		{name: "rate limit", mutate: func(c *Config) { c.RateLimit.Window = 0 }, msg: "rate limit"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}
