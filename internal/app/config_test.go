package app

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp keeps stray config.yaml or .env files in the package directory
// out of the test.
func chdirTemp(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
}

func TestLoadConfig_Defaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CATALOG_DATABASE_URL", "postgres://localhost/catalog")
	t.Setenv("PORT", "")

	cfg, err := loadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultAddr, cfg.Addr)
	assert.Equal(t, "postgres://localhost/catalog", cfg.DatabaseURL)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 3*time.Second, cfg.Graceful.ReadinessDelay)
	assert.Equal(t, 15*time.Second, cfg.Graceful.ShutdownTimeout)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, []string{"*"}, cfg.CORS.Origins)
	assert.False(t, cfg.CORS.AllowCredentials)
	assert.Equal(t, 86400, cfg.CORS.MaxAge)
}

func TestLoadConfig_MiddlewareFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CATALOG_DATABASE_URL", "postgres://localhost/catalog")
	t.Setenv("CATALOG_RATE_LIMIT_MAX", "5")
	t.Setenv("CATALOG_RATE_LIMIT_WINDOW", "10s")
	t.Setenv("CATALOG_CORS_ORIGINS", "https://shop.example")

	cfg, err := loadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.RateLimit.Max)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, []string{"https://shop.example"}, cfg.CORS.Origins)
}

func TestLoadConfig_PlatformFallbacks(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CATALOG_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "postgres://platform/catalog")
	t.Setenv("PORT", "9090")

	cfg, err := loadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://platform/catalog", cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CATALOG_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "")
	require.NoError(t, os.WriteFile(".env", []byte("CATALOG_DATABASE_URL=postgres://dotenv/catalog\n"), 0o600))
	// godotenv never overrides a set variable, even an empty one.
	require.NoError(t, os.Unsetenv("CATALOG_DATABASE_URL"))

	cfg, err := loadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://dotenv/catalog", cfg.DatabaseURL)
}

func TestLoadConfig_MissingDatabase(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CATALOG_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "")

	_, err := loadConfig(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database URL is required")
}

func TestLoadConfig_Flags(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CATALOG_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := loadConfig([]string{"-database-url=postgres://flag/catalog"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://flag/catalog", cfg.DatabaseURL)
}
