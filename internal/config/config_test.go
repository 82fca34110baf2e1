package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("SESSION_STORE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMySQL, cfg.DBDriver)
	assert.Equal(t, SessionStoreRedis, cfg.SessionStore)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.True(t, cfg.TimerRequireClockIn)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("SESSION_STORE", "cookie")
	t.Setenv("TIMER_REQUIRE_CLOCK_IN", "false")
	t.Setenv("TIMER_LOCATION", "Asia/Tokyo")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.Equal(t, SessionStoreCookie, cfg.SessionStore)
	assert.False(t, cfg.TimerRequireClockIn)
	assert.Equal(t, "Asia/Tokyo", cfg.Location().String())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("DB_DRIVER: sqlite\nDB_NAME: file.db\n"), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DB_NAME", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "file.db", cfg.DBName)
}

func TestValidate_RejectsUnknownValues(t *testing.T) {
	base := Config{DBDriver: DriverSQLite, SessionStore: SessionStoreCookie, TimerLocation: "UTC"}
	require.NoError(t, base.Validate())

	badDriver := base
	badDriver.DBDriver = "oracle"
	assert.Error(t, badDriver.Validate())

	badStore := base
	badStore.SessionStore = "memcached"
	assert.Error(t, badStore.Validate())

	badZone := base
	badZone.TimerLocation = "Mars/Olympus"
	assert.Error(t, badZone.Validate())
}
