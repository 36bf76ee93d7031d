package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/shareit.db
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "shareit", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, 15, cfg.Server.WriteTimeout)
	assert.Equal(t, 10, cfg.Server.ShutdownTimeout)
	assert.Equal(t, float64(50), cfg.RateLimit.RPS)
	assert.Equal(t, 100, cfg.RateLimit.Burst)
	assert.Equal(t, 60, cfg.RateLimit.WindowSeconds)
	assert.Equal(t, 24, cfg.Exports.IntervalHours)
	assert.Equal(t, "Bookings", cfg.Google.SheetName)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
app:
  name: shareit-test
  environment: test
server:
  port: 9000
database:
  path: /tmp/test.db
redis:
  enabled: true
  address: localhost:6379
  db: 2
rate_limit:
  rps: 10
  burst: 20
  bookings_per_window: 5
  window_seconds: 30
exports:
  enabled: true
  path: /tmp/exports
  interval_hours: 6
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "shareit-test", cfg.App.Name)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, float64(10), cfg.RateLimit.RPS)
	assert.Equal(t, 5, cfg.RateLimit.BookingsPerWindow)
	assert.Equal(t, 30, cfg.RateLimit.WindowSeconds)
	assert.Equal(t, 6, cfg.Exports.IntervalHours)
	assert.Equal(t, "/tmp/exports", cfg.Exports.Path)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_DB_PATH", "/var/lib/shareit.db")
	t.Setenv("TEST_REDIS_PASSWORD", "secret")

	path := writeConfig(t, `
database:
  path: ${TEST_DB_PATH}
redis:
  enabled: true
  address: localhost:6379
  password: ${TEST_REDIS_PASSWORD}
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "/var/lib/shareit.db", cfg.Database.Path)
	assert.Equal(t, "secret", cfg.Redis.Password)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "database:\n  path: [broken")

	_, err := Load(path)

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Run("MissingDatabasePath", func(t *testing.T) {
		path := writeConfig(t, "app:\n  name: x\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database path")
	})

	t.Run("RedisEnabledWithoutAddress", func(t *testing.T) {
		path := writeConfig(t, `
database:
  path: /tmp/test.db
redis:
  enabled: true
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis address")
	})

	t.Run("GoogleEnabledWithoutCredentials", func(t *testing.T) {
		path := writeConfig(t, `
database:
  path: /tmp/test.db
google:
  enabled: true
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "credentials")
	})

	t.Run("GoogleEnabledWithoutSpreadsheet", func(t *testing.T) {
		path := writeConfig(t, `
database:
  path: /tmp/test.db
google:
  enabled: true
  credentials_file: /tmp/creds.json
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "spreadsheet")
	})

	t.Run("ExportsEnabledWithoutPath", func(t *testing.T) {
		path := writeConfig(t, `
database:
  path: /tmp/test.db
exports:
  enabled: true
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exports path")
	})
}
