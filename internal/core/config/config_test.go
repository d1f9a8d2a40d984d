package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedKeys = []string{
	"APP_ENV", "LOG_LEVEL", "SERVER_PORT", "DATA_DIR", "SEED_SQL_PATH",
	"EVENT_HISTORY_LIMIT", "REDIS_URL", "KAFKA_BROKERS", "KAFKA_TOPIC",
	"EXTERNAL_DB_URL", "EXTERNAL_DB_KEY", "EXTERNAL_DB_TIMEOUT_SECONDS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedKeys {
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for _, k := range managedKeys {
			os.Unsetenv(k)
		}
	})
}

// TestLoad_Defaults verifies that default values are used when env vars are missing.
func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(".")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "data", cfg.Storage.DataDir)
	assert.Equal(t, "db/seed.sql", cfg.Storage.SeedSQLPath)
	assert.Equal(t, 1000, cfg.Realtime.HistoryLimit)
	assert.Equal(t, "courier.events", cfg.Realtime.KafkaTopic)
	assert.Equal(t, 10, cfg.External.TimeoutSeconds)
	assert.False(t, cfg.External.Enabled())
	assert.Empty(t, cfg.Realtime.Brokers())
}

// TestLoad_EnvVars verifies that environment variables override defaults.
func TestLoad_EnvVars(t *testing.T) {
	clearEnv(t)
	os.Setenv("APP_ENV", "production")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("SERVER_PORT", "9090")
	os.Setenv("DATA_DIR", "/var/lib/courier")
	os.Setenv("EVENT_HISTORY_LIMIT", "50")
	os.Setenv("EXTERNAL_DB_URL", "https://db.example.com")
	os.Setenv("EXTERNAL_DB_KEY", "service-key")
	os.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "/var/lib/courier", cfg.Storage.DataDir)
	assert.Equal(t, 50, cfg.Realtime.HistoryLimit)
	assert.True(t, cfg.External.Enabled())
	assert.Equal(t, "https", cfg.External.Scheme())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Realtime.Brokers())
}

// TestLoad_File verifies that values are loaded from a .env file.
func TestLoad_File(t *testing.T) {
	clearEnv(t)
	content := []byte(`
APP_ENV=staging
LOG_LEVEL=warn
SERVER_PORT=7070
EXTERNAL_DB_URL=postgres://portal@localhost:5432/portal
`)
	err := os.WriteFile(".env", content, 0644)
	require.NoError(t, err)
	defer os.Remove(".env")

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 7070, cfg.ServerPort)
	assert.Equal(t, "postgres", cfg.External.Scheme())
	// URL without key keeps the external backend disabled.
	assert.False(t, cfg.External.Enabled())
}

// TestLoad_ValidationFailure verifies that missing required fields return an error.
func TestLoad_ValidationFailure(t *testing.T) {
	clearEnv(t)
	os.Setenv("SERVER_PORT", "0")

	cfg, err := Load(".")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "missing required configuration: SERVER_PORT")
}
