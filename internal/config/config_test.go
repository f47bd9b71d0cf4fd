package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.False(t, Exists())
}

func TestSaveThenLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.General.Currency = "$"
	cfg.Storage.Backend = "redis"
	cfg.Storage.RedisAddr = "localhost:6380"
	cfg.Notifications.QuietHours.Enabled = true
	cfg.Notifications.QuietHours.StartTime = "23:30"
	cfg.Daemon.Addr = ":9000"
	require.NoError(t, Save(cfg))
	assert.True(t, Exists())

	info, err := os.Stat(ConfigPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadFile_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[general]
currency = "€"

[notifications]
big_spend_alerts = false
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "€", cfg.General.Currency)
	assert.Equal(t, "info", cfg.General.LogLevel)
	assert.False(t, cfg.Notifications.BigSpendAlerts)
	assert.True(t, cfg.Notifications.FuelAlerts)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
}

func TestLoadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[general\ncurrency="), 0o600))

	_, err := LoadFile(path)
	assert.ErrorContains(t, err, "parsing config")
}

func TestDatabasePath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	cfg := DefaultConfig()
	assert.Equal(t, filepath.Join(dir, "fueltank", "fueltank.db"), DatabasePath(cfg))

	cfg.Storage.Path = "/tmp/other.db"
	assert.Equal(t, "/tmp/other.db", DatabasePath(cfg))
}

func TestSecretsPreferEnv(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SMTP.Password = "from-file"
	cfg.Suggestions.APIKey = "file-key"
	cfg.Storage.RedisPassword = "file-redis"

	t.Setenv(EnvSMTPPassword, "")
	t.Setenv(EnvGeneratorKey, "")
	t.Setenv(EnvRedisPassword, "")
	assert.Equal(t, "from-file", GetSMTPPassword(cfg))
	assert.Equal(t, "file-key", GetGeneratorKey(cfg))
	assert.Equal(t, "file-redis", GetRedisPassword(cfg))

	t.Setenv(EnvSMTPPassword, "from-env")
	t.Setenv(EnvGeneratorKey, "env-key")
	t.Setenv(EnvRedisPassword, "env-redis")
	assert.Equal(t, "from-env", GetSMTPPassword(cfg))
	assert.Equal(t, "env-key", GetGeneratorKey(cfg))
	assert.Equal(t, "env-redis", GetRedisPassword(cfg))
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("FUELTANK_GENERATOR_KEY=dotenv-key\n"), 0o600))

	t.Setenv(EnvGeneratorKey, "")
	require.NoError(t, os.Unsetenv(EnvGeneratorKey))

	require.NoError(t, LoadEnv(filepath.Join(dir, "missing.env"), envFile))
	assert.Equal(t, "dotenv-key", os.Getenv(EnvGeneratorKey))
}

func TestLoadEnv_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("FUELTANK_SMTP_PASSWORD=dotenv\n"), 0o600))

	t.Setenv(EnvSMTPPassword, "already-set")
	require.NoError(t, LoadEnv(envFile))
	assert.Equal(t, "already-set", os.Getenv(EnvSMTPPassword))
}

func TestSuggestionsTimeout(t *testing.T) {
	assert.Equal(t, 8*time.Second, SuggestionsConfig{}.Timeout())
	assert.Equal(t, 3*time.Second, SuggestionsConfig{TimeoutSeconds: 3}.Timeout())
}
