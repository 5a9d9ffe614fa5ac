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
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: data/test.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "parkbot", cfg.App.Name)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, 30, cfg.Retrieval.CacheTTLMinutes)
	assert.Equal(t, 2, cfg.Approval.WaitSeconds)
	assert.Equal(t, 250, cfg.Approval.PollIntervalMillis)
	assert.Equal(t, 1000, cfg.Approval.SimulatedDelayMillis)
	assert.Equal(t, 5, cfg.Worker.IntervalSeconds)
	assert.Equal(t, "exports", cfg.Exports.Path)
}

func TestLoad_MissingDatabasePath(t *testing.T) {
	path := writeConfig(t, `
app:
  name: parkbot
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database path")
}

func TestLoad_TelegramRequiresCredentials(t *testing.T) {
	path := writeConfig(t, `
database:
  path: data/test.db
telegram:
  enabled: true
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot token")
}

func TestLoad_TelegramPlaceholderTokenRejected(t *testing.T) {
	path := writeConfig(t, `
database:
  path: data/test.db
telegram:
  enabled: true
  bot_token: YOUR_BOT_TOKEN_HERE
  admin_chat_id: 42
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_TelegramDisabledSkipsCredentialCheck(t *testing.T) {
	path := writeConfig(t, `
database:
  path: data/test.db
telegram:
  enabled: false
`)

	_, err := Load(path)
	assert.NoError(t, err)
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("TEST_PARKBOT_DB", "data/from_env.db")

	path := writeConfig(t, `
database:
  path: ${TEST_PARKBOT_DB}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data/from_env.db", cfg.Database.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "database: [unclosed")
	_, err := Load(path)
	assert.Error(t, err)
}
