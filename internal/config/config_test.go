package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := writeConfig(t, `
database:
  host: db
  port: "5432"
  user: app
  password: secret
  name: reviews
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "host=db port=5432 user=app password=secret dbname=reviews sslmode=disable", cfg.Database.GetDSN())
	assert.True(t, cfg.Database.Migrate)
	assert.Equal(t, int32(25), cfg.Database.MaxConns)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.GetAddress())
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.False(t, cfg.Queue.Enabled)
	assert.Equal(t, "reputation_events", cfg.Queue.Name)
	assert.Equal(t, 5, cfg.Matching.DefaultLimit)
	assert.Equal(t, 10, cfg.Leaderboard.Limit)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: "9000"
  shutdown_timeout: 3s
matching:
  default_limit: 3
`)

	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("QUEUE_ENABLED", "true")
	t.Setenv("LEADERBOARD_LIMIT", "50")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.True(t, cfg.Queue.Enabled)
	assert.Equal(t, 50, cfg.Leaderboard.Limit)
	assert.Equal(t, 3, cfg.Matching.DefaultLimit)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}
