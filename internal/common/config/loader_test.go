package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "syncroomd.yaml")
	content := `
logger:
  level: debug
  format: console
server:
  addr: ":9000"
  roster_store: redis
  redis:
    addr: ${SYNCROOM_REDIS_ADDR}
client:
  reconnect_interval: 500000000
  max_reconnect_attempts: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("SYNCROOM_REDIS_ADDR", "127.0.0.1:6379")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "redis", cfg.Server.RosterStore)
	assert.Equal(t, "127.0.0.1:6379", cfg.Server.Redis.Addr)
	assert.Equal(t, 500*time.Millisecond, cfg.Client.ReconnectInterval)
	assert.Equal(t, 2, cfg.Client.MaxReconnectAttempts)

	// defaults fill the gaps
	assert.Equal(t, DefaultPingInterval, cfg.Client.PingInterval)
	assert.Equal(t, DefaultEventLogLimit, cfg.Server.EventLogLimit)
	assert.Equal(t, "syncroom", cfg.Server.Redis.Prefix)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Server.RosterStore)
	assert.Equal(t, DefaultReconnectInterval, cfg.Client.ReconnectInterval)
	assert.Equal(t, DefaultMaxReconnectAttempts, cfg.Client.MaxReconnectAttempts)
	assert.Equal(t, DefaultMetricsPath, cfg.Metrics.Path)
}
