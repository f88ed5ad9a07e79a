package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncroom/syncroom/internal/common/config"
)

func TestNew_Defaults(t *testing.T) {
	cfg := &config.LoggerConfig{}
	log, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, log)

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
}

func TestNew_FileOutput(t *testing.T) {
	cfg := &config.LoggerConfig{
		Output:   "file",
		FilePath: filepath.Join(t.TempDir(), "logs", "syncroomd.log"),
		Format:   "console",
		Level:    "debug",
	}
	log, err := New(cfg)
	require.NoError(t, err)
	log.Debug("hello")
	require.NoError(t, log.Sync())
}

func TestLevel_UnknownFallsBackToInfo(t *testing.T) {
	assert.Equal(t, level("info"), level("verbose"))
}
