package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebelice/lazyview/internal/search"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "{}\n"))
	require.NoError(t, err)
	assert.Equal(t, GetDefaults(), cfg)

	bc := cfg.ScrollBuffer()
	assert.Equal(t, 33, bc.RowHeight)
	assert.Equal(t, 16, bc.RowPadding)
	assert.Equal(t, 40, bc.BufferRequestSize)
	assert.Equal(t, 100*time.Millisecond, bc.ScrollInterval)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadFileOverrides(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, `
log:
  level: debug
  format: json
buffer:
  buffer_request_size: 100
search:
  mode: compat
  hide_non_matching: false
connection:
  host: db.internal
  port: 6543
`))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.LoggingConfig().Format)
	assert.Equal(t, 100, cfg.Buffer.RequestSize)
	assert.Equal(t, 33, cfg.Buffer.RowHeight)
	assert.Equal(t, string(search.ModeCompat), cfg.Search.Mode)
	assert.False(t, cfg.Search.HideNonMatching)
	assert.Equal(t, "db.internal", cfg.Connection.Host)
	assert.Equal(t, 6543, cfg.Connection.Port)
}

func TestLoadFileEnvironment(t *testing.T) {
	t.Setenv("LAZYVIEW_CONNECTION_HOST", "env-host")
	cfg, err := LoadFile(writeConfig(t, "connection:\n  host: file-host\n"))
	require.NoError(t, err)
	assert.Equal(t, "env-host", cfg.Connection.Host)
}

func TestLoadFileInvalid(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "search:\n  mode: fuzzy\n"))
	assert.ErrorContains(t, err, "unknown search mode")

	_, err = LoadFile(writeConfig(t, "date:\n  timezone: Mars/Olympus\n"))
	assert.ErrorContains(t, err, "unknown timezone")

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
