package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 304, cfg.Window.Width)
	assert.Equal(t, 242, cfg.Window.Height)
	assert.Equal(t, 28, cfg.PlatformOffset("darwin"))
	assert.Equal(t, 0, cfg.PlatformOffset("windows"))
	assert.Equal(t, "c2patool", cfg.C2paTool.Binary)
	assert.True(t, cfg.Sqlite.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
window:
  width: 320
  platform_offsets:
    darwin: 30
    linux: 4
c2patool:
  binary: /opt/c2patool
log:
  level: info
  writer: [console]
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 320, cfg.Window.Width)
	assert.Equal(t, 242, cfg.Window.Height)
	assert.Equal(t, 30, cfg.PlatformOffset("darwin"))
	assert.Equal(t, 4, cfg.PlatformOffset("linux"))
	assert.Equal(t, "/opt/c2patool", cfg.C2paTool.Binary)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, []string{"console"}, cfg.Log.Writer)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  writer: [syslog]\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "syslog")
}
