package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "equips.json", cfg.Files.Equipment)
	assert.Equal(t, "plc.json", cfg.Files.Controllers)
	assert.Equal(t, 5*time.Second, cfg.PLC.Timeout)
	assert.True(t, cfg.Journal.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rheditor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
files:
  equipment: conf/equips.yaml
plc:
  timeout: 2s
http:
  listen: 127.0.0.1:9000
journal:
  enabled: false
cache_ttl: 10m
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "conf/equips.yaml", cfg.Files.Equipment)
	assert.Equal(t, "plc.json", cfg.Files.Controllers)
	assert.Equal(t, 2*time.Second, cfg.PLC.Timeout)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Listen)
	assert.Equal(t, 5.0, cfg.HTTP.RateLimit)
	assert.False(t, cfg.Journal.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rheditor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("plc: [1, 2"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	t.Setenv(EnvConfig, "")
	assert.Equal(t, DefaultPath, Path())
	t.Setenv(EnvConfig, "/etc/rheditor.yaml")
	assert.Equal(t, "/etc/rheditor.yaml", Path())
}
