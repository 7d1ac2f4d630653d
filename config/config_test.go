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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Mode)
	assert.Equal(t, 500*time.Millisecond, cfg.Script.Timeout)
	assert.Equal(t, 30, cfg.Script.MaxDepth)
	assert.Equal(t, "square", cfg.World.StartRoom)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  port: 8081
  debug: true
database:
  mode: memory
world:
  data_dir: ./data/world
  start_room: plaza
  heartbeat_ms: 1000
script:
  timeout: 2s
  max_depth: 8
security:
  jwt_secret: sekrit
  rate_limit_rps: 25
  admin_whitelist: ["127.0.0.1"]
`))
	require.NoError(t, err)

	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, "memory", cfg.Database.Mode)
	assert.Equal(t, "plaza", cfg.World.StartRoom)
	assert.Equal(t, 1000, cfg.World.HeartbeatMs)
	assert.Equal(t, 2*time.Second, cfg.Script.Timeout)
	assert.Equal(t, 8, cfg.Script.MaxDepth)
	assert.Equal(t, "sekrit", cfg.Security.JWTSecret)
	assert.Equal(t, []string{"127.0.0.1"}, cfg.Security.AdminWhitelist)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
