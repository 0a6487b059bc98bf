package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Mode)
	assert.Equal(t, "./data/levels", cfg.Levels.DataPath)
	assert.Equal(t, 3.0, cfg.Game.PlayerSpeed)
	assert.Equal(t, 1.6, cfg.Warden.PatrolSpeed)
	assert.Equal(t, 200*time.Millisecond, cfg.Warden.KillInterval)
	assert.Equal(t, 72*time.Hour, cfg.Security.JWTTTLH)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
warden:
  chase_speed: 4.2
  lose_player_time: 8s
  random_patrol: true
game:
  contact_radius: 1.2
security:
  allowed_origins: ["https://game.example.com"]
`))
	require.NoError(t, err)

	assert.Equal(t, 4.2, cfg.Warden.ChaseSpeed)
	assert.Equal(t, 8*time.Second, cfg.Warden.LosePlayerTime)
	assert.True(t, cfg.Warden.RandomPatrol)
	assert.Equal(t, 1.2, cfg.Game.ContactRadius)
	assert.Equal(t, []string{"https://game.example.com"}, cfg.Security.AllowedOrigins)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
