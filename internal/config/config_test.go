package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Room.DefaultMaxPlayers)
	assert.Equal(t, 8, cfg.Room.MaxPlayersLimit)
	assert.Equal(t, 3, cfg.Room.DefaultCountdown)
	assert.Equal(t, time.Second, cfg.Room.TickInterval)
	assert.Equal(t, 5*time.Second, cfg.Room.EngineTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Race.SessionTTL)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
httpPort: "9000"
room:
  defaultMaxPlayers: 4
  tickInterval: 250ms
race:
  resultsTTL: 2h
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("REDIS_URI", "redis://cache:6379")
	t.Setenv("ENGINE_TIMEOUT", "2s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.HTTPPort)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
	assert.Equal(t, 4, cfg.Room.DefaultMaxPlayers)
	assert.Equal(t, 250*time.Millisecond, cfg.Room.TickInterval)
	assert.Equal(t, 2*time.Second, cfg.Room.EngineTimeout)
	assert.Equal(t, 2*time.Hour, cfg.Race.ResultsTTL)
	// untouched sections keep defaults
	assert.Equal(t, 8, cfg.Room.MaxPlayersLimit)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{name: "bad yaml", content: "room: [1, 2"},
		{name: "default players over limit", content: "room:\n  defaultMaxPlayers: 9\n"},
		{name: "zero countdown", content: "room:\n  defaultCountdown: 0\n"},
		{name: "bad duration env", env: map[string]string{"ROOM_TICK_INTERVAL": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := ""
			if tt.content != "" {
				path = filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestAddr(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8082", cfg.Addr("8082"))

	cfg.HTTPPort = "9000"
	assert.Equal(t, ":9000", cfg.Addr("8082"))
}
