package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutPath(t *testing.T) {
	t.Setenv("GAME_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Server.TickRate)
	assert.Equal(t, 50*time.Millisecond, cfg.Hand.BurstWindow)
	assert.Equal(t, 500*time.Millisecond, cfg.Hand.BreakTimeout)
	assert.Equal(t, 50*time.Millisecond, cfg.Server.TickInterval())
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Empty(t, cfg.Admin.PasswordHash, "Вход по паролю по умолчанию отключен")
	assert.False(t, cfg.World.Cache.Enabled(), "Кеш Redis по умолчанию выключен")
}

func TestLoad_FromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  tick_rate: 10
hand:
  reach: 6.5
  burst_window: 100ms
world:
  data_path: /tmp/world
  generator:
    seed: 99
  cache:
    redis_url: localhost:6379
admin:
  username: root
`), 0644))
	t.Setenv("GAME_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, cfg.Server.TickInterval())
	assert.Equal(t, 6.5, cfg.Hand.Reach)
	assert.Equal(t, 100*time.Millisecond, cfg.Hand.BurstWindow)
	assert.Equal(t, 500*time.Millisecond, cfg.Hand.BreakTimeout, "Незаданные значения остаются по умолчанию")
	assert.Equal(t, int64(99), cfg.World.Generator.Seed)
	assert.Equal(t, "stone", cfg.World.Generator.Base)
	assert.True(t, cfg.World.Cache.Enabled())
	assert.Equal(t, 10*time.Minute, cfg.World.Cache.TTL)
	assert.Equal(t, "root", cfg.Admin.Username)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("hand:\n  reach: -1\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("hand: [1, 2"))
	assert.Error(t, err)
}

func TestGetAdminPort(t *testing.T) {
	s := ServerConfig{}
	t.Setenv("GAME_ADMIN_PORT", "9191")
	assert.Equal(t, 9191, s.GetAdminPort())

	s.AdminPort = 8000
	assert.Equal(t, 8000, s.GetAdminPort(), "Порт из конфига имеет приоритет")
}
