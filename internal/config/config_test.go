package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "127.0.0.1:2000", cfg.Addr())
	assert.Equal(t, "map02", cfg.MapName)
	assert.Equal(t, 1, cfg.Game.DefaultNumPlayers)
	assert.Equal(t, -1, cfg.Game.DefaultNumTurns)
	assert.Contains(t, cfg.Game.TownLevels, 1)
	assert.Contains(t, cfg.Game.TrainLevels, 3)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "db.local", Port: 5433, User: "u", Password: "p",
		DBName: "railgo", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://u:p@db.local:5433/railgo?sslmode=disable", d.DSN())

	t.Setenv("DB_URI", "postgres://override/railgo")
	assert.Equal(t, "postgres://override/railgo", d.DSN())
}

func TestTurnTimeout(t *testing.T) {
	g := Game{TickTime: 10, MaxTickCalculationTime: 3}
	assert.Equal(t, 13*time.Second, g.TurnTimeout())
	assert.Equal(t, 10*time.Second, g.TickPeriod())
}

func TestStartCooldown(t *testing.T) {
	e := RandomEvent{PowerMax: 3, CooldownCoefficient: 5}
	assert.Equal(t, 15, e.StartCooldown())
}

func TestLayerHidden(t *testing.T) {
	g := Game{HiddenMapLayers: []int{1, 10}}
	assert.True(t, g.LayerHidden(1))
	assert.True(t, g.LayerHidden(10))
	assert.False(t, g.LayerHidden(0))
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 2100
map_name: linear
game:
  tick_time: 1
  trains_count: 2
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2100, cfg.Port)
	assert.Equal(t, "linear", cfg.MapName)
	assert.Equal(t, 1, cfg.Game.TickTime)
	assert.Equal(t, 2, cfg.Game.TrainsCount)
	// Untouched keys keep their defaults.
	assert.Equal(t, "127.0.0.1", cfg.BindAddress)
	assert.Equal(t, 5, cfg.Game.MaxEventMessages)
	assert.Contains(t, cfg.Game.TownLevels, 2)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [not a number"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
