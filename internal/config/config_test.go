package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/ooftn-persist/internal/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "savegame.toml", `
[store]
backend = "redis"
redis_addr = "cache:6379"
key_prefix = "dungeon"

[game]
goblins = 3
tick_rate = "250ms"
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "cache:6379", cfg.Store.RedisAddr)
	assert.Equal(t, "dungeon", cfg.Store.KeyPrefix)
	assert.Equal(t, 3, cfg.Game.Goblins)
	assert.Equal(t, 250*time.Millisecond, cfg.Game.TickRate)
	// Untouched keys keep their defaults.
	assert.Equal(t, "saves", cfg.Store.Dir)
	assert.Equal(t, 20, cfg.Game.Ticks)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "savegame.yaml", `
store:
  dir: /tmp/saves
logging:
  level: debug
  format: json
game:
  seed: 42
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/saves", cfg.Store.Dir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, int64(42), cfg.Game.Seed)
	assert.Equal(t, "file", cfg.Store.Backend)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad toml", "c.toml", "[store"},
		{"bad yaml", "c.yml", "store: [oops"},
		{"unknown backend", "c.toml", "[store]\nbackend = \"s3\""},
		{"bad level", "c.toml", "[logging]\nlevel = \"loud\""},
		{"bad format", "c.toml", "[logging]\nformat = \"xml\""},
		{"negative ticks", "c.toml", "[game]\nticks = -1"},
		{"zero goblins", "c.toml", "[game]\ngoblins = 0"},
		{"negative tick rate", "c.yaml", "game:\n  tick_rate: -1s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeFile(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := config.LoggingConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Str("slot", "a").Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"slot":"a"`)
	assert.Contains(t, buf.String(), `"message":"shown"`)
}
