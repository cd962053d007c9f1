package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Store   StoreConfig   `toml:"store" yaml:"store"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
	Game    GameConfig    `toml:"game" yaml:"game"`
}

type StoreConfig struct {
	Backend       string `toml:"backend" yaml:"backend"` // "file" or "redis"
	Dir           string `toml:"dir" yaml:"dir"`
	RedisAddr     string `toml:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `toml:"redis_password" yaml:"redis_password"`
	RedisDB       int    `toml:"redis_db" yaml:"redis_db"`
	KeyPrefix     string `toml:"key_prefix" yaml:"key_prefix"`
}

type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "json" or "console"
}

// GameConfig sizes the demo game. TickRate paces the simulated ticks, zero
// runs them back to back.
type GameConfig struct {
	Goblins  int           `toml:"goblins" yaml:"goblins"`
	Ticks    int           `toml:"ticks" yaml:"ticks"`
	Seed     int64         `toml:"seed" yaml:"seed"`
	TickRate time.Duration `toml:"tick_rate" yaml:"tick_rate"`
}

// Load reads a TOML file, or YAML when the extension is .yaml or .yml, over
// the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read config %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, eris.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

func Defaults() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:   "file",
			Dir:       "saves",
			RedisAddr: "localhost:6379",
			KeyPrefix: "ooftn",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Game: GameConfig{
			Goblins:  8,
			Ticks:    20,
			Seed:     1,
			TickRate: 100 * time.Millisecond,
		},
	}
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "file":
		if c.Store.Dir == "" {
			return eris.New("store.dir is required for the file backend")
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			return eris.New("store.redis_addr is required for the redis backend")
		}
	default:
		return eris.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return eris.Wrapf(err, "logging.level")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return eris.Errorf("unknown logging format %q", c.Logging.Format)
	}
	if c.Game.Goblins < 1 {
		return eris.New("game.goblins must be positive")
	}
	if c.Game.Ticks < 0 {
		return eris.New("game.ticks must not be negative")
	}
	if c.Game.TickRate < 0 {
		return eris.New("game.tick_rate must not be negative")
	}
	return nil
}

// NewLogger builds the logger described by the logging section.
func (c LoggingConfig) NewLogger(out io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		return zerolog.Nop(), eris.Wrapf(err, "logging.level")
	}
	if c.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}
