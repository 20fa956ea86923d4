package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Outliner OutlinerConfig `toml:"outliner"`
	Editor   EditorConfig   `toml:"editor"`
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
}

type OutlinerConfig struct {
	ShowHierarchy  bool          `toml:"show_hierarchy"`
	Mode           string        `toml:"mode"` // "browse" or "picker"
	SortColumn     string        `toml:"sort_column"`
	SortDirection  string        `toml:"sort_direction"` // "asc", "desc" or "none"
	ResortInterval time.Duration `toml:"resort_interval"`
	HideEphemeral  bool          `toml:"hide_ephemeral"`
	OnlySelected   bool          `toml:"only_selected"`
	FilterText     string        `toml:"filter_text"`
	Filters        []string      `toml:"filters"` // Lua filters to enable by name
}

type EditorConfig struct {
	World      string        `toml:"world"`
	Scene      string        `toml:"scene"`       // YAML scene description
	ScriptsDir string        `toml:"scripts_dir"` // Lua filters and columns, empty = none
	TickRate   time.Duration `toml:"tick_rate"`
	Simulating bool          `toml:"simulating"`
	SaveEvery  int           `toml:"save_every"` // ticks between folder saves
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn"` // empty disables persistence
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return defaults()
}

func defaults() *Config {
	return &Config{
		Outliner: OutlinerConfig{
			ShowHierarchy:  true,
			Mode:           "browse",
			SortColumn:     "label",
			SortDirection:  "asc",
			ResortInterval: time.Second,
			HideEphemeral:  true,
		},
		Editor: EditorConfig{
			World:     "Untitled",
			TickRate:  50 * time.Millisecond,
			SaveEvery: 100,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
