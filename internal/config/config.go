// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/javiermolinar/agenda/internal/dateutil"
	"github.com/javiermolinar/agenda/internal/reschedule"
)

// Config holds the application configuration.
type Config struct {
	Reschedule RescheduleConfig `toml:"reschedule"`
	Storage    StorageConfig    `toml:"storage"`
	UI         UIConfig         `toml:"ui"`
	Log        LogConfig        `toml:"log"`
}

// RescheduleConfig holds the defaults used when flags are omitted.
type RescheduleConfig struct {
	Mode      string `toml:"mode"`       // "none", "time", "duration"
	Gap       string `toml:"gap"`        // e.g., "5m" or "5"
	FitBlocks bool   `toml:"fit_blocks"` // fit session blocks to their children first
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// UIConfig holds TUI settings.
type UIConfig struct {
	Theme string `toml:"theme"` // "mocha", "macchiato", "frappe", "latte"
	Event int64  `toml:"event"` // event used when --event is omitted; 0 uses the only event
}

// LogConfig holds debug logging settings.
type LogConfig struct {
	Debug bool   `toml:"debug"`
	Path  string `toml:"path"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Reschedule: RescheduleConfig{
			Mode:      string(reschedule.ModeTime),
			Gap:       "0m",
			FitBlocks: false,
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		UI: UIConfig{
			Theme: "frappe",
		},
		Log: LogConfig{
			Path: "agenda-debug.log",
		},
	}
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "agenda.db"
	}
	return filepath.Join(home, ".local", "share", "agenda", "agenda.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "agenda", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	// Try to load from file (not an error if it doesn't exist)
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)
	cfg.Log.Path = expandPath(cfg.Log.Path)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AGENDA_MODE"); v != "" {
		cfg.Reschedule.Mode = v
	}
	if v := os.Getenv("AGENDA_GAP"); v != "" {
		cfg.Reschedule.Gap = v
	}
	if v := os.Getenv("AGENDA_FIT_BLOCKS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Reschedule.FitBlocks = b
		}
	}

	if v := os.Getenv("AGENDA_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}

	if v := os.Getenv("AGENDA_UI_THEME"); v != "" {
		cfg.UI.Theme = v
	}
	if v := os.Getenv("AGENDA_EVENT"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.UI.Event = id
		}
	}

	if v := os.Getenv("AGENDA_DEBUG"); v != "" {
		cfg.Log.Debug = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("AGENDA_LOG_PATH"); v != "" {
		cfg.Log.Path = v
	}
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := reschedule.ParseMode(c.Reschedule.Mode); err != nil {
		return fmt.Errorf("mode: %w", err)
	}
	if _, err := dateutil.ParseGap(c.Reschedule.Gap); err != nil {
		return fmt.Errorf("gap: %w", err)
	}
	if c.Storage.DBPath == "" {
		return errors.New("db_path must be set")
	}
	if c.UI.Event < 0 {
		return fmt.Errorf("invalid event id: %d", c.UI.Event)
	}
	if c.Log.Debug && c.Log.Path == "" {
		return errors.New("log path must be set when debug is enabled")
	}
	return nil
}

// Mode returns the configured default mode.
func (c *Config) Mode() reschedule.Mode {
	m, err := reschedule.ParseMode(c.Reschedule.Mode)
	if err != nil {
		return reschedule.ModeTime
	}
	return m
}

// Gap returns the configured default gap.
func (c *Config) Gap() time.Duration {
	d, err := dateutil.ParseGap(c.Reschedule.Gap)
	if err != nil {
		return 0
	}
	return d
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
