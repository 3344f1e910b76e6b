// Package config handles loading and saving moonview configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/moonview/config.yaml
//   - Data:    ~/.local/share/moonview/ (the favorites database)
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// UIConfig holds UI preference settings.
type UIConfig struct {
	// PressThresholdMS is the long-press threshold in milliseconds.
	PressThresholdMS int `yaml:"press_threshold_ms,omitempty"`
	// MoveTolerance is the pointer movement tolerance in cells before a
	// press is cancelled.
	MoveTolerance int `yaml:"move_tolerance,omitempty"`
	// Mouse enables mouse tracking in the TUI.
	Mouse *bool `yaml:"mouse,omitempty"`
}

// WatchConfig controls the favorites database watcher.
type WatchConfig struct {
	Enabled        *bool `yaml:"enabled,omitempty"`
	PollIntervalMS int   `yaml:"poll_interval_ms,omitempty"`
	DebounceMS     int   `yaml:"debounce_ms,omitempty"`
}

// Config is the top-level configuration for moonview.
type Config struct {
	// DBPath overrides the favorites database location.
	DBPath string      `yaml:"db_path,omitempty"`
	UI     UIConfig    `yaml:"ui,omitempty"`
	Watch  WatchConfig `yaml:"watch,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	mouse := true
	watch := true
	return Config{
		UI: UIConfig{
			PressThresholdMS: 500,
			MoveTolerance:    3,
			Mouse:            &mouse,
		},
		Watch: WatchConfig{
			Enabled:        &watch,
			PollIntervalMS: 2000,
			DebounceMS:     200,
		},
	}
}

// ConfigDir returns the XDG config directory for moonview.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "moonview")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "moonview")
}

// DataDir returns the XDG data directory for moonview.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "moonview")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "moonview")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// DefaultDBPath returns the default favorites database location.
func DefaultDBPath() string {
	dir := DataDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "moonview.db")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path. A missing file is not an
// error; defaults are returned.
func LoadFrom(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return DefaultConfig(), fmt.Errorf("cannot read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("cannot parse config: %w", err)
	}
	cfg.applyFloors()
	return cfg, nil
}

// Save writes the config to the XDG config directory, creating it if
// needed.
func Save(cfg Config) error {
	dir := ConfigDir()
	if dir == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0o644)
}

// applyFloors clamps nonsensical values back to defaults.
func (c *Config) applyFloors() {
	def := DefaultConfig()
	if c.UI.PressThresholdMS <= 0 {
		c.UI.PressThresholdMS = def.UI.PressThresholdMS
	}
	if c.UI.MoveTolerance <= 0 {
		c.UI.MoveTolerance = def.UI.MoveTolerance
	}
	if c.Watch.PollIntervalMS <= 0 {
		c.Watch.PollIntervalMS = def.Watch.PollIntervalMS
	}
	if c.Watch.DebounceMS <= 0 {
		c.Watch.DebounceMS = def.Watch.DebounceMS
	}
}
