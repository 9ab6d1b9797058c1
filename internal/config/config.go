// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultService        = "com.system76.CosmicSettingsDaemon"
	DefaultObjectPath     = "/com/system76/CosmicSettingsDaemon"
	DefaultInterface      = "com.system76.CosmicSettingsDaemon"
	DefaultRequestQueue   = 16
	DefaultBrightnessStep = 5
	DefaultIcon           = "☼"
	DefaultLogLevel       = "info"
	DefaultCLITimeout     = 5 * time.Second
)

// Config represents the controlcenter configuration.
// Loaded from ~/.config/controlcenter/config.toml
type Config struct {
	Daemon DaemonConfig `toml:"daemon"`
	UI     UIConfig     `toml:"ui"`
	Log    LogConfig    `toml:"log"`
	CLI    CLIConfig    `toml:"cli"`
}

// DaemonConfig describes where the settings daemon lives on the session bus.
type DaemonConfig struct {
	Service      string `toml:"service"`       // Well-known bus name
	Path         string `toml:"path"`          // Object path
	Interface    string `toml:"interface"`     // Interface owning the brightness properties
	RequestQueue int    `toml:"request_queue"` // Pending requests before new ones are dropped
}

// UIConfig holds panel and popup settings.
type UIConfig struct {
	BrightnessStep int    `toml:"brightness_step"` // Slider step for left/right
	ShowHelp       bool   `toml:"show_help"`
	Icon           string `toml:"icon"` // Glyph shown on the panel button
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
	File  string `toml:"file"`  // Empty = state dir default
}

// CLIConfig holds settings for the headless commands.
type CLIConfig struct {
	Timeout Duration `toml:"timeout"` // How long status/set wait for daemon state
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Daemon: DaemonConfig{
			Service:      DefaultService,
			Path:         DefaultObjectPath,
			Interface:    DefaultInterface,
			RequestQueue: DefaultRequestQueue,
		},
		UI: UIConfig{
			BrightnessStep: DefaultBrightnessStep,
			ShowHelp:       true,
			Icon:           DefaultIcon,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		CLI: CLIConfig{
			Timeout: Duration(DefaultCLITimeout),
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "controlcenter", "config.toml")
}

// StatePath returns the path to the state directory.
// Uses XDG_STATE_HOME if set, otherwise ~/.local/state.
func StatePath() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "controlcenter")
}

// LogPath returns the log file used while the TUI owns the terminal.
func (c *Config) LogPath() string {
	if c.Log.File != "" {
		return expandPath(c.Log.File)
	}
	return filepath.Join(StatePath(), "controlcenter.log")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Daemon.Service == "" {
		return errors.New("daemon.service must not be empty")
	}
	if !strings.HasPrefix(c.Daemon.Path, "/") {
		return fmt.Errorf("daemon.path must be an absolute object path, got %q", c.Daemon.Path)
	}
	if c.Daemon.Interface == "" {
		return errors.New("daemon.interface must not be empty")
	}
	if c.Daemon.RequestQueue < 1 || c.Daemon.RequestQueue > 1024 {
		return fmt.Errorf("daemon.request_queue must be between 1 and 1024, got %d", c.Daemon.RequestQueue)
	}

	if c.UI.BrightnessStep < 1 {
		return fmt.Errorf("ui.brightness_step must be positive, got %d", c.UI.BrightnessStep)
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}

	if c.CLI.Timeout.Duration() <= 0 {
		return fmt.Errorf("cli.timeout must be positive, got %s", c.CLI.Timeout.Duration())
	}

	return nil
}

// ParseLevel maps a config level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", level)
	}
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
