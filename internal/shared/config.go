package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Workout  WorkoutConfig  `toml:"workout"`
	Logging  LoggingConfig  `toml:"logging"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// WorkoutConfig contains defaults for live sessions and new targets.
type WorkoutConfig struct {
	RestExtensionSeconds int     `toml:"rest_extension_seconds"`
	DefaultRestSeconds   int     `toml:"default_rest_seconds"`
	DefaultIncreaseRate  float64 `toml:"default_increase_rate"`
	RepBandStep          float64 `toml:"rep_band_step"`
}

// LoggingConfig controls the level and the rotating file used while the TUI owns the terminal.
type LoggingConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults; environment overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadConfigOrDefault loads path when it exists and falls back to the defaults otherwise.
//
// Environment overrides apply on every path. A file that exists but cannot be loaded
// still yields a usable config; the load error is returned next to it.
func LoadConfigOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		config := DefaultConfig()
		ApplyEnvOverrides(config)
		return config, nil
	}

	config, err := LoadConfig(path)
	if err != nil {
		config = DefaultConfig()
		ApplyEnvOverrides(config)
		return config, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports the first setting that cannot drive a workout.
func (c *Config) Validate() error {
	switch {
	case c.Database.Path == "":
		return fmt.Errorf("%w: database.path is empty", ErrInvalidConfig)
	case c.Workout.RestExtensionSeconds < 0:
		return fmt.Errorf("%w: workout.rest_extension_seconds must not be negative", ErrInvalidConfig)
	case c.Workout.DefaultRestSeconds < 0:
		return fmt.Errorf("%w: workout.default_rest_seconds must not be negative", ErrInvalidConfig)
	case c.Workout.DefaultIncreaseRate <= 0:
		return fmt.Errorf("%w: workout.default_increase_rate must be positive", ErrInvalidConfig)
	case c.Workout.RepBandStep < 0:
		return fmt.Errorf("%w: workout.rep_band_step must not be negative", ErrInvalidConfig)
	}

	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level %q", ErrInvalidConfig, c.Logging.Level)
	}

	return nil
}

// LogLevel returns the parsed logging level, falling back to info.
func (c *Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Logging.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// ApplyEnvOverrides lets REPX_DB_PATH, REPX_LOG_LEVEL and REPX_LOG_FILE replace file values.
func ApplyEnvOverrides(c *Config) {
	if v := os.Getenv("REPX_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("REPX_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("REPX_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
}
