// Package config loads server settings: defaults, then an optional YAML file, then MUD_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/mudcore/internal/core/storage"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds server configuration.
type Config struct {
	// Network settings
	ListenAddr     string `yaml:"listen_addr" env:"LISTEN_ADDR"`
	MaxClients     int    `yaml:"max_clients" env:"MAX_CLIENTS"`
	MaxMessageSize int64  `yaml:"max_message_size" env:"MAX_MESSAGE_SIZE"`
	// Tokens maps bearer tokens to accounts. When empty, clients name their account in the
	// "account" query parameter.
	Tokens map[string]string `yaml:"tokens" env:"TOKENS"`
	// Admins lists accounts with staff commands.
	Admins []string `yaml:"admins" env:"ADMINS" envSeparator:","`

	// Simulation settings
	TickInterval time.Duration `yaml:"tick_interval" env:"TICK_INTERVAL"`
	// MoveDelay is the number of ticks one step costs.
	MoveDelay int    `yaml:"move_delay" env:"MOVE_DELAY"`
	StartRoom string `yaml:"start_room" env:"START_ROOM"`
	// Strict makes misuse of deleted entities panic.
	Strict bool `yaml:"strict" env:"STRICT"`

	// Content and persistence
	ModulesPath      string        `yaml:"modules_path" env:"MODULES_PATH"`
	StorageDriver    string        `yaml:"storage_driver" env:"STORAGE_DRIVER"`
	SavePath         string        `yaml:"save_path" env:"SAVE_PATH"`
	SQLitePath       string        `yaml:"sqlite_path" env:"SQLITE_PATH"`
	AutosaveInterval time.Duration `yaml:"autosave_interval" env:"AUTOSAVE_INTERVAL"`

	// Logging
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL"`
	LogEncoding string `yaml:"log_encoding" env:"LOG_ENCODING"`
}

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "MUD_"

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		ListenAddr:       "127.0.0.1:4000",
		MaxClients:       1000,
		MaxMessageSize:   4 * 1024,
		TickInterval:     100 * time.Millisecond,
		MoveDelay:        1,
		StartRoom:        "start",
		ModulesPath:      "modules",
		StorageDriver:    storage.DriverFile,
		SavePath:         "data/saves",
		SQLitePath:       "data/world.db",
		AutosaveInterval: 5 * time.Minute,
		LogLevel:         "info",
		LogEncoding:      "console",
	}
}

// Load builds the configuration. path may be empty, in which case only defaults and the
// environment apply.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ParseEnv overlays MUD_* environment variables onto target.
func ParseEnv(target *Config) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ListenAddr) == "" {
		errs = append(errs, fmt.Errorf("%w: listen address is required", ErrInvalidConfig))
	}
	if c.MaxClients < 0 {
		errs = append(errs, fmt.Errorf("%w: max clients cannot be negative", ErrInvalidConfig))
	}
	if c.MaxMessageSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: max message size must be positive", ErrInvalidConfig))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("%w: tick interval must be positive", ErrInvalidConfig))
	}
	if c.MoveDelay < 0 {
		errs = append(errs, fmt.Errorf("%w: move delay cannot be negative", ErrInvalidConfig))
	}
	if strings.TrimSpace(c.StartRoom) == "" {
		errs = append(errs, fmt.Errorf("%w: start room is required", ErrInvalidConfig))
	}
	if c.AutosaveInterval < 0 {
		errs = append(errs, fmt.Errorf("%w: autosave interval cannot be negative", ErrInvalidConfig))
	}
	switch c.StorageDriver {
	case storage.DriverFile:
		if strings.TrimSpace(c.SavePath) == "" {
			errs = append(errs, fmt.Errorf("%w: save path is required for the file driver", ErrInvalidConfig))
		}
	case storage.DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			errs = append(errs, fmt.Errorf("%w: sqlite path is required for the sqlite driver", ErrInvalidConfig))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.StorageDriver))
	}
	switch c.LogEncoding {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: log encoding must be console or json", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}
