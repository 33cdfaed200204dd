package config

import (
	"time"

	"netcanvas/internal/layout"
)

// Config is the root configuration structure
type Config struct {
	Version   int             `yaml:"version"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Inventory InventoryConfig `yaml:"inventory"`
	Editor    EditorConfig    `yaml:"editor"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr            string   `yaml:"addr" validate:"required,hostname_port"`
	AllowedOrigins  []string `yaml:"allowed_origins,omitempty" validate:"omitempty,dive,url"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// Storage drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StorageConfig selects and configures the snapshot store
type StorageConfig struct {
	Driver string `yaml:"driver" validate:"oneof=sqlite postgres"`
	Path   string `yaml:"path" validate:"required_if=Driver sqlite"`
	DSN    string `yaml:"dsn,omitempty" validate:"required_if=Driver postgres"`
}

// InventoryConfig points at the device inventory API.
// An empty URL disables device sync.
type InventoryConfig struct {
	URL          string   `yaml:"url,omitempty" validate:"omitempty,url"`
	TokenEnv     string   `yaml:"token_env,omitempty"`
	Timeout      Duration `yaml:"timeout"`
	PollInterval Duration `yaml:"poll_interval,omitempty"`
}

// Enabled reports whether device sync is configured
func (c InventoryConfig) Enabled() bool {
	return c.URL != ""
}

// EditorConfig holds canvas tunables
type EditorConfig struct {
	MinDistance float64           `yaml:"min_distance" validate:"gt=0"`
	Grid        layout.GridConfig `yaml:"grid"`
	// SeedFile is a topology document loaded onto the canvas at startup
	SeedFile string `yaml:"seed_file,omitempty" validate:"omitempty,filepath"`
	// WatchSeed reloads the canvas whenever SeedFile changes
	WatchSeed bool `yaml:"watch_seed,omitempty" validate:"excluded_without=SeedFile"`
}

// LogConfig controls log output
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	// File enables a rotating log file alongside stderr
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups,omitempty" validate:"gte=0"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
