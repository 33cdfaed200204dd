// Package config provides configuration management for netcanvas.
//
// Config file locations (priority order):
//  1. $NETCANVAS_CONFIG
//  2. ./netcanvas.yaml
//  3. ~/.config/netcanvas/config.yaml
//  4. /etc/netcanvas/config.yaml
//
// Values missing from the file are filled from DefaultConfig, then the
// result is validated.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"netcanvas/internal/layout"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Parse decodes a YAML document, applies defaults and validates the result
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Server: ServerConfig{
			Addr:            "localhost:3000",
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Storage: StorageConfig{
			Driver: DriverSQLite,
			Path:   "./netcanvas.db",
		},
		Inventory: InventoryConfig{
			TokenEnv: "NETCANVAS_INVENTORY_TOKEN",
			Timeout:  Duration(30 * time.Second),
		},
		Editor: EditorConfig{
			MinDistance: layout.DefaultMinDistance,
			Grid:        layout.DefaultGrid(),
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// applyDefaults fills zero-valued fields from DefaultConfig
func (c *Config) applyDefaults() error {
	if err := mergo.Merge(c, *DefaultConfig()); err != nil {
		return fmt.Errorf("apply config defaults: %w", err)
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Storage.Driver = strings.ToLower(c.Storage.Driver)
	return nil
}

// Validate checks the config against its struct constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate config: %w", err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Listen: %s, Storage: %s", c.Server.Addr, c.Storage.Driver)
	if c.Storage.Driver == DriverSQLite {
		summary += fmt.Sprintf(" (%s)", c.Storage.Path)
	}
	if c.Inventory.Enabled() {
		summary += fmt.Sprintf("\nInventory: %s (timeout %s", c.Inventory.URL, c.Inventory.Timeout.Duration())
		if c.Inventory.PollInterval > 0 {
			summary += fmt.Sprintf(", poll every %s", c.Inventory.PollInterval.Duration())
		}
		summary += ")"
	} else {
		summary += "\nInventory: disabled"
	}
	summary += fmt.Sprintf("\nEditor: min distance %.0f, grid %d columns", c.Editor.MinDistance, c.Editor.Grid.Columns)
	if c.Editor.SeedFile != "" {
		summary += fmt.Sprintf(", seed %s", c.Editor.SeedFile)
		if c.Editor.WatchSeed {
			summary += " (watched)"
		}
	}
	return summary
}
