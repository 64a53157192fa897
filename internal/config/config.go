// Package config loads runtime settings from an optional YAML file and
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config defines runtime settings for smartflow.
type Config struct {
	Addr      string      `yaml:"addr"`
	LogLevel  string      `yaml:"logLevel"`
	LogFormat string      `yaml:"logFormat"`
	Store     StoreConfig `yaml:"store"`
}

// StoreConfig selects and configures the saved-flow store.
type StoreConfig struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlitePath"`
	DatabaseURL string `yaml:"databaseURL"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Addr:      ":3000",
		LogLevel:  "info",
		LogFormat: "json",
		Store: StoreConfig{
			Driver:     DriverSQLite,
			SQLitePath: "smartflow.db",
		},
	}
}

// Load reads settings from path (if non-empty), then applies environment
// overrides, then validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	overrides := map[string]*string{
		"SMARTFLOW_ADDR":        &cfg.Addr,
		"SMARTFLOW_LOG_LEVEL":   &cfg.LogLevel,
		"SMARTFLOW_LOG_FORMAT":  &cfg.LogFormat,
		"SMARTFLOW_STORE":       &cfg.Store.Driver,
		"SMARTFLOW_SQLITE_PATH": &cfg.Store.SQLitePath,
		"DATABASE_URL":          &cfg.Store.DatabaseURL,
	}
	for env, field := range overrides {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	c.Store.Driver = strings.ToLower(c.Store.Driver)
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlitePath is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is not set")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid logFormat %q: must be 'text' or 'json'", c.LogFormat)
	}
	return nil
}
