// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package config loads chatvar configuration from YAML, .env files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"nickandperla.net/chatvar/internal/eval"
)

// Environment variables that override file settings.
const (
	EnvEnabled      = "CHATVAR_ENABLED"
	EnvDebug        = "CHATVAR_DEBUG"
	EnvConditionals = "CHATVAR_CONDITIONALS"
	EnvMaxPasses    = "CHATVAR_MAX_PASSES"
	EnvDB           = "CHATVAR_DB"
	EnvAddr         = "CHATVAR_ADDR"
	EnvLogFormat    = "CHATVAR_LOG_FORMAT"
)

// Config holds all chatvar configuration.
type Config struct {
	Enabled      bool `yaml:"enabled"`
	Debug        bool `yaml:"debug"`
	Conditionals bool `yaml:"conditionals"`
	MaxPasses    int  `yaml:"max_passes"`

	// Variables are static values consulted after every other store.
	Variables map[string]string `yaml:"variables"`

	Store   StoreConfig   `yaml:"store"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// StoreConfig selects the persistent variable store.
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite, memory
	Path   string `yaml:"path"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeout     string `yaml:"read_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		Debug:        false,
		Conditionals: true,
		Variables:    map[string]string{},
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   DefaultDBPath(),
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8337",
			ReadTimeout:     "10s",
			ShutdownTimeout: "5s",
		},
		Logging: LoggingConfig{
			Format: "console",
		},
	}
}

// DefaultDBPath returns ~/.chatvar.db, or chatvar.db when there is no home
// directory.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "chatvar.db"
	}
	return filepath.Join(home, ".chatvar.db")
}

// Load reads configuration from a YAML file, then applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	for _, b := range []struct {
		env string
		dst *bool
	}{
		{EnvEnabled, &c.Enabled},
		{EnvDebug, &c.Debug},
		{EnvConditionals, &c.Conditionals},
	} {
		v := strings.TrimSpace(os.Getenv(b.env))
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", b.env, err)
		}
		*b.dst = parsed
	}

	if v := strings.TrimSpace(os.Getenv(EnvMaxPasses)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxPasses, err)
		}
		c.MaxPasses = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvDB)); v != "" {
		c.Store.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		c.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		c.Logging.Format = v
	}
	return nil
}

// Validate checks the configuration for values no component can use.
func (c *Config) Validate() error {
	if c.MaxPasses < 0 {
		return fmt.Errorf("max_passes must not be negative (got %d)", c.MaxPasses)
	}
	switch c.Store.Driver {
	case "sqlite":
		if strings.TrimSpace(c.Store.Path) == "" {
			return errors.New("store.path is required for the sqlite driver")
		}
	case "memory":
	default:
		return fmt.Errorf("invalid store driver: %q (valid: sqlite, memory)", c.Store.Driver)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %q (valid: json, console)", c.Logging.Format)
	}
	if _, err := time.ParseDuration(c.Server.ReadTimeout); err != nil {
		return fmt.Errorf("server.read_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("server.shutdown_timeout: %w", err)
	}
	return nil
}

// Settings returns the pipeline settings.
func (c *Config) Settings() eval.Settings {
	return eval.Settings{
		Enabled:      c.Enabled,
		Debug:        c.Debug,
		Conditionals: c.Conditionals,
		MaxPasses:    c.MaxPasses,
	}
}

// GetReadTimeout returns the server read timeout as a duration.
func (c *Config) GetReadTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ReadTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetShutdownTimeout returns the graceful shutdown timeout as a duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}
