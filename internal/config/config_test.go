// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.Enabled)
	assert.False(t, cfg.Debug)
	assert.True(t, cfg.Conditionals)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	require.NoError(t, cfg.Validate())

	s := cfg.Settings()
	assert.True(t, s.Enabled)
	assert.True(t, s.Conditionals)
	assert.Zero(t, s.MaxPasses)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server.Addr, cfg.Server.Addr)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatvar.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
debug: true
conditionals: false
max_passes: 12
variables:
  好感度: "50"
store:
  driver: memory
server:
  addr: ":9000"
  shutdown_timeout: 2s
logging:
  format: json
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.Enabled, "unset keys keep their defaults")
	assert.True(t, cfg.Debug)
	assert.False(t, cfg.Conditionals)
	assert.Equal(t, 12, cfg.MaxPasses)
	assert.Equal(t, map[string]string{"好感度": "50"}, cfg.Variables)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.GetShutdownTimeout())
	assert.Equal(t, 10*time.Second, cfg.GetReadTimeout())
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enabled: [unterminated"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestEnvOverrides(t *testing.T) {
	t.Run("booleans and numbers", func(t *testing.T) {
		t.Setenv(EnvEnabled, "false")
		t.Setenv(EnvDebug, "1")
		t.Setenv(EnvConditionals, "FALSE")
		t.Setenv(EnvMaxPasses, "7")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.False(t, cfg.Enabled)
		assert.True(t, cfg.Debug)
		assert.False(t, cfg.Conditionals)
		assert.Equal(t, 7, cfg.MaxPasses)
	})

	t.Run("paths and addresses", func(t *testing.T) {
		t.Setenv(EnvDB, "/tmp/vars.db")
		t.Setenv(EnvAddr, ":1234")
		t.Setenv(EnvLogFormat, "json")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "/tmp/vars.db", cfg.Store.Path)
		assert.Equal(t, ":1234", cfg.Server.Addr)
		assert.Equal(t, "json", cfg.Logging.Format)
	})

	t.Run("env beats file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "c.yaml")
		require.NoError(t, os.WriteFile(path, []byte("debug: false\n"), 0o644))
		t.Setenv(EnvDebug, "true")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.True(t, cfg.Debug)
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Setenv(EnvDebug, "maybe")
		_, err := Load("")
		assert.ErrorContains(t, err, EnvDebug)
	})

	t.Run("invalid number", func(t *testing.T) {
		t.Setenv(EnvMaxPasses, "many")
		_, err := Load("")
		assert.ErrorContains(t, err, EnvMaxPasses)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"negative passes", func(c *Config) { c.MaxPasses = -1 }, "max_passes"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "redis" }, "invalid store driver"},
		{"sqlite without path", func(c *Config) { c.Store.Path = " " }, "store.path"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "invalid logging format"},
		{"bad timeout", func(c *Config) { c.Server.ReadTimeout = "soon" }, "read_timeout"},
		{"bad shutdown", func(c *Config) { c.Server.ShutdownTimeout = "" }, "shutdown_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}

	cfg := DefaultConfig()
	cfg.Store = StoreConfig{Driver: "memory"}
	assert.NoError(t, cfg.Validate(), "memory store needs no path")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "chatvar.yaml")
	cfg := DefaultConfig()
	cfg.Debug = true
	cfg.Variables["名字"] = "小明"
	require.NoError(t, cfg.Save(path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestLoadDotEnv(t *testing.T) {
	const key = "CHATVAR_TEST_DOTENV"
	t.Cleanup(func() { os.Unsetenv(key) })

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-file\n"), 0o644))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv(key))

	// Existing variables win over the file.
	t.Setenv(key, "from-env")
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-env", os.Getenv(key))
}
