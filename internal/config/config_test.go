package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/builderbot/internal/config"
)

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
store_root = "/srv/store"
poll_interval = "30s"

[layout]
rules_size = 36
title_origin = { x = 100, y = 80 }
`), 0644))

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/store", cfg.StoreRoot)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 36.0, cfg.Layout.RulesSize)
	assert.Equal(t, config.Point{X: 100, Y: 80}, cfg.Layout.TitleOrigin)

	// Untouched values keep their defaults.
	assert.Equal(t, 56.0, cfg.Layout.TitleSize)
	assert.Equal(t, config.Point{X: 89, Y: 590}, cfg.Layout.RulesOrigin)
	assert.Equal(t, 90, cfg.Layout.JPEGQuality)
	assert.Equal(t, "/builds/last_build.json", cfg.MarkerPath())
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`store_root = "/srv/store"`), 0644))

	t.Setenv("BUILDERBOT_STORE_ROOT", "/mnt/store")
	t.Setenv("BUILDERBOT_JPEG_QUALITY", "75")
	t.Setenv("BUILDERBOT_LEASE_TTL", "2m")

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/mnt/store", cfg.StoreRoot)
	assert.Equal(t, 75, cfg.Layout.JPEGQuality)
	assert.Equal(t, 2*time.Minute, cfg.LeaseTTL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"quality too high", func(c *config.Config) { c.Layout.JPEGQuality = 101 }},
		{"quality zero", func(c *config.Config) { c.Layout.JPEGQuality = 0 }},
		{"no dpi", func(c *config.Config) { c.Layout.DPI = 0 }},
		{"no rules size", func(c *config.Config) { c.Layout.RulesSize = 0 }},
		{"no cache dir", func(c *config.Config) { c.CacheDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.StoreRoot, cfg.CacheDir, cfg.OutputDir = "/s", "/c", "/o"
			require.NoError(t, cfg.Validate())
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigCreatesDefaultFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, "cache"))

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "data", "builderbot", "store"), cfg.StoreRoot)

	_, err = os.Stat(filepath.Join(home, "builderbot", "config.toml"))
	require.NoError(t, err)

	again, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, cfg.Layout, again.Layout)
}

func TestFromEnvIgnoresConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("BUILDERBOT_STORE_ROOT", "/mnt/store")
	t.Setenv("BUILDERBOT_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := config.FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/mnt/store", cfg.StoreRoot)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, config.DefaultLayout(), cfg.Layout)

	_, err = os.Stat(config.GetConfigFilePath())
	assert.True(t, os.IsNotExist(err), "no config file is created")
}

func TestFromEnvValidates(t *testing.T) {
	t.Setenv("BUILDERBOT_JPEG_QUALITY", "0")

	_, err := config.FromEnv()
	assert.ErrorContains(t, err, "jpeg_quality")
}
