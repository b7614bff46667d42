package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(100<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 3, cfg.Cleaning.GapLimit)
	assert.Equal(t, 0.5, cfg.Cleaning.MaxMissingFrac)
	assert.True(t, cfg.Security.RateLimit.Enabled)

	require.NoError(t, cfg.Validate(), "defaults must validate")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
server:
  port: 9090
logging:
  level: debug
cleaning:
  gap_limit: 5
`), 0o644))

	t.Setenv("SOLAR_CONFIG", configFile)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 5, cfg.Cleaning.GapLimit)
	// Untouched values keep their defaults.
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 0.5, cfg.Cleaning.MaxMissingFrac)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("server:\n  port: 9090\n"), 0o644))

	t.Setenv("SOLAR_CONFIG", configFile)
	t.Setenv("SOLAR_SERVER_PORT", "7070")
	t.Setenv("SOLAR_LOGGING_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SOLAR_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "Server.Port",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "Logging.Level",
		},
		{
			name:    "missing fraction above one",
			mutate:  func(c *Config) { c.Cleaning.MaxMissingFrac = 1.5 },
			wantErr: "Cleaning.MaxMissingFrac",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestGetPaths(t *testing.T) {
	cfg := Default()
	cfg.Paths.BaseDir = "/srv/solar"

	paths := cfg.GetPaths()
	assert.Equal(t, "/srv/solar/data", paths.DataDir)
	assert.Equal(t, "/srv/solar/data/raw", paths.RawDir)
	assert.Equal(t, "/srv/solar/data/clean", paths.CleanDir)
	assert.Equal(t, "/srv/solar/data/reports", paths.ReportsDir)
	assert.Equal(t, "/srv/solar/logs", paths.LogsDir)
}

func TestEnsureDirectories(t *testing.T) {
	cfg := Default()
	cfg.Paths.BaseDir = t.TempDir()

	paths := cfg.GetPaths()
	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.RawDir, paths.CleanDir, paths.ReportsDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestServerTimeoutsDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
}
