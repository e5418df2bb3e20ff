package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	cfg, exists, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, Default(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	root := filepath.Join(t.TempDir(), "nested")
	cfg := Default()
	cfg.Storage = Storage{Backend: BackendSQLite, Path: "db/t.db", QuotaBytes: 1 << 20}
	cfg.Display.PageSize = 50
	cfg.Timezone = "UTC"
	require.NoError(t, Save(root, cfg))

	got, exists, err := Load(root)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, cfg, got)
	assert.Equal(t, filepath.Join(root, "db/t.db"), got.StoragePath(root))
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	root := t.TempDir()
	require.NoError(t, os.WriteFile(Path(root), []byte("schema: 1\ndisplay:\n  color: never\n"), 0o644))

	cfg, _, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, ColorNever, cfg.Display.Color)
	assert.Equal(t, 20, cfg.Display.PageSize)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(root, "data"), cfg.StoragePath(root))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"schema", func(c *Config) { c.Schema = 9 }},
		{"backend", func(c *Config) { c.Storage.Backend = "redis" }},
		{"color", func(c *Config) { c.Display.Color = "rainbow" }},
		{"level", func(c *Config) { c.Log.Level = "loud" }},
		{"format", func(c *Config) { c.Log.Format = "xml" }},
		{"timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"quota", func(c *Config) { c.Storage.QuotaBytes = -1 }},
	}
	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	cfg, _, err := Load(t.TempDir())
	require.NoError(t, err)
	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	t.Setenv(EnvRoot, "/srv/tickets")
	assert.Equal(t, "/srv/tickets", DefaultRoot())
}

func TestLocation(t *testing.T) {
	cfg := Default()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	cfg.Timezone = "UTC"
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestResolveBundled(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.BundledTasks("/r"))
	cfg.Bundled = Bundled{TasksCSV: "seed/tasks.csv", SettingsCSV: "/etc/tickets/settings.csv"}
	assert.Equal(t, "/r/seed/tasks.csv", cfg.BundledTasks("/r"))
	assert.Equal(t, "/etc/tickets/settings.csv", cfg.BundledSettings("/r"))
}
