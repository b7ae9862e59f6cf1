package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("VOXDASH_DATA_DIR", dir)

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, filepath.Join(dir, "voxdash.db"), cfg.Storage.Path)
	assert.Equal(t, "staged", cfg.Store.CommitMode)
	assert.Equal(t, "http://localhost:8000", cfg.Backend.URL)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "simulated", cfg.Provider.Kind)
	assert.Equal(t, 1.0, cfg.Provider.VolumeScale)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, filepath.Join(dir, "voxdash.log"), cfg.Log.File)
	assert.Equal(t, 10*time.Minute, cfg.Alerts.Lead)
	assert.Equal(t, 64, cfg.Alerts.Buffer)
	assert.Equal(t, 64, cfg.Session.Buffer)
	assert.Empty(t, cfg.Metrics.Addr)
	assert.Empty(t, cfg.Users)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("VOXDASH_DATA_DIR", dir)
	t.Setenv("VOXDASH_STORAGE_DRIVER", "FILE")
	t.Setenv("VOXDASH_STORE_COMMIT_MODE", "optimistic")
	t.Setenv("VOXDASH_BACKEND_URL", "http://backend:9000")
	t.Setenv("VOXDASH_BACKEND_TIMEOUT", "3s")
	t.Setenv("VOXDASH_PROVIDER_KIND", "relay")
	t.Setenv("VOXDASH_PROVIDER_API_KEY", "k")
	t.Setenv("VOXDASH_PROVIDER_VOLUME_SCALE", "100")
	t.Setenv("VOXDASH_ALERTS_LEAD", "5m")
	t.Setenv("VOXDASH_SESSION_BUFFER", "128")
	t.Setenv("VOXDASH_METRICS_ADDR", "127.0.0.1:9464")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, filepath.Join(dir, "snapshots"), cfg.Storage.Path)
	assert.Equal(t, "optimistic", cfg.Store.CommitMode)
	assert.Equal(t, "http://backend:9000", cfg.Backend.URL)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "relay", cfg.Provider.Kind)
	assert.Equal(t, "k", cfg.Provider.APIKey)
	assert.Equal(t, 100.0, cfg.Provider.VolumeScale)
	assert.Equal(t, 5*time.Minute, cfg.Alerts.Lead)
	assert.Equal(t, 128, cfg.Session.Buffer)
	assert.Equal(t, "127.0.0.1:9464", cfg.Metrics.Addr)
}

func TestLoadConfigFileInDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("VOXDASH_DATA_DIR", dir)
	yaml := "provider:\n  kind: relay\n  assistant_id: asst-9\nlog:\n  level: debug\n" +
		"users:\n  - first_name: Ada\n    last_name: Lovelace\n    email: ada@example.com\n    phone: 555-0100\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "relay", cfg.Provider.Kind)
	assert.Equal(t, "asst-9", cfg.Provider.AssistantID)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.Len(t, cfg.Users, 1)
	assert.Equal(t, UserConfig{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "555-0100"}, cfg.Users[0])
}

func TestLoadExplicitConfigFileMustExist(t *testing.T) {
	t.Setenv("VOXDASH_DATA_DIR", t.TempDir())
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsUnknownValues(t *testing.T) {
	cases := map[string]error{
		"VOXDASH_STORAGE_DRIVER":        ErrUnknownDriver,
		"VOXDASH_PROVIDER_KIND":         ErrUnknownProvider,
		"VOXDASH_PROVIDER_VOLUME_SCALE": ErrBadVolumeScale,
		"VOXDASH_STORE_COMMIT_MODE":     ErrUnknownCommit,
	}
	for key, want := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("VOXDASH_DATA_DIR", t.TempDir())
			t.Setenv(key, "bogus")
			_, err := Load(viper.New(), "")
			assert.ErrorIs(t, err, want)
		})
	}
}
