// Package config loads runtime settings from defaults, an optional
// config.yaml and VOXDASH_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix  = "VOXDASH"
	configName = "config"
	configType = "yaml"
	dataDirEnv = "VOXDASH_DATA_DIR"
)

var (
	ErrUnknownDriver   = errors.New("config: unknown storage driver")
	ErrUnknownProvider = errors.New("config: unknown provider kind")
	ErrBadVolumeScale  = errors.New("config: provider volume scale must be positive")
	ErrUnknownCommit   = errors.New("config: unknown commit mode")
)

type Config struct {
	DataDir  string
	Storage  StorageConfig
	Store    StoreConfig
	Backend  BackendConfig
	Provider ProviderConfig
	Log      LogConfig
	Alerts   AlertsConfig
	Session  SessionConfig
	Metrics  MetricsConfig
	Users    []UserConfig
}

type StorageConfig struct {
	Driver string
	Path   string
}

type StoreConfig struct {
	CommitMode string
}

type BackendConfig struct {
	URL     string
	Timeout time.Duration
}

type ProviderConfig struct {
	Kind        string
	URL         string
	APIKey      string
	AssistantID string
	// VolumeScale is the full-scale value of relay volume frames.
	VolumeScale float64
}

type LogConfig struct {
	Level string
	File  string
}

type AlertsConfig struct {
	Lead   time.Duration
	Buffer int
}

type SessionConfig struct {
	Buffer int
}

// MetricsConfig.Addr enables the Prometheus endpoint while the dashboard
// runs, e.g. "127.0.0.1:9464". Empty disables it.
type MetricsConfig struct {
	Addr string
}

// UserConfig is an extra directory entry on top of the built-in users.
type UserConfig struct {
	FirstName string `mapstructure:"first_name"`
	LastName  string `mapstructure:"last_name"`
	Email     string `mapstructure:"email"`
	Phone     string `mapstructure:"phone"`
}

func defaultDataDir() string {
	if dir := os.Getenv(dataDirEnv); dir != "" {
		return dir
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "voxdash")
	}
	return ".voxdash"
}

func setDefaults(v *viper.Viper, dataDir string) {
	v.SetDefault("data_dir", dataDir)
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.path", "")
	v.SetDefault("store.commit_mode", "staged")
	v.SetDefault("backend.url", "http://localhost:8000")
	v.SetDefault("backend.timeout", 15*time.Second)
	v.SetDefault("provider.kind", "simulated")
	v.SetDefault("provider.url", "ws://localhost:8000/voice")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.assistant_id", "")
	v.SetDefault("provider.volume_scale", 1.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("alerts.lead", 10*time.Minute)
	v.SetDefault("alerts.buffer", 64)
	v.SetDefault("session.buffer", 64)
	v.SetDefault("metrics.addr", "")
}

// Load reads configuration into v. An explicit configFile must exist; the
// default config.yaml in the data directory is optional.
func Load(v *viper.Viper, configFile string) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	dataDir := defaultDataDir()
	setDefaults(v, dataDir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(dataDir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		DataDir: v.GetString("data_dir"),
		Storage: StorageConfig{
			Driver: strings.ToLower(v.GetString("storage.driver")),
			Path:   v.GetString("storage.path"),
		},
		Store: StoreConfig{CommitMode: strings.ToLower(v.GetString("store.commit_mode"))},
		Backend: BackendConfig{
			URL:     v.GetString("backend.url"),
			Timeout: v.GetDuration("backend.timeout"),
		},
		Provider: ProviderConfig{
			Kind:        strings.ToLower(v.GetString("provider.kind")),
			URL:         v.GetString("provider.url"),
			APIKey:      v.GetString("provider.api_key"),
			AssistantID: v.GetString("provider.assistant_id"),
			VolumeScale: v.GetFloat64("provider.volume_scale"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
			File:  v.GetString("log.file"),
		},
		Alerts: AlertsConfig{
			Lead:   v.GetDuration("alerts.lead"),
			Buffer: v.GetInt("alerts.buffer"),
		},
		Session: SessionConfig{Buffer: v.GetInt("session.buffer")},
		Metrics: MetricsConfig{Addr: v.GetString("metrics.addr")},
	}
	if err := v.UnmarshalKey("users", &cfg.Users); err != nil {
		return Config{}, fmt.Errorf("decode users: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	if c.DataDir == "" {
		c.DataDir = defaultDataDir()
	}
	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.Path == "" {
			c.Storage.Path = filepath.Join(c.DataDir, "voxdash.db")
		}
	case "file":
		if c.Storage.Path == "" {
			c.Storage.Path = filepath.Join(c.DataDir, "snapshots")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Storage.Driver)
	}
	switch c.Provider.Kind {
	case "simulated", "relay":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider.Kind)
	}
	if c.Provider.VolumeScale <= 0 {
		return fmt.Errorf("%w: %v", ErrBadVolumeScale, c.Provider.VolumeScale)
	}
	switch c.Store.CommitMode {
	case "staged", "optimistic":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommit, c.Store.CommitMode)
	}
	if c.Log.File == "" {
		c.Log.File = filepath.Join(c.DataDir, "voxdash.log")
	}
	if c.Alerts.Buffer <= 0 {
		c.Alerts.Buffer = 64
	}
	if c.Session.Buffer <= 0 {
		c.Session.Buffer = 64
	}
	if c.Alerts.Lead < 0 {
		c.Alerts.Lead = 0
	}
	return nil
}
