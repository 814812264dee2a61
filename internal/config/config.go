// Package config loads CLI configuration from a file, the environment and
// flags, in increasing order of precedence.
//
// Environment variables use the DECSYNC_ prefix with dots replaced by
// underscores: DECSYNC_DIR, DECSYNC_APP_ID, DECSYNC_LOG_LEVEL, ...
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/decsync/internal/platform"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "decsync"

// DefaultAppName is used to build the generated app id.
const DefaultAppName = "decsync-cli"

// Config is the resolved CLI configuration.
type Config struct {
	Dir        string      `mapstructure:"dir"`
	LocalDir   string      `mapstructure:"local_dir"`
	AppID      string      `mapstructure:"app_id"`
	SyncType   string      `mapstructure:"sync_type"`
	Collection string      `mapstructure:"collection"`
	Mirror     string      `mapstructure:"mirror"`
	Log        LogConfig   `mapstructure:"log"`
	Watch      WatchConfig `mapstructure:"watch"`
}

// LogConfig controls log level and optional rotating file output.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// WatchConfig tunes the watch command.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"dir":        "dir",
	"local-dir":  "local_dir",
	"app-id":     "app_id",
	"sync-type":  "sync_type",
	"collection": "collection",
	"mirror":     "mirror",
	"log-level":  "log.level",
	"log-file":   "log.file",
}

// Load reads the config file at path (optional; empty means none), applies
// environment overrides and then any flags in flags that were set.
//
// When no app id is configured, the one generated on first run and kept in
// the local directory is used.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.AppID == "" && cfg.LocalDir != "" && cfg.SyncType != "" {
		id, err := platform.LoadOrCreateAppID(platform.NewOSDir(cfg.LocalDir), DefaultAppName)
		if err != nil {
			return Config{}, fmt.Errorf("resolve app id: %w", err)
		}
		cfg.AppID = id
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dir", platform.DefaultDecsyncDir())
	v.SetDefault("local_dir", defaultLocalDir())
	v.SetDefault("app_id", "")
	v.SetDefault("sync_type", "")
	v.SetDefault("collection", "")
	v.SetDefault("mirror", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("watch.debounce", "250ms")
}

func defaultLocalDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(platform.DefaultDecsyncDir(), ".local")
	}
	return filepath.Join(dir, "decsync")
}

// Validate reports the first missing or out-of-range setting.
func (c Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("dir is required")
	}
	if c.LocalDir == "" {
		return fmt.Errorf("local_dir is required")
	}
	if c.AppID == "" {
		return fmt.Errorf("app_id is required")
	}
	if c.SyncType == "" {
		return fmt.Errorf("sync_type is required")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return fmt.Errorf("log rotation limits must not be negative")
	}
	if c.Watch.Debounce <= 0 {
		return fmt.Errorf("watch.debounce must be positive")
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}
