package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	API    APIConfig
	Cache  CacheConfig
	UI     UIConfig
	Log    LogConfig
	Export ExportConfig
}

// APIConfig holds record provider settings.
type APIConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	UserAgent         string        `mapstructure:"user_agent"`
	MaxResults        int           `mapstructure:"max_results"`
	Offline           bool          `mapstructure:"offline"`
}

// CacheConfig holds the sqlite page response cache settings. A zero TTL
// turns the cache off.
type CacheConfig struct {
	Path string        `mapstructure:"path"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	RowsPerPage    int  `mapstructure:"rows_per_page"`
	UncheckRemoves bool `mapstructure:"uncheck_removes"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

// ExportConfig holds where selection exports are written.
type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

// Load reads configuration from file and env. Env var overrides use prefix ARTVIEW_.
func Load() (Config, error) {
	v := viper.New()
	home := os.Getenv("HOME")

	// default values
	v.SetDefault("api.base_url", "https://api.artic.edu/api/v1")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("api.max_retries", 3)
	v.SetDefault("api.retry_backoff", 250*time.Millisecond)
	v.SetDefault("api.requests_per_minute", 60)
	v.SetDefault("api.user_agent", "artview")
	v.SetDefault("api.max_results", 10000)
	v.SetDefault("api.offline", false)
	v.SetDefault("cache.path", filepath.Join(home, ".local", "share", "artview", "artview.db"))
	v.SetDefault("cache.ttl", 15*time.Minute)
	v.SetDefault("ui.rows_per_page", 12)
	v.SetDefault("ui.uncheck_removes", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", filepath.Join(home, ".local", "state", "artview", "artview.log"))
	v.SetDefault("export.dir", filepath.Join(home, "Documents", "artview"))

	v.SetConfigType("toml")

	cfgPath := os.Getenv("ARTVIEW_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(home, ".config", "artview"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("ARTVIEW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.UI.RowsPerPage <= 0 {
		return Config{}, fmt.Errorf("ui.rows_per_page must be positive, got %d", c.UI.RowsPerPage)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
// The TUI uses it to persist UI preferences.
func Save(cfg Config) error {
	path := os.Getenv("ARTVIEW_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "artview", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("api.base_url", cfg.API.BaseURL)
	v.Set("api.timeout", cfg.API.Timeout.String())
	v.Set("api.max_retries", cfg.API.MaxRetries)
	v.Set("api.retry_backoff", cfg.API.RetryBackoff.String())
	v.Set("api.requests_per_minute", cfg.API.RequestsPerMinute)
	v.Set("api.user_agent", cfg.API.UserAgent)
	v.Set("api.max_results", cfg.API.MaxResults)
	v.Set("api.offline", cfg.API.Offline)
	v.Set("cache.path", cfg.Cache.Path)
	v.Set("cache.ttl", cfg.Cache.TTL.String())
	v.Set("ui.rows_per_page", cfg.UI.RowsPerPage)
	v.Set("ui.uncheck_removes", cfg.UI.UncheckRemoves)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.path", cfg.Log.Path)
	v.Set("export.dir", cfg.Export.Dir)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
