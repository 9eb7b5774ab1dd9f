// Package config loads engine settings from an optional YAML file,
// overridden by INKWELL_* environment variables, over built-in defaults.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/mlauter/inkwell/internal/errors"
)

// Defaults.
const (
	DefaultBaseURL        = "https://www.instapaper.com"
	DefaultConnectTimeout = 10 * time.Second
	DefaultTotalTimeout   = 30 * time.Second
	DefaultListLimit      = 200
	DefaultSyncInterval   = 15 * time.Minute
	DefaultLogLevel       = "info"
)

// Config holds everything the engine needs at startup.
type Config struct {
	DataDir        string        `yaml:"data_dir"`
	BaseURL        string        `yaml:"base_url"`
	ConsumerKey    string        `yaml:"consumer_key"`
	ConsumerSecret string        `yaml:"consumer_secret"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	TotalTimeout   time.Duration `yaml:"total_timeout"`
	ListLimit      int           `yaml:"list_limit"`
	SyncInterval   time.Duration `yaml:"sync_interval"`
	LogLevel       string        `yaml:"log_level"`
}

// Load reads path (skipped when empty or missing), applies environment
// overrides, then fills remaining zero values with defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, apperrors.Wrap(apperrors.ErrInternal, "reading config file", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternal, "parsing config file", err)
			}
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("INKWELL_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("INKWELL_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("INKWELL_CONSUMER_KEY"); v != "" {
		c.ConsumerKey = v
	}
	if v := os.Getenv("INKWELL_CONSUMER_SECRET"); v != "" {
		c.ConsumerSecret = v
	}
	if v := os.Getenv("INKWELL_CONNECT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.ConnectTimeout = d
		}
	}
	if v := os.Getenv("INKWELL_TOTAL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.TotalTimeout = d
		}
	}
	if v := os.Getenv("INKWELL_LIST_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.ListLimit = n
		}
	}
	if v := os.Getenv("INKWELL_SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.SyncInterval = d
		}
	}
	if v := os.Getenv("INKWELL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		c.DataDir = filepath.Join(home, ".inkwell")
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.TotalTimeout <= 0 {
		c.TotalTimeout = DefaultTotalTimeout
	}
	if c.ListLimit <= 0 {
		c.ListLimit = DefaultListLimit
	}
	if c.SyncInterval <= 0 {
		c.SyncInterval = DefaultSyncInterval
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}
