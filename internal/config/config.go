// Package config handles loading and hot-reloading pipeline configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config is the full pipeline configuration.
type Config struct {
	Workers     int          `mapstructure:"workers"`      // Extraction pool size
	WindowBytes int          `mapstructure:"window_bytes"` // Chapter size threshold for sharding
	Oracle      OracleConfig `mapstructure:"oracle"`
}

// OracleConfig configures the extraction oracle client.
type OracleConfig struct {
	Model             string `mapstructure:"model"`
	APIKey            string `mapstructure:"api_key"`
	BaseURL           string `mapstructure:"base_url"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
	MaxRetries        int    `mapstructure:"max_retries"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds"`
}

// Timeout returns the per-attempt oracle call timeout.
func (o OracleConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}

// RetryDelay returns the base backoff delay between oracle attempts.
func (o OracleConfig) RetryDelay() time.Duration {
	return time.Duration(o.RetryDelaySeconds) * time.Second
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Workers:     4,
		WindowBytes: 24 * 1024,
		Oracle: OracleConfig{
			Model:             "gpt-4o-mini",
			TimeoutSeconds:    120,
			MaxRetries:        3,
			RetryDelaySeconds: 2,
		},
	}
}

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	defaults := DefaultConfig()
	viper.SetDefault("workers", defaults.Workers)
	viper.SetDefault("window_bytes", defaults.WindowBytes)
	viper.SetDefault("oracle.model", defaults.Oracle.Model)
	viper.SetDefault("oracle.api_key", "")
	viper.SetDefault("oracle.base_url", "")
	viper.SetDefault("oracle.timeout_seconds", defaults.Oracle.TimeoutSeconds)
	viper.SetDefault("oracle.max_retries", defaults.Oracle.MaxRetries)
	viper.SetDefault("oracle.retry_delay_seconds", defaults.Oracle.RetryDelaySeconds)

	// Environment variables with DOCTRINE_ prefix; nested keys map dots to
	// underscores, so oracle.api_key reads DOCTRINE_ORACLE_API_KEY.
	viper.SetEnvPrefix("DOCTRINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.doctrine")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	viper.WatchConfig()
}
