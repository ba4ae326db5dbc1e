// Package config loads and validates the application configuration from a
// YAML file, environment variables (TRIAGE_ prefix), and built-in defaults.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// It allows commands and services to be tested against a mock configuration.
type Interface interface {
	Logger() LoggerConfig
	Tracker() TrackerConfig
	Repo() RepoConfig
	Reasoner() ReasonerConfig
	Store() StoreConfig
	Notify() NotifyConfig
}

// Config holds the entire application configuration. Consumers take the
// Interface; the concrete struct exists for viper to decode into.
type Config struct {
	LoggerC   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	TrackerC  TrackerConfig  `mapstructure:"tracker" yaml:"tracker"`
	RepoC     RepoConfig     `mapstructure:"repo" yaml:"repo"`
	ReasonerC ReasonerConfig `mapstructure:"reasoner" yaml:"reasoner"`
	StoreC    StoreConfig    `mapstructure:"store" yaml:"store"`
	NotifyC   NotifyConfig   `mapstructure:"notify" yaml:"notify"`
}

func (c *Config) Logger() LoggerConfig     { return c.LoggerC }
func (c *Config) Tracker() TrackerConfig   { return c.TrackerC }
func (c *Config) Repo() RepoConfig         { return c.RepoC }
func (c *Config) Reasoner() ReasonerConfig { return c.ReasonerC }
func (c *Config) Store() StoreConfig       { return c.StoreC }
func (c *Config) Notify() NotifyConfig     { return c.NotifyC }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the terminal color names for each log level.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// TrackerMode selects the error-tracking backend implementation.
type TrackerMode string

const (
	// TrackerModeMock serves the built-in sample incidents.
	TrackerModeMock TrackerMode = "mock"
	// TrackerModeHTTP fetches records from a remote tracking service.
	TrackerModeHTTP TrackerMode = "http"
)

// TrackerConfig configures the error-tracking collaborator.
type TrackerConfig struct {
	Mode    TrackerMode   `mapstructure:"mode" yaml:"mode"`
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	APIKey  string        `mapstructure:"api_key" yaml:"-"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// RepoConfig configures source-context extraction.
type RepoConfig struct {
	// Path is the repository root used to resolve stack-trace file paths.
	// Empty means no real repository is available and the mock context
	// source is used instead.
	Path string `mapstructure:"path" yaml:"path"`
	// ContextRadius is the number of lines captured on each side of an
	// implicated line.
	ContextRadius int `mapstructure:"context_radius" yaml:"context_radius"`
}

// ReasonerConfig configures the reasoning collaborator.
type ReasonerConfig struct {
	// Mode selects the implementation; only "rules" is currently shipped.
	Mode string `mapstructure:"mode" yaml:"mode"`
}

// StoreConfig configures report persistence.
type StoreConfig struct {
	// Dir is the directory holding issue_<error_id>.json artifacts.
	// Supports ~ expansion.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// NotifyConfig configures the notification collaborator and the bundled
// notification API server.
type NotifyConfig struct {
	Endpoint   string        `mapstructure:"endpoint" yaml:"endpoint"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	ListenAddr string        `mapstructure:"listen_addr" yaml:"listen_addr"`
	// RateLimit is the sustained requests-per-second the notification API
	// accepts; RateBurst is the burst allowance.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst" yaml:"rate_burst"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "triage-cli")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Tracker --
	v.SetDefault("tracker.mode", "mock")
	v.SetDefault("tracker.base_url", "http://localhost:8000")
	v.SetDefault("tracker.timeout", "10s")

	// -- Repo --
	v.SetDefault("repo.path", "")
	v.SetDefault("repo.context_radius", 2)

	// -- Reasoner --
	v.SetDefault("reasoner.mode", "rules")

	// -- Store --
	v.SetDefault("store.dir", ".")

	// -- Notify --
	v.SetDefault("notify.endpoint", "http://localhost:8001/notify")
	v.SetDefault("notify.timeout", "5s")
	v.SetDefault("notify.listen_addr", ":8001")
	v.SetDefault("notify.rate_limit", 10.0)
	v.SetDefault("notify.rate_burst", 20)
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	cfg, err := NewConfigFromViper(v)
	if err != nil {
		// Defaults are always valid; a failure here is a programming error.
		panic(fmt.Sprintf("failed to build default config: %v", err))
	}
	return cfg
}

// NewConfigFromViper builds and validates a configuration from a viper
// instance that has already read its sources.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Sensitive values come from the environment, never the config file.
	_ = v.BindEnv("tracker.api_key", "TRIAGE_TRACKER_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	dir, err := homedir.Expand(cfg.StoreC.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to expand store.dir: %w", err)
	}
	cfg.StoreC.Dir = filepath.Clean(dir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch c.TrackerC.Mode {
	case TrackerModeMock:
	case TrackerModeHTTP:
		if c.TrackerC.BaseURL == "" {
			return fmt.Errorf("tracker.base_url is required when tracker.mode is %q", TrackerModeHTTP)
		}
	default:
		return fmt.Errorf("unknown tracker.mode: %q", c.TrackerC.Mode)
	}

	if c.TrackerC.Timeout <= 0 {
		return fmt.Errorf("tracker.timeout must be a positive duration")
	}
	if c.RepoC.ContextRadius < 0 {
		return fmt.Errorf("repo.context_radius must not be negative")
	}
	if c.StoreC.Dir == "" {
		return fmt.Errorf("store.dir is a required configuration field")
	}
	if c.NotifyC.Timeout <= 0 {
		return fmt.Errorf("notify.timeout must be a positive duration")
	}
	if c.NotifyC.RateLimit <= 0 {
		return fmt.Errorf("notify.rate_limit must be positive")
	}
	if c.NotifyC.RateBurst <= 0 {
		return fmt.Errorf("notify.rate_burst must be a positive integer")
	}
	return nil
}
