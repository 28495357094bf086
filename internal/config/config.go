package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides,
// e.g. CONDUCTOR_MONITOR_POLL_INTERVAL_MS.
const EnvPrefix = "CONDUCTOR"

// Config represents the complete conductor configuration
type Config struct {
	Monitor MonitorConfig `mapstructure:"monitor"`
	Phrases PhrasesConfig `mapstructure:"phrases"`
	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// MonitorConfig controls capture and the monitor loop
type MonitorConfig struct {
	// AutoPoll runs the monitor loop in the background
	AutoPoll bool `mapstructure:"auto_poll"`
	// Redirect forwards captured output to the real console
	Redirect bool `mapstructure:"redirect"`
	// NotifyUnrecognized publishes output that matches no phrase
	NotifyUnrecognized bool `mapstructure:"notify_unrecognized"`
	// PollIntervalMs is the sleep between monitor cycles
	PollIntervalMs int `mapstructure:"poll_interval_ms"`
	// ShutdownTimeoutMs bounds the wait for the loop on shutdown
	ShutdownTimeoutMs int `mapstructure:"shutdown_timeout_ms"`
	// Newline is the simulator's line terminator: "\n" or "\r\n"
	Newline string `mapstructure:"newline"`
}

// PhrasesConfig controls the phrase table
type PhrasesConfig struct {
	// File is an optional YAML phrase file merged over the built-in table
	File string `mapstructure:"file"`
	// Watch reloads File when it changes
	Watch bool `mapstructure:"watch"`
}

// OutputConfig controls how events are printed
type OutputConfig struct {
	// Format is "text" or "json"
	Format string `mapstructure:"format"`
	// Color is "auto", "always" or "never"
	Color string `mapstructure:"color"`
	// Filter is a glob over category names, e.g. "door_*"; empty prints all
	Filter string `mapstructure:"filter"`
	// MaxWidth truncates printed text to this many terminal columns; 0 disables
	MaxWidth int `mapstructure:"max_width"`
}

// LoggingConfig controls debug logging
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `mapstructure:"level"`
	// Dir is the log directory; empty logs to stderr
	Dir string `mapstructure:"dir"`
	// MaxSizeMB is the log file size that triggers rotation
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files to keep
	MaxBackups int `mapstructure:"max_backups"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	// Enabled starts the metrics HTTP server
	Enabled bool `mapstructure:"enabled"`
	// Addr is the listen address
	Addr string `mapstructure:"addr"`
	// Path is the scrape path
	Path string `mapstructure:"path"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Monitor: MonitorConfig{
			AutoPoll:           true,
			Redirect:           true,
			NotifyUnrecognized: false,
			PollIntervalMs:     10,
			ShutdownTimeoutMs:  1000,
			Newline:            "\n",
		},
		Phrases: PhrasesConfig{
			Watch: true,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  "auto",
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9464",
			Path:    "/metrics",
		},
	}
}

// PollInterval returns the poll interval as a time.Duration
func (c *MonitorConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// ShutdownTimeout returns the shutdown timeout as a time.Duration
func (c *MonitorConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMs) * time.Millisecond
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Monitor defaults
	viper.SetDefault("monitor.auto_poll", defaults.Monitor.AutoPoll)
	viper.SetDefault("monitor.redirect", defaults.Monitor.Redirect)
	viper.SetDefault("monitor.notify_unrecognized", defaults.Monitor.NotifyUnrecognized)
	viper.SetDefault("monitor.poll_interval_ms", defaults.Monitor.PollIntervalMs)
	viper.SetDefault("monitor.shutdown_timeout_ms", defaults.Monitor.ShutdownTimeoutMs)
	viper.SetDefault("monitor.newline", defaults.Monitor.Newline)

	// Phrase defaults
	viper.SetDefault("phrases.file", defaults.Phrases.File)
	viper.SetDefault("phrases.watch", defaults.Phrases.Watch)

	// Output defaults
	viper.SetDefault("output.format", defaults.Output.Format)
	viper.SetDefault("output.color", defaults.Output.Color)
	viper.SetDefault("output.filter", defaults.Output.Filter)
	viper.SetDefault("output.max_width", defaults.Output.MaxWidth)

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)

	// Metrics defaults
	viper.SetDefault("metrics.enabled", defaults.Metrics.Enabled)
	viper.SetDefault("metrics.addr", defaults.Metrics.Addr)
	viper.SetDefault("metrics.path", defaults.Metrics.Path)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults if it
// cannot be loaded
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "conductor")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".conductor"
	}
	return filepath.Join(home, ".config", "conductor")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
