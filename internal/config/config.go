// Package config provides configuration management for cgmetrics.
//
// Munin passes plugin settings as lower-case environment variables
// (env.host in plugin-conf arrives as $host), so the daemon settings keep
// that casing; the logging knobs follow the usual upper-case convention.
package config

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sbaerlocher/cgmetrics/internal/errors"
	"github.com/sbaerlocher/cgmetrics/internal/types"
)

// Defaults applied when munin-node passes no overriding environment.
const (
	DefaultHost    = "localhost"
	DefaultPort    = "4028"
	DefaultTimeout = 10 * time.Second
)

// Config holds all settings for one plugin invocation.
type Config struct {
	Host      string
	Port      string
	Timeout   time.Duration
	LogLevel  string
	LogFormat string

	rawTimeout string
}

// Load reads configuration from environment variables and returns a Config
// struct. Values are checked separately; see Validate.
func Load() Config {
	cfg := Config{}

	cfg.loadDaemonSettings()
	cfg.loadLoggingSettings()

	return cfg
}

func (cfg *Config) loadDaemonSettings() {
	cfg.Host = DefaultHost
	if v := os.Getenv("host"); v != "" {
		cfg.Host = v
	}

	cfg.Port = DefaultPort
	if v := os.Getenv("port"); v != "" {
		cfg.Port = v
	}

	cfg.Timeout = DefaultTimeout
	cfg.rawTimeout = os.Getenv("timeout")
	if cfg.rawTimeout != "" {
		if d, ok := parseTimeout(cfg.rawTimeout); ok {
			cfg.Timeout = d
		}
	}
}

func (cfg *Config) loadLoggingSettings() {
	cfg.LogLevel = "info"
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	cfg.LogFormat = "text"
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
}

// parseTimeout accepts a Go duration ("5s") or whole seconds ("5").
func parseTimeout(v string) (time.Duration, bool) {
	if d, err := time.ParseDuration(v); err == nil {
		return d, true
	}
	if sec, err := strconv.Atoi(v); err == nil {
		return time.Duration(sec) * time.Second, true
	}
	return 0, false
}

// Addr returns the daemon address in host:port form.
func (cfg Config) Addr() string {
	return net.JoinHostPort(cfg.Host, cfg.Port)
}

// Validate checks the configuration before any socket is opened. Failures
// are ConfigurationErrors so the entry point reports them as usage problems.
func (cfg Config) Validate() error {
	if err := cfg.validateDaemonSettings(); err != nil {
		return err
	}

	return cfg.validateLogSettings()
}

func (cfg Config) validateDaemonSettings() error {
	if err := types.ValidateHost(cfg.Host); err != nil {
		return errors.ConfigurationError{Field: "host", Value: cfg.Host, Reason: err.Error()}
	}

	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		return errors.ConfigurationError{Field: "port", Value: cfg.Port, Reason: "not an integer"}
	}
	if port < 1 || port > 65535 {
		return errors.ConfigurationError{Field: "port", Value: cfg.Port, Reason: "outside range 1-65535"}
	}

	return cfg.validateTimeout()
}

func (cfg Config) validateTimeout() error {
	if cfg.rawTimeout == "" {
		return nil
	}

	d, ok := parseTimeout(cfg.rawTimeout)
	if !ok {
		return errors.ConfigurationError{Field: "timeout", Value: cfg.rawTimeout, Reason: "not a duration or whole seconds"}
	}
	if d <= 0 {
		return errors.ConfigurationError{Field: "timeout", Value: cfg.rawTimeout, Reason: "must be positive"}
	}
	return nil
}

func (cfg Config) validateLogSettings() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if cfg.LogLevel != "" && !contains(validLogLevels, cfg.LogLevel) {
		return errors.ConfigurationError{Field: "LOG_LEVEL", Value: cfg.LogLevel, Reason: "valid options: debug, info, warn, error"}
	}

	validLogFormats := []string{"json", "text"}
	if cfg.LogFormat != "" && !contains(validLogFormats, cfg.LogFormat) {
		return errors.ConfigurationError{Field: "LOG_FORMAT", Value: cfg.LogFormat, Reason: "valid options: json, text"}
	}
	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
