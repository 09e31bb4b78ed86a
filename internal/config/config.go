// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Marketplace MarketplaceConfig `yaml:"marketplace"`
	Server      ServerConfig      `yaml:"server"`
	MCP         MCPConfig         `yaml:"mcp"`
	Logging     LoggingConfig     `yaml:"logging"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
}

// MarketplaceConfig defines how the marketplace API is reached.
type MarketplaceConfig struct {
	// BaseURL is used when neither a base_url parameter nor
	// MARKETPLACE_BASE_URL is given.
	BaseURL   string          `yaml:"base_url"`
	Timeout   time.Duration   `yaml:"timeout"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig defines optional client-side request pacing. A zero
// PerSecond disables pacing.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// ServerConfig defines the Echo HTTP gateway settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MCPConfig defines the MCP stdio server identity.
type MCPConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json, pretty
}

// TelemetryConfig defines OpenTelemetry export. An empty Endpoint disables
// exporters; spans and counters are then no-ops.
type TelemetryConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	Insecure       bool          `yaml:"insecure"`
	ServiceName    string        `yaml:"service_name"`
	ExportInterval time.Duration `yaml:"export_interval"`
}

// Enabled reports whether an OTLP endpoint is configured.
func (t *TelemetryConfig) Enabled() bool {
	return t.Endpoint != ""
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config data, then applies defaults and validation.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	applyMarketplaceDefaults(&cfg.Marketplace)
	applyServerDefaults(&cfg.Server)
	applyMCPDefaults(&cfg.MCP)
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyMarketplaceDefaults(m *MarketplaceConfig) {
	if m.Timeout == 0 {
		m.Timeout = 30 * time.Second
	}
	if m.RateLimit.PerSecond > 0 && m.RateLimit.Burst == 0 {
		m.RateLimit.Burst = 1
	}
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 60 * time.Second
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = 10 * time.Second
	}
}

func applyMCPDefaults(m *MCPConfig) {
	if m.Name == "" {
		m.Name = "marketplace"
	}
	if m.Version == "" {
		m.Version = "0.1.0"
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.ServiceName == "" {
		t.ServiceName = "marketplace"
	}
	if t.ExportInterval == 0 {
		t.ExportInterval = 30 * time.Second
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Marketplace.BaseURL != "" {
		u, err := url.Parse(cfg.Marketplace.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(
				errs,
				fmt.Errorf("marketplace.base_url must be an absolute http(s) URL (got %q)", cfg.Marketplace.BaseURL),
			)
		}
	}
	if cfg.Marketplace.Timeout < 0 {
		errs = append(errs, fmt.Errorf("marketplace.timeout must not be negative"))
	}
	if cfg.Marketplace.RateLimit.PerSecond < 0 {
		errs = append(errs, fmt.Errorf("marketplace.rate_limit.per_second must not be negative"))
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535 (got %d)", cfg.Server.Port))
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(
			errs,
			fmt.Errorf("logging.level must be one of: debug, info, warn, error (got %q)", cfg.Logging.Level),
		)
	}
	switch cfg.Logging.Format {
	case "text", "json", "pretty":
	default:
		errs = append(
			errs,
			fmt.Errorf("logging.format must be one of: text, json, pretty (got %q)", cfg.Logging.Format),
		)
	}

	return errors.Join(errs...)
}
