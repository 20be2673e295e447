package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Environment variables understood by LoadFromEnv and ApplyEnv
const (
	EnvConfigPath = "AGONES_SDK_CONFIG"
	EnvGRPCHost   = "AGONES_SDK_GRPC_HOST"
	EnvGRPCPort   = "AGONES_SDK_GRPC_PORT"
	EnvLogLevel   = "AGONES_SDK_LOG_LEVEL"
)

// Config holds the complete client configuration
type Config struct {
	Sidecar SidecarConfig `toml:"sidecar"`
	Health  HealthConfig  `toml:"health"`
	Logging LoggingConfig `toml:"logging"`
	Metrics MetricsConfig `toml:"metrics"`
	Local   LocalConfig   `toml:"local"`
}

// SidecarConfig describes how to reach the SDK sidecar
type SidecarConfig struct {
	Host              string   `toml:"host"`
	Port              int      `toml:"port"`
	DialTimeout       Duration `toml:"dial_timeout"`
	Block             bool     `toml:"block"`
	KeepaliveInterval Duration `toml:"keepalive_interval"`
	KeepaliveTimeout  Duration `toml:"keepalive_timeout"`
}

// HealthConfig holds heartbeat settings
type HealthConfig struct {
	Interval     Duration `toml:"interval"`
	CheckTimeout Duration `toml:"check_timeout"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus endpoint settings
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
}

// LocalConfig holds settings for the local development sidecar
type LocalConfig struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	HTTPPort       int    `toml:"http_port"`
	GameServerFile string `toml:"gameserver_file"`
}

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a configuration with all defaults applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML file
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}

	cfg.applyDefaults()
	cfg.Local.GameServerFile = os.ExpandEnv(cfg.Local.GameServerFile)

	return &cfg, nil
}

// LoadFromEnv loads the file named by AGONES_SDK_CONFIG or the first default
// location that exists, falls back to defaults, then applies env overrides
func LoadFromEnv() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		for _, p := range DefaultPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	cfg := Default()
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPaths lists the locations searched when no path is given
func DefaultPaths() []string {
	return []string{
		"./configs/agones-sdk.toml",
		"./agones-sdk.toml",
		filepath.Join(os.Getenv("HOME"), ".config/agones-sdk/config.toml"),
	}
}

// ApplyEnv overrides sidecar address and log level from the environment
func (c *Config) ApplyEnv() error {
	if host := os.Getenv(EnvGRPCHost); host != "" {
		c.Sidecar.Host = host
	}
	if port := os.Getenv(EnvGRPCPort); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return errors.Wrapf(err, "invalid %s %q", EnvGRPCPort, port)
		}
		c.Sidecar.Port = p
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Logging.Level = level
	}
	return nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// Sidecar
	if c.Sidecar.Host == "" {
		c.Sidecar.Host = "localhost"
	}
	if c.Sidecar.Port == 0 {
		c.Sidecar.Port = 59357
	}
	if c.Sidecar.DialTimeout.Duration == 0 {
		c.Sidecar.DialTimeout.Duration = 30 * time.Second
	}
	if c.Sidecar.KeepaliveInterval.Duration > 0 && c.Sidecar.KeepaliveTimeout.Duration == 0 {
		c.Sidecar.KeepaliveTimeout.Duration = 10 * time.Second
	}

	// Health
	if c.Health.Interval.Duration == 0 {
		c.Health.Interval.Duration = 2 * time.Second
	}
	if c.Health.CheckTimeout.Duration == 0 {
		c.Health.CheckTimeout.Duration = time.Second
	}

	// Logging
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	// Metrics
	if c.Metrics.Address == "" {
		c.Metrics.Address = "localhost:9090"
	}

	// Local sidecar
	if c.Local.Host == "" {
		c.Local.Host = "localhost"
	}
	if c.Local.Port == 0 {
		c.Local.Port = 59357
	}
	if c.Local.HTTPPort == 0 {
		c.Local.HTTPPort = 59358
	}
}

// SidecarAddress returns host:port of the sidecar
func (c *Config) SidecarAddress() string {
	return net.JoinHostPort(c.Sidecar.Host, strconv.Itoa(c.Sidecar.Port))
}

// Validate checks value ranges that toml cannot express
func (c *Config) Validate() error {
	if c.Sidecar.Port <= 0 || c.Sidecar.Port > 65535 {
		return fmt.Errorf("sidecar.port out of range: %d", c.Sidecar.Port)
	}
	if c.Local.Port <= 0 || c.Local.Port > 65535 {
		return fmt.Errorf("local.port out of range: %d", c.Local.Port)
	}
	if c.Health.Interval.Duration < 0 {
		return fmt.Errorf("health.interval must not be negative: %s", c.Health.Interval.Duration)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}
	return nil
}
