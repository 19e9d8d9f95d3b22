// Package config provides YAML-based configuration loading for the Moduri
// host tools.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root application configuration shared by the host tools.
type Config struct {
	// AppName optional logical name of the tool instance
	AppName string `mapstructure:"app_name"`

	// Log holds logging configuration
	Log LogConfig `mapstructure:"log"`

	// Endpoint configures the duplex communicator's network identity
	Endpoint EndpointConfig `mapstructure:"endpoint"`

	// Status configures the HTTP status client
	Status StatusConfig `mapstructure:"status"`

	// Beacon configures the periodic fixed-payload sender
	Beacon BeaconConfig `mapstructure:"beacon"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: list of outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`

	// Rotation controls file rotation when writing to files
	Rotation RotationConfig `mapstructure:"rotation"`
	// Development toggles development-friendly logging options
	Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Default returns a Config populated with sensible defaults. The network
// defaults match the unit's factory addressing.
func Default() *Config {
	return &Config{
		AppName: "moduri-comm",
		Log: LogConfig{
			Level:       "info",
			Format:      "console",
			Outputs:     []string{"stdout"},
			Development: true,
			Rotation: RotationConfig{
				Enable:     false,
				Filename:   "logs/moduri.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
		Endpoint: EndpointConfig{
			Kind:       "stream",
			Mode:       "listen",
			BindHost:   "0.0.0.0",
			BindPort:   8080,
			RemoteHost: "192.168.1.50",
			RemotePort: 5001,
		},
		Status: StatusConfig{
			BaseURL:   "http://192.168.4.1/api/v1",
			TimeoutMS: 5000,
		},
		Beacon: BeaconConfig{
			Kind:       "datagram",
			Address:    "192.168.1.50:4242",
			Payload:    "Yo from PC!",
			IntervalMS: 1000,
		},
	}
}

// Load reads configuration from the provided path (if non-empty),
// otherwise it searches common locations and supports environment overrides.
// Environment variables use the prefix MODURI and `.`/`-` are replaced
// with `_`. Example: MODURI_LOG_LEVEL=debug
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MODURI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults for viper so env-only configs work
	v.SetDefault("app_name", cfg.AppName)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
	// Endpoint defaults
	v.SetDefault("endpoint.kind", cfg.Endpoint.Kind)
	v.SetDefault("endpoint.mode", cfg.Endpoint.Mode)
	v.SetDefault("endpoint.bind_host", cfg.Endpoint.BindHost)
	v.SetDefault("endpoint.bind_port", cfg.Endpoint.BindPort)
	v.SetDefault("endpoint.remote_host", cfg.Endpoint.RemoteHost)
	v.SetDefault("endpoint.remote_port", cfg.Endpoint.RemotePort)
	// Status defaults
	v.SetDefault("status.base_url", cfg.Status.BaseURL)
	v.SetDefault("status.timeout_ms", cfg.Status.TimeoutMS)
	// Beacon defaults
	v.SetDefault("beacon.kind", cfg.Beacon.Kind)
	v.SetDefault("beacon.address", cfg.Beacon.Address)
	v.SetDefault("beacon.payload", cfg.Beacon.Payload)
	v.SetDefault("beacon.interval_ms", cfg.Beacon.IntervalMS)

	// Choose config file
	if path == "" {
		// Allow override via env var
		if envPath := os.Getenv("MODURI_CONFIG"); envPath != "" {
			path = envPath
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		// Search common locations with base name `moduri`
		v.SetConfigName("moduri")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".moduri"))
		}
	}

	// Read config file if present; if not found, continue with defaults/env
	if err := v.ReadInConfig(); err != nil {
		var viperConfigFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &viperConfigFileNotFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	lvl := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch lvl {
	case "debug", "info", "warn", "warning", "error":
		// ok
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}

	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stdout"}
	}

	if err := c.Endpoint.Validate(); err != nil {
		return err
	}
	if err := c.Status.validate(); err != nil {
		return err
	}
	return c.Beacon.Validate()
}

// MustLoad is a convenience that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}
