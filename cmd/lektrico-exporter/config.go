package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/muurk/lektrico/internal/config"
	"github.com/muurk/lektrico/internal/exporter"
)

// Config is the exporter configuration, read from the environment.
type Config struct {
	// Devices is "name=host:type,..."; the registry file is used when empty
	Devices  string        `env:"LEKTRICO_DEVICES"`
	Listen   string        `env:"LEKTRICO_EXPORTER_LISTEN" envDefault:":9850"`
	Timeout  time.Duration `env:"LEKTRICO_TIMEOUT" envDefault:"8s"`
	LogLevel string        `env:"LEKTRICO_LOG_LEVEL"`
}

// loadConfig parses the configuration from environ, or from the process
// environment when environ is nil.
func loadConfig(environ map[string]string) (*Config, error) {
	var cfg Config
	opts := env.Options{Environment: environ}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("LEKTRICO_TIMEOUT must be positive, got %s", cfg.Timeout)
	}
	return &cfg, nil
}

// devices returns the devices to scrape.
func (c *Config) devices() ([]exporter.Device, error) {
	if c.Devices != "" {
		return exporter.ParseDevices(c.Devices)
	}

	registry, err := config.LoadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	devices := exporter.DevicesFromRegistry(registry)
	if len(devices) == 0 {
		return nil, fmt.Errorf("no devices configured: set LEKTRICO_DEVICES or add devices with lektrico-cli")
	}
	return devices, nil
}
