// Package config loads service configuration from an optional YAML file with
// environment variable overrides. Every field has a working default so the
// binary runs with no configuration at all.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DrawDatesConfig holds the connection parameters of the remote draw-date
// table. Leaving either empty keeps the remote side disabled.
type DrawDatesConfig struct {
	ServiceURL string `yaml:"service_url"`
	ServiceKey string `yaml:"service_key"`
}

// Config holds all service settings.
type Config struct {
	Port      int             `yaml:"port"`
	DataFile  string          `yaml:"data_file"`
	Verbose   bool            `yaml:"verbose"`
	DrawDates DrawDatesConfig `yaml:"draw_dates"`
}

// Load reads the YAML file at path (skipped when path is empty), then applies
// environment overrides: PORT, RAFFLE_DATA_FILE, RAFFLE_CONFIG_URL,
// RAFFLE_CONFIG_KEY.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Port:     8080,
		DataFile: "raffle_data.json",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("RAFFLE_DATA_FILE"); v != "" {
		cfg.DataFile = v
	}
	if v := os.Getenv("RAFFLE_CONFIG_URL"); v != "" {
		cfg.DrawDates.ServiceURL = v
	}
	if v := os.Getenv("RAFFLE_CONFIG_KEY"); v != "" {
		cfg.DrawDates.ServiceKey = v
	}
	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
