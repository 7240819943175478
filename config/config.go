// config/config.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package config holds the run configuration read from a YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mmp/scopesim/nav"
	"github.com/mmp/scopesim/wx"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Sim      SimConfig      `yaml:"sim"`
	Airspace AirspaceConfig `yaml:"airspace"`
	Feed     FeedConfig     `yaml:"feed"`
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	Dir   string `yaml:"dir"`   // empty for the user config directory
}

type SimConfig struct {
	TickRate int        `yaml:"tick_rate"` // steps per second
	Scenario string     `yaml:"scenario"`  // JSON scenario or exported state; empty for the demo
	Limits   nav.Limits `yaml:"limits"`
	// Winds aloft used when the scenario doesn't specify any.
	Winds []wx.WindLayer `yaml:"winds"`
}

type AirspaceConfig struct {
	Manifest string `yaml:"manifest"` // empty for no map
}

type FeedConfig struct {
	Listen   string        `yaml:"listen"` // empty disables the feed
	Interval time.Duration `yaml:"interval"`
}

func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Sim: SimConfig{
			TickRate: 30,
			Limits:   nav.DefaultLimits(),
		},
		Feed: FeedConfig{Interval: time.Second},
	}
}

// Load reads the configuration at path, filling in defaults for anything
// it doesn't set. If the file doesn't exist, it is created with the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to save config file: %w", err)
		}
		return cfg, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Sim.TickRate <= 0 {
		return fmt.Errorf("tick_rate %d: must be positive", c.Sim.TickRate)
	}
	l := c.Sim.Limits
	if l.TurnRate <= 0 || l.VerticalRateChange <= 0 || l.MaxVerticalRate <= 0 {
		return fmt.Errorf("limits: rates must be positive")
	}
	if l.MinFlightLevel >= l.MaxFlightLevel {
		return fmt.Errorf("limits: min_flight_level %v is not below max_flight_level %v",
			l.MinFlightLevel, l.MaxFlightLevel)
	}
	if c.Feed.Interval < 0 {
		return fmt.Errorf("feed interval %v: must not be negative", c.Feed.Interval)
	}
	return nil
}

// Save writes the configuration to path, creating its directory if
// needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	header := []byte("# scopesim configuration\n# Durations use Go syntax, e.g. 500ms or 2s.\n\n")
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
