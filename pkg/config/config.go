// Package config loads the client runtime's configuration file. Its struct
// shape is adapted from the teacher's cmd/vango/internal/config.Config,
// switched from JSON to YAML (gopkg.in/yaml.v3) to match this project's
// devtool config conventions.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk pulse.yaml client configuration.
type Config struct {
	// Timers controls the connection state machine's delay timers (spec §4.5).
	Timers TimersConfig `yaml:"timers"`

	// Cache controls the offline VDOM cache (spec §4.9).
	Cache CacheConfig `yaml:"cache"`

	// Websocket controls how the session client builds its connection URL.
	Websocket WebsocketConfig `yaml:"websocket"`
}

// TimersConfig holds every millisecond delay the session FSM needs (spec §4.5).
type TimersConfig struct {
	InitialConnectingDelayMs int `yaml:"initialConnectingDelayMs"`
	InitialErrorDelayMs      int `yaml:"initialErrorDelayMs"`
	ReconnectErrorDelayMs    int `yaml:"reconnectErrorDelayMs"`
}

// CacheConfig controls the offline cache's capacity and persistence.
type CacheConfig struct {
	Capacity  int  `yaml:"capacity"`
	Persisted bool `yaml:"persisted"`
}

// WebsocketConfig controls how the client builds its websocket URL.
type WebsocketConfig struct {
	// URLTemplate may contain {scheme}, {host}, and {path} placeholders.
	URLTemplate string `yaml:"urlTemplate"`
}

// Default returns the configuration used when no pulse.yaml is present,
// matching the delays spec §4.5 and §4.8 describe as defaults.
func Default() Config {
	return Config{
		Timers: TimersConfig{
			InitialConnectingDelayMs: 300,
			InitialErrorDelayMs:      3000,
			ReconnectErrorDelayMs:    5000,
		},
		Cache: CacheConfig{
			Capacity:  50,
			Persisted: false,
		},
		Websocket: WebsocketConfig{
			URLTemplate: "{scheme}://{host}/pulse/ws",
		},
	}
}

// Load reads and parses a pulse.yaml file at path, filling any field left
// unset in the file with Default()'s value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML to path.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
