package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type PlayerConfig struct {
	Version  int `yaml:"version"`
	Scenario struct {
		ID          string `yaml:"id"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"scenario"`
	Player struct {
		StepDT      float64 `yaml:"step_dt"`
		Realtime    *bool   `yaml:"realtime"`
		StartPaused bool    `yaml:"start_paused"`
		ScriptsDir  string  `yaml:"scripts_dir"`
	} `yaml:"player"`
	Network struct {
		APIPort     int    `yaml:"api_port"`
		TopicPrefix string `yaml:"topic_prefix"`
	} `yaml:"network"`
	Entities []EntityConfig `yaml:"entities"`
	Actions  []ActionConfig `yaml:"actions"`
}

// EntityConfig seeds one simulated object.
type EntityConfig struct {
	ID        int     `yaml:"id"`
	Name      string  `yaml:"name"`
	Speed     float64 `yaml:"speed"`
	LaneID    int     `yaml:"lane_id"`
	LaneWidth float64 `yaml:"lane_width"`
}

// ActionConfig declares a user-defined action. It starts once sim time
// reaches StartTime, or when StartWhen evaluates true if that is set.
type ActionConfig struct {
	Name           string  `yaml:"name"`
	StartTime      float64 `yaml:"start_time"`
	StartWhen      string  `yaml:"start_when"`
	PayloadType    string  `yaml:"payload_type"`
	PayloadContent string  `yaml:"payload_content"`
}

// StepDT returns the fixed simulation step, defaulting to 0.05s.
func (c *PlayerConfig) StepDT() float64 {
	if c.Player.StepDT <= 0 {
		return 0.05
	}
	return c.Player.StepDT
}

// Realtime reports whether frames are paced by the wall clock. Defaults to true.
func (c *PlayerConfig) Realtime() bool {
	if c.Player.Realtime == nil {
		return true
	}
	return *c.Player.Realtime
}

// APIPort returns the configured API port, defaulting to 8080 if not set.
func (c *PlayerConfig) APIPort() int {
	if c.Network.APIPort == 0 {
		return 8080
	}
	return c.Network.APIPort
}

// TopicPrefix returns the MQTT topic root for this scenario.
func (c *PlayerConfig) TopicPrefix() string {
	prefix := c.Network.TopicPrefix
	if prefix == "" {
		prefix = "scenario"
	}
	return prefix + "/" + c.Scenario.ID
}

// LaneWidthOrDefault returns the entity lane width, defaulting to 3.5m.
func (e EntityConfig) LaneWidthOrDefault() float64 {
	if e.LaneWidth <= 0 {
		return 3.5
	}
	return e.LaneWidth
}

func LoadPlayerConfig(path string) (*PlayerConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePlayerConfig(b)
}

func ParsePlayerConfig(b []byte) (*PlayerConfig, error) {
	var cfg PlayerConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported player.yaml version: %d", cfg.Version)
	}
	if cfg.Scenario.ID == "" {
		return nil, fmt.Errorf("player.yaml: scenario.id is required")
	}

	seen := make(map[int]bool, len(cfg.Entities))
	for _, e := range cfg.Entities {
		if seen[e.ID] {
			return nil, fmt.Errorf("player.yaml: duplicate entity id %d", e.ID)
		}
		seen[e.ID] = true
	}

	names := make(map[string]bool, len(cfg.Actions))
	for _, a := range cfg.Actions {
		if a.Name == "" {
			return nil, fmt.Errorf("player.yaml: action name is required")
		}
		if names[a.Name] {
			return nil, fmt.Errorf("player.yaml: duplicate action name %q", a.Name)
		}
		names[a.Name] = true
	}

	return &cfg, nil
}
