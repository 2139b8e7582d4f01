package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config tunes the simulated physics.
type Config struct {
	// Threshold is the distance in pixels a contact must travel before a
	// manipulation starts.
	Threshold float64 `yaml:"threshold"`
	// Friction is the exponential decay rate of inertia per second.
	Friction float64 `yaml:"friction"`
	// MinVelocity is the speed in pixels per second below which inertia stops.
	MinVelocity float64 `yaml:"min_velocity"`
	// BringIntoView is the duration in seconds of animated bring-into-view.
	BringIntoView float64 `yaml:"bring_into_view"`
	Ease          string  `yaml:"ease"`
	// TickRate is how many physics steps Run performs per second.
	TickRate int `yaml:"tick_rate"`
}

// DefaultConfig returns the physics used when none are given.
func DefaultConfig() Config {
	return Config{
		Threshold:     4,
		Friction:      4,
		MinVelocity:   20,
		BringIntoView: 0.3,
		Ease:          "out-cubic",
		TickRate:      120,
	}
}

// LoadConfig parses YAML over the defaults.
func LoadConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse sim config: %w", err)
	}
	if err := cfg.Verify(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ReadConfigFile loads a YAML sim config file.
func ReadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return LoadConfig(data)
}

// Verify checks the settings.
func (c *Config) Verify() error {
	switch {
	case c.Threshold < 0:
		return fmt.Errorf("sim config: threshold must be >= 0, got %v", c.Threshold)
	case c.Friction <= 0:
		return fmt.Errorf("sim config: friction must be > 0, got %v", c.Friction)
	case c.MinVelocity < 0:
		return fmt.Errorf("sim config: min_velocity must be >= 0, got %v", c.MinVelocity)
	case c.BringIntoView < 0:
		return fmt.Errorf("sim config: bring_into_view must be >= 0, got %v", c.BringIntoView)
	case c.TickRate <= 0:
		return fmt.Errorf("sim config: tick_rate must be > 0, got %d", c.TickRate)
	}
	return nil
}
