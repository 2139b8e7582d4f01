package sway

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds registry settings. The zero value is not useful; start from
// DefaultConfig or LoadConfig.
type Config struct {
	LogLevel string `yaml:"log_level"`

	// StopOrphanedInertia force-stops inertia on elements that left the tree.
	StopOrphanedInertia bool `yaml:"stop_orphaned_inertia"`
	// RequestFramesWhileActive asks for a frame every tick something moves.
	RequestFramesWhileActive bool `yaml:"request_frames_while_active"`
	// DeferredReleasePerTick caps releases run per tick; 0 runs all.
	DeferredReleasePerTick int `yaml:"deferred_release_per_tick"`

	CrossSlide CrossSlideConfig `yaml:"cross_slide"`

	// Curves are named presets for content relationships.
	Curves map[string]CurvePreset `yaml:"curves"`
}

// CrossSlideConfig controls gesture arbitration.
type CrossSlideConfig struct {
	Enabled bool `yaml:"enabled"`
}

// CurvePreset describes a ParametricCurve in configuration.
type CurvePreset struct {
	Axis     string         `yaml:"axis"`
	Property string         `yaml:"property"`
	Segments []CurveSegment `yaml:"segments"`
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{
		LogLevel:                 "warn",
		StopOrphanedInertia:      true,
		RequestFramesWhileActive: true,
		CrossSlide:               CrossSlideConfig{Enabled: true},
	}
}

// LoadConfig parses YAML over the defaults and verifies the result.
func LoadConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Verify(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ReadConfigFile loads a YAML config file.
func ReadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return LoadConfig(data)
}

// WriteConfigFile writes cfg as YAML.
func WriteConfigFile(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Verify checks the settings.
func (c *Config) Verify() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.DeferredReleasePerTick < 0 {
		return fmt.Errorf("config: deferred_release_per_tick must be >= 0, got %d", c.DeferredReleasePerTick)
	}
	for name := range c.Curves {
		if _, err := c.Curve(name); err != nil {
			return err
		}
	}
	return nil
}

// Level parses LogLevel. An empty level means warn.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelWarn, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: log_level: %w", err)
	}
	return l, nil
}

// ParseAxis parses an axis name as written in configuration.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(s) {
	case "translationx", "x":
		return AxisTranslationX, nil
	case "translationy", "y":
		return AxisTranslationY, nil
	case "zoom":
		return AxisZoom, nil
	}
	return 0, fmt.Errorf("config: unknown axis %q", s)
}

// Curve builds the named curve preset.
func (c *Config) Curve(name string) (*ParametricCurve, error) {
	p, ok := c.Curves[name]
	if !ok {
		return nil, fmt.Errorf("config: no curve %q", name)
	}
	axis, err := ParseAxis(p.Axis)
	if err != nil {
		return nil, fmt.Errorf("curve %q: %w", name, err)
	}
	curve, err := NewParametricCurve(axis, p.Property, p.Segments...)
	if err != nil {
		return nil, fmt.Errorf("curve %q: %w", name, err)
	}
	return curve, nil
}
