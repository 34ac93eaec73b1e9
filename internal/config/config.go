// Package config handles configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all settings.
type Config struct {
	Scene   SceneConfig   `yaml:"scene" toml:"scene"`
	Haptics HapticsConfig `yaml:"haptics" toml:"haptics"`
	Session SessionConfig `yaml:"session" toml:"session"`
	Output  OutputConfig  `yaml:"output" toml:"output"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// SceneConfig holds input file paths.
type SceneConfig struct {
	Manifest string `yaml:"manifest" toml:"manifest"` // scene manifest (yaml or toml)
	Script   string `yaml:"script" toml:"script"`     // replay script driving the device
}

// HapticsConfig holds device-side settings.
type HapticsConfig struct {
	SpringStiffness     float32 `yaml:"spring_stiffness" toml:"spring_stiffness"`
	MaxStiffness        float32 `yaml:"max_stiffness" toml:"max_stiffness"`
	WorkspaceHalfExtent float32 `yaml:"workspace_half_extent" toml:"workspace_half_extent"`
	UpdateRateHz        int     `yaml:"update_rate_hz" toml:"update_rate_hz"`
	// Realtime paces replay at UpdateRateHz instead of running flat out.
	Realtime bool `yaml:"realtime" toml:"realtime"`
}

// SessionConfig holds interaction session settings.
type SessionConfig struct {
	// RequireConstraint only lets anchored edits begin while the workspace
	// constraint box is active.
	RequireConstraint bool `yaml:"require_constraint" toml:"require_constraint"`
	QueueSize         int  `yaml:"queue_size" toml:"queue_size"`
}

// OutputConfig holds export settings.
type OutputConfig struct {
	Dir         string `yaml:"dir" toml:"dir"`
	Preview     bool   `yaml:"preview" toml:"preview"`
	PreviewSize int    `yaml:"preview_size" toml:"preview_size"`
	Supersample int    `yaml:"supersample" toml:"supersample"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
	JSON    bool   `yaml:"json" toml:"json"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Scene: SceneConfig{
			Manifest: "scene.yaml",
		},
		Haptics: HapticsConfig{
			SpringStiffness:     0.1,
			MaxStiffness:        1.0,
			WorkspaceHalfExtent: 0.25,
			UpdateRateHz:        1000,
		},
		Session: SessionConfig{
			RequireConstraint: false,
			QueueSize:         256,
		},
		Output: OutputConfig{
			Dir:         "out",
			Preview:     true,
			PreviewSize: 512,
			Supersample: 2,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Haptics.SpringStiffness < 0:
		return fmt.Errorf("%w: spring_stiffness %v is negative", ErrInvalidConfig, c.Haptics.SpringStiffness)
	case c.Haptics.MaxStiffness <= 0:
		return fmt.Errorf("%w: max_stiffness must be positive", ErrInvalidConfig)
	case c.Haptics.WorkspaceHalfExtent <= 0:
		return fmt.Errorf("%w: workspace_half_extent must be positive", ErrInvalidConfig)
	case c.Haptics.UpdateRateHz <= 0:
		return fmt.Errorf("%w: update_rate_hz must be positive", ErrInvalidConfig)
	case c.Session.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.Output.Preview && (c.Output.PreviewSize <= 0 || c.Output.Supersample <= 0):
		return fmt.Errorf("%w: preview_size and supersample must be positive", ErrInvalidConfig)
	}
	return nil
}
