// YAML config loader with CUE validation integration
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang/geo/r3"
	"gopkg.in/yaml.v3"

	"quadsim/internal/control"
	"quadsim/internal/flight"
	"quadsim/internal/queue"
	"quadsim/internal/scene"
	"quadsim/internal/vision"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// QueueConfig tunes the discrete action mode.
type QueueConfig struct {
	MaxSpeed float64 `yaml:"max_speed" json:"max_speed"`
}

// FlightConfig is the root configuration of one simulated flight.
type FlightConfig struct {
	Profile    string         `yaml:"profile" json:"profile"`
	RateHz     float64        `yaml:"rate_hz" json:"rate_hz"`
	Start      r3.Vector      `yaml:"start" json:"start"`
	Gains      flight.Gains   `yaml:"gains" json:"gains"`
	Camera     scene.Config   `yaml:"camera" json:"camera"`
	Detector   vision.Config  `yaml:"detector" json:"detector"`
	Controller control.Config `yaml:"controller" json:"controller"`
	Queue      QueueConfig    `yaml:"queue" json:"queue"`
}

// TickInterval is the wall-clock period of one tick.
func (c *FlightConfig) TickInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.RateHz)
}

// Load reads a YAML config, validates it against the CUE schema when one is
// given, and overlays it on the profile it names.
func Load(configPath, cueSchemaPath string) (*FlightConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if cueSchemaPath != "" {
		if err := ValidateWithCue(configPath, data, cueSchemaPath); err != nil {
			return nil, err
		}
	}
	return Parse(data)
}

// Parse decodes YAML onto the named profile and validates the result.
func Parse(data []byte) (*FlightConfig, error) {
	var head struct {
		Profile string `yaml:"profile"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg, err := Profile(head.Profile)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section and wraps failures in ErrInvalidConfig.
func (c *FlightConfig) Validate() error {
	if c.RateHz <= 0 {
		return fmt.Errorf("%w: rate_hz must be positive, got %v", ErrInvalidConfig, c.RateHz)
	}
	if c.Queue.MaxSpeed < 0 {
		return fmt.Errorf("%w: queue max_speed must not be negative", ErrInvalidConfig)
	}
	if c.Camera.Order != c.Detector.Order {
		return fmt.Errorf("%w: camera order %q does not match detector order %q", ErrInvalidConfig, c.Camera.Order, c.Detector.Order)
	}
	sections := []struct {
		name string
		v    interface{ Validate() error }
	}{
		{"camera", c.Camera},
		{"detector", c.Detector},
		{"controller", c.Controller},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, s.name, err)
		}
	}
	return nil
}

// Default returns the tuned profile.
func Default() *FlightConfig {
	return &FlightConfig{
		Profile:    ProfileTuned,
		RateHz:     60,
		Start:      r3.Vector{X: 0.6, Y: 0.5, Z: 0.4},
		Gains:      flight.DefaultGains(),
		Camera:     scene.DefaultConfig(),
		Detector:   vision.DefaultConfig(),
		Controller: control.DefaultConfig(),
		Queue:      QueueConfig{MaxSpeed: queue.DefaultMaxSpeed},
	}
}
