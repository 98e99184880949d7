package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 25.0
	DefaultSetpoint = 1.0
)

// Config describes one closed-loop scenario: the simulated plant, the
// controller gains in the common kp/ki/kd/kt parameterization, and the
// run schedule.
type Config struct {
	Plant      PlantConfig      `yaml:"plant"`
	Controller ControllerConfig `yaml:"controller"`
	Actuator   ActuatorConfig   `yaml:"actuator"`
	Dt         float64          `yaml:"dt"`
	Duration   float64          `yaml:"duration"`
	Setpoint   float64          `yaml:"setpoint"`
	Dropout    float64          `yaml:"dropout"`
	Seed       int64            `yaml:"seed"`
}

// PlantConfig holds the third-order transfer function coefficients
// b0 / (s^3 + a2 s^2 + a1 s + a0).
type PlantConfig struct {
	A0 float64 `yaml:"a0"`
	A1 float64 `yaml:"a1"`
	A2 float64 `yaml:"a2"`
	B0 float64 `yaml:"b0"`
}

// ControllerConfig holds the common-gain parameterization. Zero ki,
// kd, or kt disables the corresponding action.
type ControllerConfig struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`
	Kt float64 `yaml:"kt"`
}

// ActuatorConfig bounds the applied signal. Min == Max means no
// saturation.
type ActuatorConfig struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Saturates reports whether the actuator clamps the signal.
func (a ActuatorConfig) Saturates() bool {
	return a.Max > a.Min
}

// Default returns the Astrom and Murray Figure 10.2 scenario.
func Default() *Config {
	return &Config{
		Plant:      PlantConfig{A0: 1, A1: 3, A2: 3, B0: 1},
		Controller: ControllerConfig{Kp: 2, Ki: 0.5},
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Setpoint:   DefaultSetpoint,
	}
}

// Load reads a YAML config, layering it over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects schedules the loop cannot run.
func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %g", c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %g", c.Duration)
	}
	if c.Dropout < 0 || c.Dropout > 1 {
		return fmt.Errorf("dropout must lie in [0, 1], got %g", c.Dropout)
	}
	if c.Plant.B0 == 0 {
		return fmt.Errorf("plant numerator b0 must be nonzero")
	}
	return nil
}
