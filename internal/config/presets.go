package config

import "sort"

// Presets are named ready-to-run scenarios.
var Presets = map[string]*Config{
	"astrom": {
		// Astrom & Murray Figure 10.2: triple pole at s = -1.
		Plant:      PlantConfig{A0: 1, A1: 3, A2: 3, B0: 1},
		Controller: ControllerConfig{Kp: 2, Ki: 0.5},
		Dt:         0.01, Duration: 25, Setpoint: 1,
	},
	"derivative": {
		// Same plant with filtered derivative action engaged.
		Plant:      PlantConfig{A0: 1, A1: 3, A2: 3, B0: 1},
		Controller: ControllerConfig{Kp: 2, Ki: 0.5, Kd: 1},
		Dt:         0.01, Duration: 25, Setpoint: 1,
	},
	"sluggish": {
		// Slow dominant pole; longer horizon to watch it settle.
		Plant:      PlantConfig{A0: 0.1, A1: 1.1, A2: 2, B0: 0.1},
		Controller: ControllerConfig{Kp: 4, Ki: 0.4},
		Dt:         0.02, Duration: 120, Setpoint: 1,
	},
	"saturated": {
		// Unreachable setpoint under the clamp; automatic reset keeps
		// the integral term honest.
		Plant:      PlantConfig{A0: 1, A1: 3, A2: 3, B0: 1},
		Controller: ControllerConfig{Kp: 2, Ki: 0.5, Kt: 1},
		Actuator:   ActuatorConfig{Min: -0.6, Max: 0.6},
		Dt:         0.01, Duration: 60, Setpoint: 1,
	},
	"lossy": {
		// One sample in ten never arrives.
		Plant:      PlantConfig{A0: 1, A1: 3, A2: 3, B0: 1},
		Controller: ControllerConfig{Kp: 2, Ki: 0.5},
		Dropout:    0.1, Seed: 42,
		Dt: 0.01, Duration: 25, Setpoint: 1,
	},
}

// GetPreset returns nil when no preset has the given name.
func GetPreset(name string) *Config {
	return Presets[name]
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
