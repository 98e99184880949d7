package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "helm.yaml")

	want := Default()
	want.Controller = ControllerConfig{Kp: 3, Ki: 0.25, Kd: 0.5, Kt: 0.1}
	want.Actuator = ActuatorConfig{Min: -1, Max: 1}
	want.Dropout = 0.05
	want.Seed = 7

	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if *got != *want {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := writeFile(path, "controller:\n  kp: 5\n"); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Controller.Kp != 5 {
		t.Errorf("Kp = %g, want 5", cfg.Controller.Kp)
	}
	if cfg.Dt != DefaultDt {
		t.Errorf("Dt = %g, want default %g", cfg.Dt, DefaultDt)
	}
	if cfg.Plant.A2 != 3 {
		t.Errorf("A2 = %g, want default 3", cfg.Plant.A2)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative duration", func(c *Config) { c.Duration = -1 }},
		{"dropout above one", func(c *Config) { c.Dropout = 2 }},
		{"zero b0", func(c *Config) { c.Plant.B0 = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if cfg.Validate() == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestPresetsAreValid(t *testing.T) {
	for _, name := range ListPresets() {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %q invalid: %v", name, err)
		}
	}
}

func TestGetPresetUnknown(t *testing.T) {
	if GetPreset("no-such-preset") != nil {
		t.Error("expected nil for unknown preset")
	}
}
