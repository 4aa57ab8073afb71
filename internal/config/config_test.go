package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/cartpole/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Dt != 1000.0/60.0 {
		t.Errorf("expected dt 1000/60, got %f", cfg.Dt)
	}
	if cfg.SolverIterations != 1 {
		t.Errorf("expected a single solver pass, got %d", cfg.SolverIterations)
	}
	if cfg.Gains.P != 0 || cfg.Gains.D != 0 {
		t.Errorf("expected zero gains, got p=%f d=%f", cfg.Gains.P, cfg.Gains.D)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestDefaultWorldCartRestsOnGround(t *testing.T) {
	w := DefaultWorld()
	groundTop := w.GroundY - w.GroundHeight/2
	cartBottom := w.CartY + w.CartHeight/2
	if groundTop != cartBottom {
		t.Errorf("cart bottom %f should touch ground top %f", cartBottom, groundTop)
	}
}

func TestGetPreset(t *testing.T) {
	cfg, err := GetPreset("balance")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.InitialAngle != 0.05 {
		t.Errorf("expected initial angle 0.05, got %f", cfg.InitialAngle)
	}
	if cfg.Preset != "balance" {
		t.Errorf("expected preset name recorded, got %q", cfg.Preset)
	}

	// presets hand out copies
	cfg.Gains.P = 1
	again, _ := GetPreset("balance")
	if again.Gains.P != 0.004 {
		t.Errorf("preset mutated through a returned config: %f", again.Gains.P)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	_, err := GetPreset("nonexistent")
	if !errors.Is(err, dynamo.ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v", err)
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("presets not sorted: %v", names)
		}
	}
	for _, name := range names {
		cfg, err := GetPreset(name)
		if err != nil {
			t.Fatal(err)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"no solver passes", func(c *Config) { c.SolverIterations = 0 }},
		{"stiffness above one", func(c *Config) { c.World.RodStiffness = 1.5 }},
		{"flat rod", func(c *Config) { c.World.RodLength = 0 }},
		{"inverted gain range", func(c *Config) { c.Gains.Min, c.Gains.Max = 1, 0 }},
		{"tipped over", func(c *Config) { c.InitialAngle = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, dynamo.ErrParameterBounds) {
				t.Errorf("expected ErrParameterBounds, got %v", err)
			}
		})
	}
}

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cartpole.yaml")

	cfg := DefaultConfig()
	cfg.Gains.P = 0.003
	cfg.World.RodLength = 120
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Gains.P != 0.003 || loaded.World.RodLength != 120 {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestLoadPresetBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	data := []byte("preset: balance\ngains:\n  d: 0.009\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Gains.P != 0.004 {
		t.Errorf("expected p from preset, got %f", cfg.Gains.P)
	}
	if cfg.Gains.D != 0.009 {
		t.Errorf("expected d from file, got %f", cfg.Gains.D)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("dt: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
}

func TestLoadOntoKeepsBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte("ticks: 42\n"), 0644); err != nil {
		t.Fatal(err)
	}

	base, err := GetPreset("recover")
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadOnto(path, base)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ticks != 42 || cfg.InitialAngle != 0.2 || cfg.Preset != "recover" {
		t.Errorf("expected recover base with file ticks, got %+v", cfg)
	}
	if base.Ticks != 900 {
		t.Error("LoadOnto must not modify base")
	}
}
