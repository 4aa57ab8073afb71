package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/cartpole/internal/dynamo"
)

const (
	DefaultDt               = 1000.0 / 60.0
	DefaultTicks            = 600
	DefaultSolverIterations = 1
	DefaultGravity          = 0.001
	DefaultDensity          = 0.001
	DefaultAirFriction      = 0.01
	DefaultRodLength        = 100.0
	DefaultDisturbance      = 0.002
	DefaultGainMax          = 0.01
	DefaultGainStep         = 0.001
	DefaultDataDir          = "~/.cartpole"
)

type Config struct {
	Preset           string       `yaml:"preset,omitempty"`
	Dt               float64      `yaml:"dt"`
	Ticks            int          `yaml:"ticks"`
	SolverIterations int          `yaml:"solver_iterations"`
	InitialAngle     float64      `yaml:"initial_angle"`
	Gains            GainsConfig  `yaml:"gains"`
	World            WorldConfig  `yaml:"world"`
	Logger           LoggerConfig `yaml:"logger"`
	DataDir          string       `yaml:"data_dir"`
}

type GainsConfig struct {
	P    float64 `yaml:"p"`
	D    float64 `yaml:"d"`
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
	Step float64 `yaml:"step"`
}

// WorldConfig is the scene geometry in pixels, with +y pointing down.
type WorldConfig struct {
	Width       float64 `yaml:"width"`
	Height      float64 `yaml:"height"`
	Gravity     float64 `yaml:"gravity"`
	Density     float64 `yaml:"density"`
	AirFriction float64 `yaml:"air_friction"`

	GroundY             float64 `yaml:"ground_y"`
	GroundHeight        float64 `yaml:"ground_height"`
	WallThickness       float64 `yaml:"wall_thickness"`
	BoundaryRestitution float64 `yaml:"boundary_restitution"`

	CartX           float64 `yaml:"cart_x"`
	CartY           float64 `yaml:"cart_y"`
	CartWidth       float64 `yaml:"cart_width"`
	CartHeight      float64 `yaml:"cart_height"`
	CartRestitution float64 `yaml:"cart_restitution"`

	BobRadius      float64 `yaml:"bob_radius"`
	BobRestitution float64 `yaml:"bob_restitution"`

	RodLength    float64 `yaml:"rod_length"`
	RodStiffness float64 `yaml:"rod_stiffness"`

	Disturbance float64 `yaml:"disturbance"`
}

type LoggerConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

func DefaultWorld() WorldConfig {
	return WorldConfig{
		Width:               600,
		Height:              300,
		Gravity:             DefaultGravity,
		Density:             DefaultDensity,
		AirFriction:         DefaultAirFriction,
		GroundY:             300,
		GroundHeight:        100,
		WallThickness:       10,
		BoundaryRestitution: 1,
		CartX:               300,
		CartY:               240,
		CartWidth:           40,
		CartHeight:          20,
		CartRestitution:     0,
		BobRadius:           10,
		BobRestitution:      0.5,
		RodLength:           DefaultRodLength,
		RodStiffness:        1,
		Disturbance:         DefaultDisturbance,
	}
}

func DefaultConfig() *Config {
	return &Config{
		Dt:               DefaultDt,
		Ticks:            DefaultTicks,
		SolverIterations: DefaultSolverIterations,
		Gains: GainsConfig{
			Min:  0,
			Max:  DefaultGainMax,
			Step: DefaultGainStep,
		},
		World: DefaultWorld(),
		Logger: LoggerConfig{
			Level:      "info",
			Format:     "console",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		},
		DataDir: DefaultDataDir,
	}
}

// Clone returns a deep copy; Config holds no reference types.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

func Load(path string) (*Config, error) {
	return LoadOnto(path, DefaultConfig())
}

// LoadOnto reads path over a copy of base. A preset named in the file
// replaces base, and the file's own keys override the preset.
func LoadOnto(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg := base.Clone()
	if head.Preset != "" {
		if cfg, err = GetPreset(head.Preset); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	w := c.World
	checks := []struct {
		ok   bool
		what string
	}{
		{c.Dt > 0, fmt.Sprintf("dt must be positive, got %f", c.Dt)},
		{c.Ticks >= 0, fmt.Sprintf("ticks must not be negative, got %d", c.Ticks)},
		{c.SolverIterations >= 1, fmt.Sprintf("solver_iterations must be at least 1, got %d", c.SolverIterations)},
		{math.Abs(c.InitialAngle) < math.Pi/2, fmt.Sprintf("initial_angle must be within (-pi/2, pi/2), got %f", c.InitialAngle)},
		{c.Gains.Min <= c.Gains.Max, fmt.Sprintf("gain range inverted: [%f, %f]", c.Gains.Min, c.Gains.Max)},
		{c.Gains.Step > 0, fmt.Sprintf("gain step must be positive, got %f", c.Gains.Step)},
		{w.Width > 0 && w.Height > 0, "world size must be positive"},
		{w.CartWidth > 0 && w.CartHeight > 0, "cart size must be positive"},
		{w.BobRadius > 0, "bob radius must be positive"},
		{w.RodLength > 0, fmt.Sprintf("rod_length must be positive, got %f", w.RodLength)},
		{w.RodStiffness >= 0 && w.RodStiffness <= 1, fmt.Sprintf("rod_stiffness must be within [0, 1], got %f", w.RodStiffness)},
		{w.AirFriction >= 0 && w.AirFriction < 1, fmt.Sprintf("air_friction must be within [0, 1), got %f", w.AirFriction)},
		{w.Disturbance >= 0, "disturbance must not be negative"},
	}
	for _, chk := range checks {
		if !chk.ok {
			return fmt.Errorf("%w: %s", dynamo.ErrParameterBounds, chk.what)
		}
	}
	return nil
}
