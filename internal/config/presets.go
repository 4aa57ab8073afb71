package config

import (
	"fmt"
	"sort"

	"github.com/san-kum/cartpole/internal/dynamo"
)

type Preset struct {
	Description string
	apply       func(c *Config)
}

var Presets = map[string]Preset{
	"upright": {
		Description: "pole balanced exactly upright, no control",
		apply:       func(c *Config) {},
	},
	"freefall": {
		Description: "small tilt with zero gains; the pole falls",
		apply: func(c *Config) {
			c.InitialAngle = 0.05
			c.Ticks = 120
		},
	},
	"balance": {
		Description: "small tilt caught by a well damped PD loop",
		apply: func(c *Config) {
			c.InitialAngle = 0.05
			c.Gains.P, c.Gains.D = 0.004, 0.008
		},
	},
	"recover": {
		Description: "large tilt with stiff gains",
		apply: func(c *Config) {
			c.InitialAngle = 0.2
			c.Gains.P, c.Gains.D = 0.006, 0.01
			c.Ticks = 900
		},
	},
	"soft": {
		Description: "half-stiffness rod with extra solver passes",
		apply: func(c *Config) {
			c.InitialAngle = 0.05
			c.Gains.P, c.Gains.D = 0.004, 0.008
			c.World.RodStiffness = 0.5
			c.SolverIterations = 6
		},
	},
}

// GetPreset returns a fresh config with the named preset applied over the
// defaults.
func GetPreset(name string) (*Config, error) {
	p, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownPreset, name)
	}
	cfg := DefaultConfig()
	p.apply(cfg)
	cfg.Preset = name
	return cfg, nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
