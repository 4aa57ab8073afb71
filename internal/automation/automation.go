package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/cartpole/internal/config"
	"github.com/san-kum/cartpole/internal/dynamo"
	"github.com/san-kum/cartpole/internal/metrics"
	"github.com/san-kum/cartpole/internal/sim"
)

// SettleThreshold is the |angle| band, in radians, treated as balanced.
const SettleThreshold = 0.01

// Scenario defines a scripted sequence of runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run on a freshly built world.
type ScenarioStep struct {
	Name         string      `yaml:"name"`
	Preset       string      `yaml:"preset"`
	Ticks        int         `yaml:"ticks"`
	InitialAngle *float64    `yaml:"initial_angle"`
	P            *float64    `yaml:"p"`
	D            *float64    `yaml:"d"`
	Events       []sim.Event `yaml:"events"`
	Record       bool        `yaml:"record"`
}

type StepResult struct {
	Step   ScenarioStep
	Config *config.Config
	Result *sim.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &scenario, nil
}

func (s *Scenario) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: scenario %q has no steps", dynamo.ErrParameterBounds, s.Name)
	}
	for i, step := range s.Steps {
		if step.Preset != "" {
			if _, ok := config.Presets[step.Preset]; !ok {
				return fmt.Errorf("step %d: %w: %q", i+1, dynamo.ErrUnknownPreset, step.Preset)
			}
		}
		for _, ev := range step.Events {
			if err := ev.Validate(); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
		}
	}
	return nil
}

// StepConfig resolves the config a step runs with: base, then the step's
// preset, then its own overrides.
func (st ScenarioStep) StepConfig(base *config.Config) (*config.Config, error) {
	cfg := base.Clone()
	if st.Preset != "" {
		p, err := config.GetPreset(st.Preset)
		if err != nil {
			return nil, err
		}
		cfg = p
	}
	if st.Ticks > 0 {
		cfg.Ticks = st.Ticks
	}
	if st.InitialAngle != nil {
		cfg.InitialAngle = *st.InitialAngle
	}
	if st.P != nil {
		cfg.Gains.P = *st.P
	}
	if st.D != nil {
		cfg.Gains.D = *st.D
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// StandardMetrics is the metric set attached to scripted and batch runs.
func StandardMetrics(cfg *config.Config) []dynamo.Metric {
	w := cfg.World
	bobMass := math.Pi * w.BobRadius * w.BobRadius * w.Density
	return []dynamo.Metric{
		metrics.NewPeakAngle(),
		metrics.NewStability(SettleThreshold),
		metrics.NewSettling(SettleThreshold),
		metrics.NewControlEffort(),
		metrics.NewRodDrift(),
		metrics.NewEnergy(bobMass, w.RodLength, w.Gravity, cfg.Dt),
	}
}

// RunScenario executes all steps in a scenario
func RunScenario(ctx context.Context, scenario *Scenario, base *config.Config, log *zap.Logger) ([]StepResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("scenario").With(zap.String("scenario", scenario.Name))

	results := make([]StepResult, 0, len(scenario.Steps))
	for i, step := range scenario.Steps {
		cfg, err := step.StepConfig(base)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		log.Info("running step",
			zap.Int("step", i+1),
			zap.Int("of", len(scenario.Steps)),
			zap.String("name", step.Name),
			zap.String("preset", cfg.Preset))

		s := sim.New(cfg, sim.WithLogger(log))
		for _, m := range StandardMetrics(cfg) {
			s.AddMetric(m)
		}

		res, err := s.Run(ctx, sim.RunConfig{Ticks: cfg.Ticks, Events: step.Events, Record: step.Record})
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}
		results = append(results, StepResult{Step: step, Config: cfg, Result: res})
	}
	return results, nil
}

// MonteCarloConfig defines Monte Carlo simulation parameters
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64 // max |initial angle|, radians
	NumTrials    int
	Ticks        int
	Seed         int64
}

// MonteCarloResult holds the outcome of one trial
type MonteCarloResult struct {
	TrialID      int
	InitialAngle float64
	FinalAngle   float64
	PeakAngle    float64
	Stable       bool // ended inside the settle band
}

// RunMonteCarlo runs the base config from random initial tilts.
func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig) ([]MonteCarloResult, error) {
	if mc.NumTrials <= 0 || mc.Ticks <= 0 {
		return nil, fmt.Errorf("%w: trials and ticks must be positive", dynamo.ErrParameterBounds)
	}
	if mc.Perturbation < 0 || mc.Perturbation >= math.Pi/2 {
		return nil, fmt.Errorf("%w: perturbation must be within [0, pi/2), got %f", dynamo.ErrParameterBounds, mc.Perturbation)
	}

	rng := rand.New(rand.NewSource(mc.Seed))
	if mc.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	results := make([]MonteCarloResult, 0, mc.NumTrials)
	for trial := 0; trial < mc.NumTrials; trial++ {
		cfg := mc.Base.Clone()
		cfg.InitialAngle = (rng.Float64()*2 - 1) * mc.Perturbation

		s := sim.New(cfg)
		peak := metrics.NewPeakAngle()
		settle := metrics.NewSettling(SettleThreshold)
		s.AddMetric(peak)
		s.AddMetric(settle)

		res, err := s.Run(ctx, sim.RunConfig{Ticks: mc.Ticks})
		if err != nil {
			return results, err
		}
		results = append(results, MonteCarloResult{
			TrialID:      trial,
			InitialAngle: cfg.InitialAngle,
			FinalAngle:   res.Final.Angle,
			PeakAngle:    peak.Value(),
			Stable:       settle.Value() >= 0,
		})
	}
	return results, nil
}

// StableFraction is the share of trials that ended balanced.
func StableFraction(results []MonteCarloResult) float64 {
	if len(results) == 0 {
		return 0
	}
	n := 0
	for _, r := range results {
		if r.Stable {
			n++
		}
	}
	return float64(n) / float64(len(results))
}
