package sim

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/cartpole/internal/config"
	"github.com/san-kum/cartpole/internal/control"
	"github.com/san-kum/cartpole/internal/dynamo"
	"github.com/san-kum/cartpole/internal/physics"
)

type Simulator struct {
	cfg       *config.Config
	log       *zap.Logger
	gains     *control.Gains
	pd        *control.PD
	estimator control.AngleEstimator
	scene     *scene
	tick      uint64
	frame     dynamo.Frame
	fallen    bool
	metrics   []dynamo.Metric
	observers []dynamo.Observer
}

type Option func(*Simulator)

func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.log = l.Named("sim")
		}
	}
}

// WithGains shares an operator-owned gain pair instead of creating one from
// the config.
func WithGains(g *control.Gains) Option {
	return func(s *Simulator) { s.gains = g }
}

func New(cfg *config.Config, opts ...Option) *Simulator {
	s := &Simulator{
		cfg: cfg.Clone(),
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.gains == nil {
		s.gains = control.NewGains(GainRange(cfg), cfg.Gains.P, cfg.Gains.D)
	}
	s.pd = control.NewPD(s.gains)
	s.Reset()
	return s
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Config() *config.Config { return s.cfg.Clone() }

func (s *Simulator) Gains() *control.Gains { return s.gains }

// Controller exposes the PD law for tuning by parameter name.
func (s *Simulator) Controller() dynamo.Configurable { return s.pd }

func (s *Simulator) World() *physics.World { return s.scene.world }

func (s *Simulator) Cart() *physics.Body { return s.scene.cart }

func (s *Simulator) Bob() *physics.Body { return s.scene.bob }

func (s *Simulator) Rod() *physics.Rod { return s.scene.rod }

// Frame returns the most recent frame.
func (s *Simulator) Frame() dynamo.Frame { return s.frame }

// Reset rebuilds every body and the rod from the config and forgets the
// previous angle. Gains are operator state and survive a reset.
func (s *Simulator) Reset() {
	s.scene = buildScene(s.cfg)
	s.estimator.Reset()
	s.tick = 0
	s.fallen = false
	p, d := s.gains.Snapshot()
	s.frame = s.makeFrame(s.cfg.InitialAngle, 0, 0, p, d)
	s.log.Debug("world reset", zap.Float64("initial_angle", s.cfg.InitialAngle))
}

// Tick advances one step using the configured dt and the current gains.
func (s *Simulator) Tick() dynamo.Frame {
	p, d := s.gains.Snapshot()
	return s.TickWith(s.cfg.Dt, p, d)
}

// TickWith steps the world, estimates the pole angle and queues the PD force
// on the cart for the next step. Gains outside the configured range are
// clamped before they reach the control law.
func (s *Simulator) TickWith(dt, pGain, dGain float64) dynamo.Frame {
	rng := s.gains.Range()
	pGain, dGain = rng.Clamp(pGain), rng.Clamp(dGain)

	s.scene.world.Step(dt)

	cart := s.scene.cart
	angle, rate := s.estimator.Estimate(cart.Position, s.scene.bob.Position)
	force := control.ComputeForce(angle, rate, pGain, dGain)
	cart.ApplyForce(dynamo.V(force, 0), cart.Position)

	s.tick++
	s.frame = s.makeFrame(angle, rate, force, pGain, dGain)

	if !s.fallen && math.Abs(angle) >= math.Pi/2 {
		s.fallen = true
		s.log.Info("pole fell", zap.Uint64("tick", s.tick), zap.Float64("angle", angle))
	}

	for _, m := range s.metrics {
		m.Observe(s.frame)
	}
	for _, o := range s.observers {
		o.OnTick(s.frame)
	}
	return s.frame
}

// Disturb pushes the bob horizontally away from targetX for the next step.
func (s *Simulator) Disturb(targetX float64) float64 {
	fx := control.Disturb(s.scene.bob, targetX, s.cfg.World.Disturbance)
	s.log.Debug("disturb",
		zap.Uint64("tick", s.tick),
		zap.Float64("target_x", targetX),
		zap.Float64("fx", fx))
	return fx
}

func (s *Simulator) makeFrame(angle, rate, force, p, d float64) dynamo.Frame {
	return dynamo.Frame{
		Tick:            s.tick,
		Angle:           angle,
		AngularVelocity: rate,
		Force:           force,
		PGain:           p,
		DGain:           d,
		RodLength:       s.scene.rod.Length(),
		RestLength:      s.scene.rod.RestLength,
		Cart:            s.scene.cart.View(),
		Bob:             s.scene.bob.View(),
		Statics:         s.scene.statics,
	}
}

func (s *Simulator) valid() bool {
	for _, b := range s.scene.world.Bodies() {
		if !b.Position.IsValid() || !b.Velocity.IsValid() {
			return false
		}
	}
	return true
}

// Run simulates rc.Ticks ticks headlessly, applying scripted events and
// collecting metrics. It starts from the simulator's current state.
func (s *Simulator) Run(ctx context.Context, rc RunConfig) (*Result, error) {
	if err := rc.validate(); err != nil {
		return nil, err
	}

	result := &Result{
		Metrics: make(map[string]float64),
	}
	if rc.Record {
		result.Frames = make([]dynamo.Frame, 0, rc.Ticks)
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	events := rc.sortedEvents()
	next := 0

	s.log.Info("run started",
		zap.Int("ticks", rc.Ticks),
		zap.Int("events", len(events)),
		zap.Float64("p", s.gains.P()),
		zap.Float64("d", s.gains.D()))

	for i := 0; i < rc.Ticks; i++ {
		select {
		case <-ctx.Done():
			result.Final = s.frame
			return result, &dynamo.SimulationError{
				Tick:    s.tick,
				Wrapped: fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err()),
			}
		default:
		}

		for next < len(events) && events[next].Tick <= i {
			s.apply(events[next])
			next++
		}

		f := s.Tick()
		result.TicksTaken++
		if rc.Record {
			result.Frames = append(result.Frames, f)
		}

		if !s.valid() {
			err := &dynamo.SimulationError{Tick: f.Tick, Wrapped: dynamo.ErrInvalidState}
			result.Errors = append(result.Errors, err)
			s.log.Warn("run aborted", zap.Error(err))
			break
		}
	}

	result.Final = s.frame
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.log.Info("run finished",
		zap.Int("ticks", result.TicksTaken),
		zap.Float64("final_angle", result.Final.Angle))
	return result, nil
}

func (s *Simulator) apply(ev Event) {
	switch ev.Action {
	case ActionDisturb:
		s.Disturb(ev.X)
	case ActionReset:
		s.Reset()
	case ActionGains:
		if ev.P != nil {
			s.gains.SetP(*ev.P)
		}
		if ev.D != nil {
			s.gains.SetD(*ev.D)
		}
		s.log.Debug("gains set", zap.Float64("p", s.gains.P()), zap.Float64("d", s.gains.D()))
	}
}
