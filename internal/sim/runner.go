package sim

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/san-kum/cartpole/internal/control"
)

// DefaultTickRate is the wall-clock rate the live loop aims for.
const DefaultTickRate = 60

// Runner drives a Simulator in real time. Disturbances and resets requested
// from other goroutines are queued and applied between ticks, so a reset is
// never observed half way through a step.
type Runner struct {
	sim      *Simulator
	limiter  *rate.Limiter
	requests chan func(*Simulator)
	log      *zap.Logger
}

func NewRunner(s *Simulator, hz float64, log *zap.Logger) *Runner {
	if hz <= 0 {
		hz = DefaultTickRate
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		sim:      s,
		limiter:  rate.NewLimiter(rate.Limit(hz), 1),
		requests: make(chan func(*Simulator), 16),
		log:      log.Named("runner"),
	}
}

func (r *Runner) Gains() *control.Gains { return r.sim.Gains() }

func (r *Runner) Disturb(ctx context.Context, targetX float64) error {
	return r.enqueue(ctx, func(s *Simulator) { s.Disturb(targetX) })
}

func (r *Runner) Reset(ctx context.Context) error {
	return r.enqueue(ctx, func(s *Simulator) { s.Reset() })
}

// SetParam tunes the controller by name. Gains are atomic, so this does not
// wait for the loop.
func (r *Runner) SetParam(name string, value float64) error {
	return r.sim.Controller().SetParam(name, value)
}

func (r *Runner) enqueue(ctx context.Context, fn func(*Simulator)) error {
	select {
	case r.requests <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) drain() {
	for {
		select {
		case fn := <-r.requests:
			fn(r.sim)
		default:
			return
		}
	}
}

// Run ticks until ctx is done or maxTicks ticks have run (0 means no limit).
func (r *Runner) Run(ctx context.Context, maxTicks int) error {
	r.log.Info("real-time loop started", zap.Float64("hz", float64(r.limiter.Limit())))
	defer r.log.Info("real-time loop stopped", zap.Uint64("tick", r.sim.Frame().Tick))

	for n := 0; maxTicks <= 0 || n < maxTicks; n++ {
		if err := r.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		r.drain()
		r.sim.Tick()
	}
	r.drain()
	return nil
}
