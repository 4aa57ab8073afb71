package metrics

import (
	"math"

	"github.com/san-kum/cartpole/internal/dynamo"
)

type PeakAngle struct {
	peak float64
}

func NewPeakAngle() *PeakAngle { return &PeakAngle{} }

func (p *PeakAngle) Name() string { return "peak_angle" }

func (p *PeakAngle) Observe(f dynamo.Frame) {
	p.peak = math.Max(p.peak, math.Abs(f.Angle))
}

func (p *PeakAngle) Value() float64 { return p.peak }

func (p *PeakAngle) Reset() { p.peak = 0 }

// Settling reports the first tick after which |angle| never again exceeds
// the threshold. A run that ends outside the band reports -1.
type Settling struct {
	threshold float64
	settledAt uint64
	inside    bool
	seen      bool
}

func NewSettling(threshold float64) *Settling {
	return &Settling{threshold: threshold}
}

func (s *Settling) Name() string { return "settling_tick" }

func (s *Settling) Observe(f dynamo.Frame) {
	s.seen = true
	if math.Abs(f.Angle) > s.threshold {
		s.inside = false
		return
	}
	if !s.inside {
		s.inside = true
		s.settledAt = f.Tick
	}
}

func (s *Settling) Value() float64 {
	if !s.seen || !s.inside {
		return -1
	}
	return float64(s.settledAt)
}

func (s *Settling) Reset() {
	s.settledAt = 0
	s.inside = false
	s.seen = false
}

// RodDrift is the worst absolute deviation of the rod from its rest length.
type RodDrift struct {
	drift float64
}

func NewRodDrift() *RodDrift { return &RodDrift{} }

func (r *RodDrift) Name() string { return "rod_drift" }

func (r *RodDrift) Observe(f dynamo.Frame) {
	r.drift = math.Max(r.drift, math.Abs(f.RodLength-f.RestLength))
}

func (r *RodDrift) Value() float64 { return r.drift }

func (r *RodDrift) Reset() { r.drift = 0 }
