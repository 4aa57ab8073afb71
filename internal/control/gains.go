package control

import (
	"math"
	"sync/atomic"
)

type Range struct {
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
	Step float64 `yaml:"step"`
}

// DefaultRange matches the operator sliders: 0 to 0.01 in steps of 0.001.
var DefaultRange = Range{Min: 0, Max: 0.01, Step: 0.001}

func (r Range) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return r.Min
	}
	return math.Max(r.Min, math.Min(r.Max, v))
}

// Gains is the operator-owned pair of PD gains. Writers may run on any
// goroutine; the simulation reads both once per tick through Snapshot.
type Gains struct {
	rng Range
	p   atomic.Uint64
	d   atomic.Uint64
}

func NewGains(rng Range, p, d float64) *Gains {
	g := &Gains{rng: rng}
	g.Set(p, d)
	return g
}

func (g *Gains) Range() Range { return g.rng }

func (g *Gains) P() float64 { return math.Float64frombits(g.p.Load()) }

func (g *Gains) D() float64 { return math.Float64frombits(g.d.Load()) }

func (g *Gains) SetP(v float64) { g.p.Store(math.Float64bits(g.rng.Clamp(v))) }

func (g *Gains) SetD(v float64) { g.d.Store(math.Float64bits(g.rng.Clamp(v))) }

func (g *Gains) Set(p, d float64) {
	g.SetP(p)
	g.SetD(d)
}

func (g *Gains) Snapshot() (p, d float64) {
	return g.P(), g.D()
}

type Param int

const (
	ParamP Param = iota
	ParamD
)

func (p Param) String() string {
	if p == ParamD {
		return "D"
	}
	return "P"
}

// Nudge moves one gain by whole slider steps and returns the new value.
// Results are rounded to the step grid so repeated nudges do not drift.
func (g *Gains) Nudge(param Param, steps int) float64 {
	cur := g.P()
	if param == ParamD {
		cur = g.D()
	}
	next := cur + float64(steps)*g.rng.Step
	if g.rng.Step > 0 {
		next = math.Round(next/g.rng.Step) * g.rng.Step
	}
	if param == ParamD {
		g.SetD(next)
		return g.D()
	}
	g.SetP(next)
	return g.P()
}
