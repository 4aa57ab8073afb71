package metrics

import (
	"math"

	"github.com/san-kum/cartpole/internal/dynamo"
)

// Energy is the bob's mechanical energy about the pivot, relative to the
// upright rest position, averaged over the run. The cart's motion is not
// included, so this is a swing measure rather than a conserved quantity.
type Energy struct {
	name        string
	mass        float64
	length      float64
	gravity     float64
	dt          float64
	samples     int
	totalEnergy float64
}

func NewEnergy(mass, length, gravity, dt float64) *Energy {
	return &Energy{
		name:    "energy",
		mass:    mass,
		length:  length,
		gravity: gravity,
		dt:      dt,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(f dynamo.Frame) {
	omega := f.AngularVelocity / e.dt
	ke := 0.5 * e.mass * e.length * e.length * omega * omega
	pe := e.mass * e.gravity * e.length * (math.Cos(f.Angle) - 1)
	e.totalEnergy += ke + pe
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}
