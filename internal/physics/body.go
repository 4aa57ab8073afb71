package physics

import (
	"math"

	"github.com/san-kum/cartpole/internal/dynamo"
)

// DefaultDensity gives mass = area * density, in the same units the
// original 2D engine used (pixels, milliseconds).
const DefaultDensity = 0.001

type BodyOptions struct {
	Density     float64
	Restitution float64
	AirFriction float64
	Static      bool
	// OnRail pins the body's vertical position; only horizontal motion is
	// integrated and only horizontal constraint corrections are accepted.
	OnRail bool
}

type Body struct {
	Label string
	Shape dynamo.Shape

	Position    dynamo.Vec
	Velocity    dynamo.Vec
	Orientation float64

	Width  float64
	Height float64
	Radius float64

	Mass        float64
	Static      bool
	OnRail      bool
	Restitution float64
	AirFriction float64

	force dynamo.Vec
	prev  dynamo.Vec
}

func NewRectangle(label string, x, y, w, h float64, opts BodyOptions) *Body {
	b := newBody(label, dynamo.ShapeRect, x, y, opts)
	b.Width, b.Height = w, h
	b.Mass = w * h * density(opts)
	return b
}

func NewCircle(label string, x, y, r float64, opts BodyOptions) *Body {
	b := newBody(label, dynamo.ShapeCircle, x, y, opts)
	b.Radius = r
	b.Mass = math.Pi * r * r * density(opts)
	return b
}

func newBody(label string, shape dynamo.Shape, x, y float64, opts BodyOptions) *Body {
	return &Body{
		Label:       label,
		Shape:       shape,
		Position:    dynamo.V(x, y),
		Static:      opts.Static,
		OnRail:      opts.OnRail,
		Restitution: opts.Restitution,
		AirFriction: opts.AirFriction,
	}
}

func density(opts BodyOptions) float64 {
	if opts.Density > 0 {
		return opts.Density
	}
	return DefaultDensity
}

// ApplyForce accumulates force until the end of the next world step. The
// application point is accepted for API symmetry with a full rigid-body
// engine; rotation is not simulated so it has no effect.
func (b *Body) ApplyForce(force, point dynamo.Vec) {
	if b.Static {
		return
	}
	b.force = b.force.Add(force)
}

func (b *Body) Force() dynamo.Vec { return b.force }

func (b *Body) ClearForce() { b.force = dynamo.Vec{} }

func (b *Body) InvMass() float64 {
	if b.Static || b.Mass <= 0 {
		return 0
	}
	return 1 / b.Mass
}

// HalfExtents returns the half width and half height of the body's bounding box.
func (b *Body) HalfExtents() (float64, float64) {
	if b.Shape == dynamo.ShapeCircle {
		return b.Radius, b.Radius
	}
	return b.Width / 2, b.Height / 2
}

func (b *Body) View() dynamo.BodyView {
	return dynamo.BodyView{
		Label:    b.Label,
		Shape:    b.Shape,
		Position: b.Position,
		Width:    b.Width,
		Height:   b.Height,
		Radius:   b.Radius,
	}
}

func (b *Body) integrate(dt float64) {
	if b.Static {
		return
	}
	b.prev = b.Position

	force := b.force
	if b.OnRail {
		force.Y = 0
	}

	b.Velocity = b.Velocity.Scale(1 - b.AirFriction)
	b.Velocity = b.Velocity.Add(force.Scale(b.InvMass() * dt))
	if b.OnRail {
		b.Velocity.Y = 0
	}
	b.Position = b.Position.Add(b.Velocity.Scale(dt))
}

// syncVelocity folds position corrections made after integration back into
// the velocity so the next step does not undo them.
func (b *Body) syncVelocity(dt float64) {
	if b.Static || dt <= 0 {
		return
	}
	b.Velocity = b.Position.Sub(b.prev).Scale(1 / dt)
	if b.OnRail {
		b.Velocity.Y = 0
	}
}
