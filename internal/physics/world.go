package physics

import "github.com/san-kum/cartpole/internal/dynamo"

// DefaultGravity is 1 px/ms^2 scaled by 1e-3, pointing down the screen.
var DefaultGravity = dynamo.V(0, 0.001)

type World struct {
	Gravity dynamo.Vec
	// Iterations is the number of constraint passes per step. One pass is an
	// approximation that is exact for a single rod at stiffness 1.
	Iterations int

	bodies      []*Body
	constraints []Constraint
	contacts    []Contact
}

func NewWorld() *World {
	return &World{Gravity: DefaultGravity, Iterations: 1}
}

func (w *World) AddBody(bodies ...*Body) {
	w.bodies = append(w.bodies, bodies...)
}

func (w *World) AddConstraint(cs ...Constraint) {
	w.constraints = append(w.constraints, cs...)
}

func (w *World) Bodies() []*Body { return w.bodies }

func (w *World) Constraints() []Constraint { return w.constraints }

// Contacts returns the boundary contacts resolved during the last step.
func (w *World) Contacts() []Contact { return w.contacts }

// Step advances the world by dt milliseconds.
func (w *World) Step(dt float64) {
	for _, b := range w.bodies {
		if !b.Static {
			b.ApplyForce(w.Gravity.Scale(b.Mass), b.Position)
		}
	}

	for _, b := range w.bodies {
		b.integrate(dt)
	}

	iters := w.Iterations
	if iters < 1 {
		iters = 1
	}
	for i := 0; i < iters; i++ {
		for _, c := range w.constraints {
			c.Solve()
		}
	}
	for _, b := range w.bodies {
		b.syncVelocity(dt)
	}

	w.contacts = w.contacts[:0]
	for _, b := range w.bodies {
		if b.Static {
			continue
		}
		for _, s := range w.bodies {
			if !s.Static || s.Shape != dynamo.ShapeRect {
				continue
			}
			if c, ok := resolve(b, s); ok {
				w.contacts = append(w.contacts, c)
			}
		}
	}

	for _, b := range w.bodies {
		b.ClearForce()
	}
}
