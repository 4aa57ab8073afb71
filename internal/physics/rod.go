package physics

import "github.com/san-kum/cartpole/internal/dynamo"

type Constraint interface {
	Solve()
}

// Rod holds the anchor points of two bodies at a fixed distance.
// Stiffness 1 removes the whole deviation in one pass; smaller values
// remove that fraction of it.
type Rod struct {
	A, B       *Body
	AnchorA    dynamo.Vec
	AnchorB    dynamo.Vec
	RestLength float64
	Stiffness  float64
}

func NewRod(a, b *Body, restLength, stiffness float64) *Rod {
	return &Rod{A: a, B: b, RestLength: restLength, Stiffness: stiffness}
}

func (r *Rod) PointA() dynamo.Vec { return r.A.Position.Add(r.AnchorA) }

func (r *Rod) PointB() dynamo.Vec { return r.B.Position.Add(r.AnchorB) }

func (r *Rod) Length() float64 { return r.PointB().Sub(r.PointA()).Len() }

// Deviation is the current length minus the rest length.
func (r *Rod) Deviation() float64 { return r.Length() - r.RestLength }

func (r *Rod) Solve() {
	delta := r.PointB().Sub(r.PointA())
	dist := delta.Len()
	if dist == 0 {
		// no direction to correct along
		return
	}

	wa, wb := r.A.InvMass(), r.B.InvMass()
	wsum := wa + wb
	if wsum == 0 {
		return
	}

	corr := delta.Scale((dist - r.RestLength) / dist * r.Stiffness)
	da := corr.Scale(wa / wsum)
	db := corr.Scale(-wb / wsum)

	// A railed body keeps its height; shifting both bodies by the rejected
	// vertical share leaves the corrected separation untouched.
	switch {
	case r.A.OnRail && r.B.OnRail:
		da.Y, db.Y = 0, 0
	case r.A.OnRail && !r.B.Static:
		db.Y -= da.Y
		da.Y = 0
	case r.B.OnRail && !r.A.Static:
		da.Y -= db.Y
		db.Y = 0
	case r.A.OnRail:
		da.Y = 0
	case r.B.OnRail:
		db.Y = 0
	}

	if !r.A.Static {
		r.A.Position = r.A.Position.Add(da)
	}
	if !r.B.Static {
		r.B.Position = r.B.Position.Add(db)
	}
}
