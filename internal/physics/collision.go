package physics

import (
	"math"

	"github.com/san-kum/cartpole/internal/dynamo"
)

// Contact describes a dynamic body pushed out of a static boundary.
type Contact struct {
	Body     *Body
	Boundary *Body
	Normal   dynamo.Vec
	Depth    float64
}

// CombinedRestitution picks the bouncier of the two surfaces.
func CombinedRestitution(a, b *Body) float64 {
	return math.Max(a.Restitution, b.Restitution)
}

// penetration returns the separating normal (pointing from boundary towards
// body) and depth along the axis of least overlap, or ok=false when the
// bounding boxes do not overlap. Touching edges do not count as overlap.
func penetration(body, boundary *Body) (dynamo.Vec, float64, bool) {
	bw, bh := body.HalfExtents()
	sw, sh := boundary.HalfExtents()

	d := body.Position.Sub(boundary.Position)
	ox := bw + sw - math.Abs(d.X)
	oy := bh + sh - math.Abs(d.Y)
	if ox <= 0 || oy <= 0 {
		return dynamo.Vec{}, 0, false
	}

	if ox < oy {
		return dynamo.V(sign(d.X), 0), ox, true
	}
	return dynamo.V(0, sign(d.Y)), oy, true
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// resolve clamps body out of boundary and zeroes or reflects the inward
// velocity component.
func resolve(body, boundary *Body) (Contact, bool) {
	n, depth, ok := penetration(body, boundary)
	if !ok {
		return Contact{}, false
	}
	if body.OnRail && n.Y != 0 {
		// the rail carries vertical load
		return Contact{}, false
	}

	body.Position = body.Position.Add(n.Scale(depth))

	vn := body.Velocity.Dot(n)
	if vn < 0 {
		e := CombinedRestitution(body, boundary)
		body.Velocity = body.Velocity.Sub(n.Scale((1 + e) * vn))
	}
	return Contact{Body: body, Boundary: boundary, Normal: n, Depth: depth}, true
}
