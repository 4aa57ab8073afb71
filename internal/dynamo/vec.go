package dynamo

import "math"

// Vec is a 2D vector in screen coordinates (+y points down).
type Vec struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func V(x, y float64) Vec { return Vec{X: x, Y: y} }

func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }

func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }

func (v Vec) Scale(f float64) Vec { return Vec{v.X * f, v.Y * f} }

func (v Vec) Dot(o Vec) float64 { return v.X*o.X + v.Y*o.Y }

func (v Vec) LenSq() float64 { return v.X*v.X + v.Y*v.Y }

func (v Vec) Len() float64 { return math.Hypot(v.X, v.Y) }

// Normalize returns the unit vector in v's direction, or the zero vector when
// v has no length.
func (v Vec) Normalize() Vec {
	l := v.Len()
	if l == 0 {
		return Vec{}
	}
	return Vec{v.X / l, v.Y / l}
}

// Heading is the angle of v measured from +x towards +y.
func (v Vec) Heading() float64 { return math.Atan2(v.Y, v.X) }

func (v Vec) IsZero() bool { return v.X == 0 && v.Y == 0 }

func (v Vec) IsValid() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}
