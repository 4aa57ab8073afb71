package control

import (
	"math"

	"github.com/san-kum/cartpole/internal/dynamo"
)

// AngleEstimator derives the pole angle and its rate from body positions.
//
// The angle is 0 with the bob straight above the cart and grows positive
// as the bob tips towards +x. The rate is a backward difference over one
// tick, so it reads in radians per tick, not per millisecond.
type AngleEstimator struct {
	previous float64
}

func (e *AngleEstimator) Estimate(cart, bob dynamo.Vec) (angle, angularVelocity float64) {
	arm := bob.Sub(cart)
	angle = wrapAngle(arm.Heading() + math.Pi/2)

	const tick = 1.0
	angularVelocity = (angle - e.previous) / tick
	e.previous = angle
	return angle, angularVelocity
}

func (e *AngleEstimator) Previous() float64 { return e.previous }

func (e *AngleEstimator) Reset() { e.previous = 0 }

// wrapAngle maps a into (-pi, pi].
func wrapAngle(a float64) float64 {
	if a > math.Pi {
		return a - 2*math.Pi
	}
	if a <= -math.Pi {
		return a + 2*math.Pi
	}
	return a
}
