package control

import (
	"github.com/san-kum/cartpole/internal/dynamo"
	"github.com/san-kum/cartpole/internal/physics"
)

// DefaultDisturbance is the horizontal push applied by one operator click.
const DefaultDisturbance = 0.002

// DisturbanceForce is the horizontal force that pushes a bob at bobX away
// from targetX.
func DisturbanceForce(bobX, targetX, magnitude float64) float64 {
	if bobX < targetX {
		return -magnitude
	}
	return magnitude
}

// Disturb applies a destabilizing push to bob for the next world step and
// returns the horizontal force used.
func Disturb(bob *physics.Body, targetX, magnitude float64) float64 {
	fx := DisturbanceForce(bob.Position.X, targetX, magnitude)
	bob.ApplyForce(dynamo.V(fx, 0), bob.Position)
	return fx
}
