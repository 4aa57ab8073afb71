package sim

import (
	"math"

	"github.com/san-kum/cartpole/internal/config"
	"github.com/san-kum/cartpole/internal/dynamo"
	"github.com/san-kum/cartpole/internal/physics"
)

// scene is the cart-pole world plus direct handles to its bodies.
type scene struct {
	world     *physics.World
	ground    *physics.Body
	leftWall  *physics.Body
	rightWall *physics.Body
	cart      *physics.Body
	bob       *physics.Body
	rod       *physics.Rod
	statics   []dynamo.BodyView
}

func buildScene(cfg *config.Config) *scene {
	w := cfg.World

	world := physics.NewWorld()
	world.Gravity = dynamo.V(0, w.Gravity)
	world.Iterations = cfg.SolverIterations

	boundary := physics.BodyOptions{Static: true, Restitution: w.BoundaryRestitution, Density: w.Density}
	ground := physics.NewRectangle("ground", w.Width/2, w.GroundY, w.Width, w.GroundHeight, boundary)
	left := physics.NewRectangle("wall-left", 0, w.Height/2, w.WallThickness, w.Height, boundary)
	right := physics.NewRectangle("wall-right", w.Width, w.Height/2, w.WallThickness, w.Height, boundary)

	cart := physics.NewRectangle("cart", w.CartX, w.CartY, w.CartWidth, w.CartHeight, physics.BodyOptions{
		Density:     w.Density,
		Restitution: w.CartRestitution,
		AirFriction: w.AirFriction,
		OnRail:      true,
	})

	a := cfg.InitialAngle
	bob := physics.NewCircle("bob",
		w.CartX+w.RodLength*math.Sin(a),
		w.CartY-w.RodLength*math.Cos(a),
		w.BobRadius,
		physics.BodyOptions{
			Density:     w.Density,
			Restitution: w.BobRestitution,
			AirFriction: w.AirFriction,
		})

	rod := physics.NewRod(cart, bob, w.RodLength, w.RodStiffness)

	world.AddBody(ground, left, right, cart, bob)
	world.AddConstraint(rod)

	return &scene{
		world:     world,
		ground:    ground,
		leftWall:  left,
		rightWall: right,
		cart:      cart,
		bob:       bob,
		rod:       rod,
		statics:   []dynamo.BodyView{ground.View(), left.View(), right.View()},
	}
}
