package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/cartpole/internal/dynamo"
)

func TestBodyMassFromArea(t *testing.T) {
	cart := NewRectangle("cart", 300, 240, 40, 20, BodyOptions{})
	bob := NewCircle("bob", 300, 140, 10, BodyOptions{})
	wall := NewRectangle("wall", 0, 150, 10, 300, BodyOptions{Static: true})

	assert.InDelta(t, 0.8, cart.Mass, 1e-12)
	assert.InDelta(t, math.Pi*0.1, bob.Mass, 1e-12)
	assert.Equal(t, 0.0, wall.InvMass())
	assert.InDelta(t, 1/0.8, cart.InvMass(), 1e-12)
}

func TestApplyForceAccumulates(t *testing.T) {
	b := NewCircle("bob", 0, 0, 10, BodyOptions{})
	b.ApplyForce(dynamo.V(1, 0), b.Position)
	b.ApplyForce(dynamo.V(0.5, -2), dynamo.V(99, 99))
	assert.Equal(t, dynamo.V(1.5, -2), b.Force())

	b.ClearForce()
	assert.True(t, b.Force().IsZero())

	s := NewRectangle("ground", 0, 0, 10, 10, BodyOptions{Static: true})
	s.ApplyForce(dynamo.V(1, 1), s.Position)
	assert.True(t, s.Force().IsZero())
}

func TestRodSolve(t *testing.T) {
	tests := []struct {
		name      string
		stiffness float64
		wantDev   float64
	}{
		{"rigid", 1, 0},
		{"half", 0.5, 10},
		{"slack", 0, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewCircle("a", 0, 0, 10, BodyOptions{})
			b := NewCircle("b", 120, 0, 10, BodyOptions{})
			rod := NewRod(a, b, 100, tt.stiffness)

			rod.Solve()

			assert.InDelta(t, tt.wantDev, rod.Deviation(), 1e-9)
			// equal masses share the correction
			assert.InDelta(t, -a.Position.X, b.Position.X-120, 1e-9)
		})
	}
}

func TestRodZeroSeparationSkipped(t *testing.T) {
	a := NewCircle("a", 50, 50, 10, BodyOptions{})
	b := NewCircle("b", 50, 50, 10, BodyOptions{})
	rod := NewRod(a, b, 100, 1)

	rod.Solve()

	assert.Equal(t, dynamo.V(50, 50), a.Position)
	assert.Equal(t, dynamo.V(50, 50), b.Position)
	assert.False(t, math.IsNaN(rod.Length()))
}

func TestRodStaticPartnerTakesNoCorrection(t *testing.T) {
	anchor := NewRectangle("anchor", 0, 0, 10, 10, BodyOptions{Static: true})
	bob := NewCircle("bob", 0, 130, 10, BodyOptions{})
	rod := NewRod(anchor, bob, 100, 1)

	rod.Solve()

	assert.Equal(t, dynamo.V(0, 0), anchor.Position)
	assert.InDelta(t, 100, bob.Position.Y, 1e-9)
}

func TestRodRailBodyKeepsHeight(t *testing.T) {
	cart := NewRectangle("cart", 300, 240, 40, 20, BodyOptions{OnRail: true})
	bob := NewCircle("bob", 330, 150, 10, BodyOptions{})
	rod := NewRod(cart, bob, 100, 1)

	rod.Solve()

	assert.Equal(t, 240.0, cart.Position.Y)
	assert.InDelta(t, 100, rod.Length(), 1e-9)
	assert.NotEqual(t, 300.0, cart.Position.X, "cart should take its horizontal share")
}

func TestRodBothStaticIsNoop(t *testing.T) {
	a := NewRectangle("a", 0, 0, 1, 1, BodyOptions{Static: true})
	b := NewRectangle("b", 10, 0, 1, 1, BodyOptions{Static: true})
	NewRod(a, b, 100, 1).Solve()
	assert.Equal(t, dynamo.V(10, 0), b.Position)
}

func TestWorldFreeFall(t *testing.T) {
	w := NewWorld()
	b := NewCircle("ball", 100, 0, 10, BodyOptions{})
	w.AddBody(b)

	const dt = 10.0
	w.Step(dt)

	g := DefaultGravity.Y
	assert.InDelta(t, g*dt, b.Velocity.Y, 1e-15)
	assert.InDelta(t, g*dt*dt, b.Position.Y, 1e-12)
	assert.True(t, b.Force().IsZero(), "forces are cleared after a step")
}

func TestWorldForceIsConsumedOnce(t *testing.T) {
	w := NewWorld()
	w.Gravity = dynamo.Vec{}
	b := NewCircle("ball", 100, 100, 10, BodyOptions{})
	w.AddBody(b)

	b.ApplyForce(dynamo.V(0.002, 0), b.Position)
	w.Step(10)
	v := b.Velocity.X
	w.Step(10)

	assert.Greater(t, v, 0.0)
	assert.InDelta(t, v, b.Velocity.X, 1e-15)
}

func TestWorldStaticBodiesNeverMove(t *testing.T) {
	w := NewWorld()
	ground := NewRectangle("ground", 300, 300, 600, 100, BodyOptions{Static: true, Restitution: 1})
	wall := NewRectangle("wall", 0, 150, 10, 300, BodyOptions{Static: true, Restitution: 1})
	ball := NewCircle("ball", 100, 200, 10, BodyOptions{Restitution: 0.5})
	w.AddBody(ground, wall, ball)
	w.AddConstraint(NewRod(wall, ball, 100, 1))

	for i := 0; i < 300; i++ {
		ground.ApplyForce(dynamo.V(5, 5), ground.Position)
		ball.ApplyForce(dynamo.V(-0.01, 0.01), ball.Position)
		w.Step(1000.0 / 60)
	}

	assert.Equal(t, dynamo.V(300, 300), ground.Position)
	assert.Equal(t, dynamo.V(0, 150), wall.Position)
	assert.True(t, ground.Velocity.IsZero())
	assert.True(t, wall.Velocity.IsZero())
}

func TestWorldSolverIterations(t *testing.T) {
	tests := []struct {
		name    string
		iters   int
		wantDev float64
	}{
		{"zero falls back to one", 0, 10},
		{"negative falls back to one", -3, 10},
		{"one", 1, 10},
		{"six", 6, 20 * math.Pow(0.5, 6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWorld()
			w.Gravity = dynamo.Vec{}
			w.Iterations = tt.iters
			a := NewCircle("a", 0, 0, 10, BodyOptions{})
			b := NewCircle("b", 120, 0, 10, BodyOptions{})
			rod := NewRod(a, b, 100, 0.5)
			w.AddBody(a, b)
			w.AddConstraint(rod)

			w.Step(1000.0 / 60)

			assert.InDelta(t, tt.wantDev, rod.Deviation(), 1e-9)
		})
	}
}

func TestWorldRailBodyIgnoresGravity(t *testing.T) {
	w := NewWorld()
	cart := NewRectangle("cart", 300, 240, 40, 20, BodyOptions{OnRail: true})
	w.AddBody(cart)
	for i := 0; i < 10; i++ {
		w.Step(1000.0 / 60)
	}
	assert.Equal(t, dynamo.V(300, 240), cart.Position)
}

func TestResolveRestitution(t *testing.T) {
	tests := []struct {
		name   string
		e      float64
		wantVy float64
	}{
		{"inelastic", 0, 0},
		{"elastic", 1, -0.5},
		{"half", 0.5, -0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ground := NewRectangle("ground", 300, 300, 600, 100, BodyOptions{Static: true})
			ball := NewCircle("ball", 300, 245, 10, BodyOptions{Restitution: tt.e})
			ball.Velocity = dynamo.V(0.1, 0.5)

			c, ok := resolve(ball, ground)
			require.True(t, ok)

			assert.Equal(t, dynamo.V(0, -1), c.Normal)
			assert.InDelta(t, 5, c.Depth, 1e-12)
			assert.InDelta(t, 240, ball.Position.Y, 1e-12)
			assert.InDelta(t, tt.wantVy, ball.Velocity.Y, 1e-12)
			assert.Equal(t, 0.1, ball.Velocity.X, "tangential velocity is kept")
		})
	}
}

func TestResolveTouchingIsNotContact(t *testing.T) {
	ground := NewRectangle("ground", 300, 300, 600, 100, BodyOptions{Static: true})
	cart := NewRectangle("cart", 300, 240, 40, 20, BodyOptions{})
	_, ok := resolve(cart, ground)
	assert.False(t, ok)
}

func TestResolveWallPushesInward(t *testing.T) {
	wall := NewRectangle("wall", 600, 150, 10, 300, BodyOptions{Static: true, Restitution: 1})
	cart := NewRectangle("cart", 585, 240, 40, 20, BodyOptions{OnRail: true})
	cart.Velocity = dynamo.V(0.3, 0)

	c, ok := resolve(cart, wall)
	require.True(t, ok)
	assert.Equal(t, dynamo.V(-1, 0), c.Normal)
	assert.InDelta(t, 575, cart.Position.X, 1e-12)
	assert.InDelta(t, -0.3, cart.Velocity.X, 1e-12)
}
