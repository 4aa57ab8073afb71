// Package control closes the loop around the cart-pole.
//
//   - [AngleEstimator]: pole angle and per-tick rate from cart and bob positions
//   - [ComputeForce], [PD]: proportional-derivative law on the cart force
//   - [Gains]: atomically shared, clamped operator gains
//   - [Disturb]: operator push on the bob, away from a target x
//
// # Usage
//
//	var est control.AngleEstimator
//	angle, rate := est.Estimate(cart.Position, bob.Position)
//	p, d := gains.Snapshot()
//	cart.ApplyForce(dynamo.V(control.ComputeForce(angle, rate, p, d), 0), cart.Position)
//
// [PD] implements [dynamo.Configurable] for live tuning.
package control
