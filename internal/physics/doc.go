// Package physics is a small 2D rigid-body kernel sized for a cart-pole:
// rectangle and circle bodies, distance rods and axis-aligned static
// boundaries.
//
//   - [Body]: point-mass body with a rectangle or circle extent
//   - [Rod]: distance constraint with stiffness
//   - [World]: ordered bodies and constraints advanced by [World.Step]
//
// Units are pixels and milliseconds with +y pointing down the screen, so
// gravity is a small positive y acceleration.
//
// # Step order
//
// Each step applies gravity, integrates with semi-implicit Euler, runs the
// constraint passes, resolves boundary contacts and clears forces. The same
// prior state and inputs always produce the same next state.
package physics
