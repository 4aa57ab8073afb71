// Package analysis characterises recorded pole-angle traces.
//
//   - [DominantPeriod]: strongest oscillation period, in ticks, via FFT
//   - [GrowthRate]: per-tick exponential growth of the swing envelope;
//     negative means the controller is damping the pole
//   - [PhasePortraitToASCII]: angle against angular velocity
//
// Typical use after a run:
//
//	rate := analysis.GrowthRate(angles)
//	if rate < 0 {
//	    // swings are shrinking by a factor exp(rate) per tick
//	}
package analysis
