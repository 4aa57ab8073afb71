// Package sim couples the physics world with the PD loop.
//
// A [Simulator] owns one cart-pole world. Each tick it steps the world,
// estimates the pole angle, computes the PD force and queues it on the cart
// for the next step:
//
//	s := sim.New(cfg, sim.WithLogger(log))
//	for i := 0; i < 500; i++ {
//	    f := s.Tick()
//	    fmt.Println(f.Angle)
//	}
//
// [Simulator.Run] does the same headlessly with scripted [Event]s and
// metrics. [Runner] paces ticks against the wall clock, and [Ensemble]
// sweeps a grid of gains in parallel.
//
// # Thread Safety
//
// A Simulator is NOT safe for concurrent use. Gains are the exception:
// [control.Gains] may be written from any goroutine. Use [Runner] to send
// resets and disturbances from other goroutines.
package sim
