// Package dynamo provides the core value types shared by the cart-pole
// simulation packages.
//
// The package is deliberately dependency free so that physics, control,
// metrics and presentation code can all agree on the same vocabulary:
//
//   - [Vec]: explicit 2D vector used for positions, velocities and forces
//   - [Frame]: the observable outcome of one simulation tick
//   - [BodyView]: a read-only description of a body for renderers
//   - [Metric], [Observer]: hooks invoked once per tick by the simulator
//   - [Configurable]: live parameter tuning by name
//
// # Example
//
//	s := sim.New(config.DefaultConfig())
//	s.AddMetric(metrics.NewPeakAngle())
//	res, _ := s.Run(ctx, sim.RunConfig{Ticks: 500})
//	fmt.Println(res.Metrics["peak_angle"])
//
// # Thread Safety
//
// All types in this package are plain values. Frames handed to observers are
// copies and may be retained.
package dynamo
