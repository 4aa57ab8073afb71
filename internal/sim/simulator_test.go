package sim

import (
	"context"
	"errors"
	"math"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cartpole/internal/config"
	"github.com/san-kum/cartpole/internal/dynamo"
	"github.com/san-kum/cartpole/internal/metrics"
	"github.com/san-kum/cartpole/internal/physics"
)

func bodySnapshot(s *Simulator) []physics.Body {
	var out []physics.Body
	for _, b := range s.World().Bodies() {
		out = append(out, *b)
	}
	return out
}

func touchesPole(s *Simulator) bool {
	for _, c := range s.World().Contacts() {
		if c.Body == s.Cart() || c.Body == s.Bob() {
			return true
		}
	}
	return false
}

func ptr(v float64) *float64 { return &v }

var _ = Describe("Simulator", func() {
	var cfg *config.Config

	BeforeEach(func() {
		cfg = config.DefaultConfig()
	})

	Describe("initial world", func() {
		It("places the bob one rod length above the cart", func() {
			s := New(cfg)
			Expect(s.Rod().Length()).To(BeNumerically("~", cfg.World.RodLength, 1e-12))
			Expect(s.Bob().Position).To(Equal(dynamo.V(300, 140)))
			Expect(s.Frame().Tick).To(BeZero())
			Expect(s.Frame().Statics).To(HaveLen(3))
		})

		It("honors the initial angle", func() {
			cfg.InitialAngle = 0.05
			s := New(cfg)
			Expect(s.Frame().Angle).To(Equal(0.05))
			Expect(s.Bob().Position.X).To(BeNumerically(">", s.Cart().Position.X))
		})

		It("keeps an exactly upright pole upright without control", func() {
			s := New(cfg)
			for i := 0; i < 200; i++ {
				s.Tick()
			}
			Expect(s.Frame().Angle).To(BeZero())
		})
	})

	Describe("rod rigidity", func() {
		It("holds the rod at rest length on every tick without boundary contact", func() {
			cfg.InitialAngle = 0.1
			cfg.Gains.P, cfg.Gains.D = 0.004, 0.008
			s := New(cfg)

			for i := 0; i < 400; i++ {
				if i%90 == 45 {
					side := 50.0
					if (i/90)%2 == 1 {
						side = -50
					}
					s.Disturb(s.Bob().Position.X - side)
				}
				f := s.Tick()
				if touchesPole(s) {
					continue
				}
				Expect(math.Abs(f.RodLength-f.RestLength)).To(BeNumerically("<", 1e-9), "tick %d", f.Tick)
			}
		})

		It("holds while the uncontrolled pole swings down", func() {
			cfg.InitialAngle = 0.05
			s := New(cfg)
			for i := 0; i < 60; i++ {
				f := s.Tick()
				Expect(f.RodLength).To(BeNumerically("~", 100, 1e-9))
			}
		})
	})

	Describe("zero gains", func() {
		It("lets the angle grow monotonically away from upright", func() {
			cfg.InitialAngle = 0.05
			s := New(cfg)

			prev := 0.05
			for i := 0; i < 60; i++ {
				f := s.TickWith(cfg.Dt, 0, 0)
				Expect(f.Force).To(BeZero())
				Expect(f.Angle).To(BeNumerically(">", prev), "tick %d", f.Tick)
				prev = f.Angle
			}
			Expect(prev).To(BeNumerically(">", 0.25))
		})
	})

	Describe("gain bounds", func() {
		It("clamps out-of-range gains before the control law", func() {
			cfg.InitialAngle = 0.05
			wild := New(cfg).TickWith(cfg.Dt, 5, -1)
			edge := New(cfg).TickWith(cfg.Dt, 0.01, 0)

			Expect(wild.Force).To(Equal(edge.Force))
			Expect(wild.PGain).To(Equal(0.01))
			Expect(wild.DGain).To(BeZero())
		})
	})

	Describe("solver passes", func() {
		maxDrift := func(c *config.Config) float64 {
			s := New(c)
			drift := 0.0
			for i := 0; i < 500; i++ {
				f := s.Tick()
				drift = math.Max(drift, math.Abs(f.RodLength-f.RestLength))
			}
			return drift
		}

		It("tighten a soft rod", func() {
			soft, err := config.GetPreset("soft")
			Expect(err).NotTo(HaveOccurred())
			Expect(soft.SolverIterations).To(Equal(6))

			single := soft.Clone()
			single.SolverIterations = 1

			many, one := maxDrift(soft), maxDrift(single)
			Expect(one).To(BeNumerically(">", 0.05))
			Expect(many).To(BeNumerically("<", one/10))
		})
	})

	Describe("stabilization", func() {
		It("brings a 0.05 rad tilt inside 0.01 rad within 500 ticks", func() {
			cfg.InitialAngle = 0.05
			cfg.Gains.P, cfg.Gains.D = 0.004, 0.008
			s := New(cfg)

			var f dynamo.Frame
			for i := 0; i < 500; i++ {
				f = s.Tick()
			}
			Expect(math.Abs(f.Angle)).To(BeNumerically("<", 0.01))
			Expect(s.World().Contacts()).To(BeEmpty())
		})

		It("recovers from an operator push", func() {
			preset, err := config.GetPreset("balance")
			Expect(err).NotTo(HaveOccurred())
			s := New(preset)

			res, err := s.Run(context.Background(), RunConfig{
				Ticks:  900,
				Events: []Event{{Tick: 300, Action: ActionDisturb, X: 250}},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(math.Abs(res.Final.Angle)).To(BeNumerically("<", 0.01))
		})
	})

	Describe("static bodies", func() {
		It("never move or gain velocity", func() {
			cfg.InitialAngle = 0.05
			s := New(cfg)
			before := map[string]dynamo.Vec{}
			for _, b := range s.World().Bodies() {
				if b.Static {
					before[b.Label] = b.Position
				}
			}
			Expect(before).To(HaveLen(3))

			for i := 0; i < 300; i++ {
				if i%50 == 0 {
					s.Disturb(0)
				}
				s.Tick()
			}

			for _, b := range s.World().Bodies() {
				if b.Static {
					Expect(b.Position).To(Equal(before[b.Label]), b.Label)
					Expect(b.Velocity.IsZero()).To(BeTrue(), b.Label)
				}
			}
		})
	})

	Describe("reset", func() {
		It("is idempotent down to the last bit", func() {
			cfg.InitialAngle = 0.05
			cfg.Gains.P, cfg.Gains.D = 0.003, 0.005
			s := New(cfg)
			fresh := bodySnapshot(s)

			for i := 0; i < 120; i++ {
				s.Tick()
			}
			s.Disturb(100)
			s.Reset()
			first := bodySnapshot(s)
			s.Reset()
			second := bodySnapshot(s)

			opt := cmp.AllowUnexported(physics.Body{})
			Expect(cmp.Diff(fresh, first, opt)).To(BeEmpty())
			Expect(cmp.Diff(first, second, opt)).To(BeEmpty())
			Expect(s.Frame().Tick).To(BeZero())
		})

		It("forgets the previous angle", func() {
			cfg.InitialAngle = 0.05
			s := New(cfg)
			s.Tick()
			s.Reset()
			f := s.Tick()
			// rate is measured against zero, as on the very first tick
			Expect(f.AngularVelocity).To(BeNumerically("~", f.Angle, 1e-15))
		})

		It("keeps operator gains", func() {
			s := New(cfg)
			s.Gains().Set(0.002, 0.004)
			s.Reset()
			Expect(s.Gains().P()).To(Equal(0.002))
			Expect(s.Frame().DGain).To(Equal(0.004))
		})
	})

	Describe("disturbance", func() {
		It("pushes the bob away from the target", func() {
			s := New(cfg)
			Expect(s.Disturb(250)).To(BeNumerically(">", 0))
			s.Tick()
			Expect(s.Bob().Position.X).To(BeNumerically(">", 300))

			s.Reset()
			Expect(s.Disturb(350)).To(BeNumerically("<", 0))
			s.Tick()
			Expect(s.Bob().Position.X).To(BeNumerically("<", 300))
		})
	})

	Describe("Run", func() {
		It("rejects a run without ticks", func() {
			_, err := New(cfg).Run(context.Background(), RunConfig{})
			Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue())
		})

		It("rejects unknown actions", func() {
			_, err := New(cfg).Run(context.Background(), RunConfig{
				Ticks:  10,
				Events: []Event{{Tick: 1, Action: "teleport"}},
			})
			Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue())
		})

		It("applies scripted gains and resets", func() {
			cfg.InitialAngle = 0.05
			s := New(cfg)
			res, err := s.Run(context.Background(), RunConfig{
				Ticks:  20,
				Record: true,
				Events: []Event{
					{Tick: 5, Action: ActionGains, P: ptr(0.004), D: ptr(0.5)},
					{Tick: 10, Action: ActionReset},
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.TicksTaken).To(Equal(20))
			Expect(res.Frames).To(HaveLen(20))
			Expect(res.Frames[4].PGain).To(BeZero())
			Expect(res.Frames[5].PGain).To(Equal(0.004))
			Expect(res.Frames[5].DGain).To(Equal(0.01))
			Expect(res.Final.Tick).To(Equal(uint64(10)))
		})

		It("reports metrics by name", func() {
			cfg.InitialAngle = 0.05
			cfg.Gains.P, cfg.Gains.D = 0.004, 0.008
			s := New(cfg)
			s.AddMetric(metrics.NewRodDrift())
			s.AddMetric(metrics.NewPeakAngle())
			s.AddMetric(metrics.NewControlEffort())

			res, err := s.Run(context.Background(), RunConfig{Ticks: 300})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Metrics).To(HaveKey("rod_drift"))
			Expect(res.Metrics["rod_drift"]).To(BeNumerically("<", 1e-9))
			Expect(res.Metrics["peak_angle"]).To(BeNumerically(">=", 0.05))
			Expect(res.Metrics["control_effort"]).To(BeNumerically(">", 0))
		})

		It("notifies observers every tick", func() {
			s := New(cfg)
			var ticks []uint64
			s.AddObserver(dynamo.ObserverFunc(func(f dynamo.Frame) { ticks = append(ticks, f.Tick) }))
			_, err := s.Run(context.Background(), RunConfig{Ticks: 3})
			Expect(err).NotTo(HaveOccurred())
			Expect(ticks).To(Equal([]uint64{1, 2, 3}))
		})

		It("stops on a canceled context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			res, err := New(cfg).Run(ctx, RunConfig{Ticks: 100})
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(errors.Is(err, dynamo.ErrContextCanceled)).To(BeTrue())
			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Tick).To(BeZero())
			Expect(res.TicksTaken).To(BeZero())
		})
	})
})
