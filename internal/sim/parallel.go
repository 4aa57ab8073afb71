package sim

import (
	"context"
	"math"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/cartpole/internal/config"
	"github.com/san-kum/cartpole/internal/control"
	"github.com/san-kum/cartpole/internal/metrics"
)

type GainPoint struct {
	P, D float64
}

// GainRange is the slider range a config allows.
func GainRange(cfg *config.Config) control.Range {
	return control.Range{Min: cfg.Gains.Min, Max: cfg.Gains.Max, Step: cfg.Gains.Step}
}

// GainGrid lists every (P, D) pair on the slider grid of rng.
func GainGrid(rng control.Range) []GainPoint {
	if rng.Step <= 0 || rng.Max < rng.Min {
		return nil
	}
	n := int(math.Round((rng.Max-rng.Min)/rng.Step)) + 1
	points := make([]GainPoint, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			points = append(points, GainPoint{
				P: rng.Min + float64(i)*rng.Step,
				D: rng.Min + float64(j)*rng.Step,
			})
		}
	}
	return points
}

type SweepResult struct {
	GainPoint
	PeakAngle    float64 `json:"peak_angle"`
	FinalAngle   float64 `json:"final_angle"`
	Stability    float64 `json:"stability"`
	SettlingTick float64 `json:"settling_tick"`
	Fell         bool    `json:"fell"`
}

// Settled reports whether the run ended inside the threshold band.
func (r SweepResult) Settled() bool { return r.SettlingTick >= 0 }

// Ensemble runs one independent simulator per gain pair. It reports how each
// pair behaves; choosing gains is left to the operator.
type Ensemble struct {
	base      *config.Config
	ticks     int
	threshold float64
	workers   int
	log       *zap.Logger
}

func NewEnsemble(base *config.Config, ticks int, threshold float64) *Ensemble {
	return &Ensemble{
		base:      base.Clone(),
		ticks:     ticks,
		threshold: threshold,
		workers:   runtime.GOMAXPROCS(0),
		log:       zap.NewNop(),
	}
}

func (e *Ensemble) WithWorkers(n int) *Ensemble {
	if n > 0 {
		e.workers = n
	}
	return e
}

func (e *Ensemble) WithLogger(l *zap.Logger) *Ensemble {
	if l != nil {
		e.log = l.Named("ensemble")
	}
	return e
}

func (e *Ensemble) Run(ctx context.Context, points []GainPoint) ([]SweepResult, error) {
	results := make([]SweepResult, len(points))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, pt := range points {
		i, pt := i, pt
		g.Go(func() error {
			cfg := e.base.Clone()
			cfg.Gains.P, cfg.Gains.D = pt.P, pt.D

			s := New(cfg)
			peak := metrics.NewPeakAngle()
			stab := metrics.NewStability(e.threshold)
			settle := metrics.NewSettling(e.threshold)
			s.AddMetric(peak)
			s.AddMetric(stab)
			s.AddMetric(settle)

			res, err := s.Run(gctx, RunConfig{Ticks: e.ticks})
			if err != nil {
				return err
			}

			results[i] = SweepResult{
				GainPoint:    pt,
				PeakAngle:    peak.Value(),
				FinalAngle:   res.Final.Angle,
				Stability:    stab.Value(),
				SettlingTick: settle.Value(),
				Fell:         peak.Value() >= math.Pi/2,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.log.Info("sweep finished", zap.Int("points", len(points)), zap.Int("ticks", e.ticks))
	return results, nil
}

// RenderGainMap draws sweep results as a text grid: one row per P, highest
// first, one column per D. '#' settled, '~' stayed up without settling,
// 'x' fell.
func RenderGainMap(results []SweepResult) string {
	ps, ds := map[float64]bool{}, map[float64]bool{}
	cells := make(map[GainPoint]SweepResult, len(results))
	for _, r := range results {
		ps[r.P], ds[r.D] = true, true
		cells[r.GainPoint] = r
	}
	pv, dv := sortedSet(ps), sortedSet(ds)

	var b strings.Builder
	b.WriteString("  P \\ D ")
	for _, d := range dv {
		b.WriteString(strings.TrimPrefix(formatGain(d), "0") + " ")
	}
	b.WriteString("\n")
	for i := len(pv) - 1; i >= 0; i-- {
		p := pv[i]
		b.WriteString(" " + formatGain(p) + "  ")
		for _, d := range dv {
			r, ok := cells[GainPoint{P: p, D: d}]
			mark := " "
			switch {
			case !ok:
			case r.Fell:
				mark = "x"
			case r.Settled():
				mark = "#"
			default:
				mark = "~"
			}
			b.WriteString(" " + mark + "   ")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func sortedSet(m map[float64]bool) []float64 {
	out := make([]float64, 0, len(m))
	for v := range m {
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}

func formatGain(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
