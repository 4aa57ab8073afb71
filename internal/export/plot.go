// Package export renders recorded runs to image files.
package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/cartpole/internal/storage"
)

const pngDPI = 150

// TracePlot charts pole angle and control force against tick.
func TracePlot(title string, trace []storage.TraceRow) (*plot.Plot, error) {
	if len(trace) == 0 {
		return nil, fmt.Errorf("empty trace")
	}

	angle := make(plotter.XYs, len(trace))
	force := make(plotter.XYs, len(trace))
	for i, r := range trace {
		angle[i].X = float64(r.Tick)
		angle[i].Y = r.Angle
		force[i].X = float64(r.Tick)
		// force is ~1e-3 of the angle scale
		force[i].Y = r.Force * 100
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "tick"
	p.Y.Label.Text = "angle (rad) / force x100"
	p.Add(plotter.NewGrid())

	al, err := plotter.NewLine(angle)
	if err != nil {
		return nil, err
	}
	al.LineStyle.Width = vg.Points(1.5)
	al.LineStyle.Color = plotter.DefaultLineStyle.Color

	fl, err := plotter.NewLine(force)
	if err != nil {
		return nil, err
	}
	fl.LineStyle.Width = vg.Points(1)
	fl.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(al, fl)
	p.Legend.Add("angle", al)
	p.Legend.Add("force", fl)
	p.Legend.Top = true
	return p, nil
}

// SavePNG renders p at widthIn x heightIn inches.
func SavePNG(p *plot.Plot, widthIn, heightIn float64, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(pngDPI),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}

func SaveTracePNG(filename, title string, trace []storage.TraceRow) error {
	p, err := TracePlot(title, trace)
	if err != nil {
		return err
	}
	return SavePNG(p, 8, 4.5, filename)
}
