package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"go.uber.org/zap"

	"github.com/san-kum/cartpole/internal/config"
	"github.com/san-kum/cartpole/internal/control"
	"github.com/san-kum/cartpole/internal/dynamo"
	"github.com/san-kum/cartpole/internal/sim"
)

const (
	canvasCols      = 76
	canvasRows      = 20
	canvasPadX      = 2
	canvasPadY      = 1
	historyCapacity = 300
	frameInterval   = time.Second / 60
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model drives a simulator from the terminal: one physics tick per frame,
// keyboard gain tuning and mouse pushes.
type Model struct {
	sim      *sim.Simulator
	gains    *control.Gains
	world    config.WorldConfig
	canvas   *Canvas
	scale    float64
	running  bool
	selected control.Param
	angles   []float64
	theme    int
	styles   styles
	showHelp bool
	log      *zap.Logger
}

func NewModel(s *sim.Simulator, log *zap.Logger) Model {
	if log == nil {
		log = zap.NewNop()
	}
	world := s.Config().World
	c := NewCanvas(canvasCols, canvasRows)
	pw, ph := c.PixelSize()

	return Model{
		sim:     s,
		gains:   s.Gains(),
		world:   world,
		canvas:  c,
		scale:   math.Min(float64(pw)/world.Width, float64(ph)/world.Height),
		running: true,
		angles:  make([]float64, 0, historyCapacity),
		styles:  newStyles(Themes[0]),
		log:     log.Named("viz"),
	}
}

// WithTheme selects a theme by name; unknown names keep the default.
func (m Model) WithTheme(name string) Model {
	m.theme = ThemeIndex(name)
	m.styles = newStyles(Themes[m.theme])
	return m
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "tab":
			if m.selected == control.ParamP {
				m.selected = control.ParamD
			} else {
				m.selected = control.ParamP
			}
		case "up", "k":
			m.nudge(1)
		case "down", "j":
			m.nudge(-1)
		case "left", "h":
			// a target right of the bob pushes it left
			m.sim.Disturb(m.sim.Bob().Position.X + 1)
		case "right", "l":
			m.sim.Disturb(m.sim.Bob().Position.X - 1)
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
			m.styles = newStyles(Themes[m.theme])
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			if x, ok := m.worldX(msg.X); ok {
				m.sim.Disturb(x)
			}
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	f := m.sim.Tick()
	m.angles = append(m.angles, f.Angle)
	if len(m.angles) > historyCapacity {
		m.angles = m.angles[1:]
	}
}

func (m *Model) nudge(steps int) {
	v := m.gains.Nudge(m.selected, steps)
	m.log.Debug("gain changed", zap.Stringer("param", m.selected), zap.Float64("value", v))
}

func (m *Model) reset() {
	m.sim.Reset()
	m.angles = m.angles[:0]
}

// worldX maps a terminal column to a world x, if the column lies over the
// scene.
func (m Model) worldX(col int) (float64, bool) {
	c := col - canvasPadX
	if c < 0 || c >= m.canvas.Width {
		return 0, false
	}
	// centre of the cell's two sub-pixel columns
	return (float64(c*2) + 1) / m.scale, true
}

func (m Model) project(v dynamo.Vec) (int, int) {
	return int(math.Round(v.X * m.scale)), int(math.Round(v.Y * m.scale))
}

func (m Model) draw(f dynamo.Frame) {
	m.canvas.Clear()

	for _, b := range f.Statics {
		hx, hy := b.Width/2, b.Height/2
		x0, y0 := m.project(dynamo.V(b.Position.X-hx, b.Position.Y-hy))
		x1, y1 := m.project(dynamo.V(b.Position.X+hx, b.Position.Y+hy))
		m.canvas.StrokeRect(x0, y0, x1, y1)
	}

	cx, cy := m.project(f.Cart.Position)
	bx, by := m.project(f.Bob.Position)
	m.canvas.DrawLine(cx, cy, bx, by)

	hx, hy := f.Cart.Width/2, f.Cart.Height/2
	x0, y0 := m.project(dynamo.V(f.Cart.Position.X-hx, f.Cart.Position.Y-hy))
	x1, y1 := m.project(dynamo.V(f.Cart.Position.X+hx, f.Cart.Position.Y+hy))
	m.canvas.FillRect(x0, y0, x1, y1)

	m.canvas.FillCircle(bx, by, math.Max(1, f.Bob.Radius*m.scale))
}

func (m Model) status(f dynamo.Frame) string {
	switch {
	case math.Abs(f.Angle) >= math.Pi/2:
		return m.styles.fallen.Render("FALLEN")
	case !m.running:
		return m.styles.paused.Render("PAUSED")
	}
	return m.styles.running.Render("RUNNING")
}

func (m Model) View() string {
	f := m.sim.Frame()
	m.draw(f)
	st := m.styles

	var s strings.Builder
	s.WriteString(st.header.Render("CART-POLE") + "  " + m.status(f) + "\n\n")

	if len(m.angles) > 1 {
		chart := asciigraph.Plot(m.angles,
			asciigraph.Height(5),
			asciigraph.Width(32),
			asciigraph.Precision(3),
			asciigraph.Caption("angle (rad)"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Tick", fmt.Sprintf("%d", f.Tick))
	row("Angle", fmt.Sprintf("%+.4f rad", f.Angle))
	row("Rate", fmt.Sprintf("%+.5f /tick", f.AngularVelocity))
	row("Force", fmt.Sprintf("%+.6f", f.Force))
	row("Rod", fmt.Sprintf("%.2f / %.0f", f.RodLength, f.RestLength))

	s.WriteString("\nGAINS\n")
	rng := m.gains.Range()
	for _, p := range []control.Param{control.ParamP, control.ParamD} {
		v := m.gains.P()
		if p == control.ParamD {
			v = m.gains.D()
		}
		line := fmt.Sprintf("%s %s %.3f", p, st.sliderBar(v, rng.Min, rng.Max, 12), v)
		if p == m.selected {
			s.WriteString(st.active.Render("> ") + line + "\n")
		} else {
			s.WriteString("  " + line + "\n")
		}
	}

	s.WriteString("\n" + st.rule(36) + "\n")
	s.WriteString(st.help.Render("SP:Pause R:Reset Q:Quit T:" + Themes[m.theme].Name + "\nTab:Gain ↑↓:Tune ←→/click:Push"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, st.scene.Render(m.canvas.String()), st.panel.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + main
	}
	return main
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Reset the world          ║
║  Q        - Quit                     ║
║  Tab      - Select P or D            ║
║  Up/K     - Raise selected gain      ║
║  Down/J   - Lower selected gain      ║
║  Left/H   - Push the bob left        ║
║  Right/L  - Push the bob right       ║
║  Click    - Push away from the mouse ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
`
