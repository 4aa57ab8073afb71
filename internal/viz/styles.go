package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	scene     lipgloss.Style
	panel     lipgloss.Style
	header    lipgloss.Style
	label     lipgloss.Style
	value     lipgloss.Style
	active    lipgloss.Style
	graph     lipgloss.Style
	help      lipgloss.Style
	running   lipgloss.Style
	paused    lipgloss.Style
	fallen    lipgloss.Style
	barFill   lipgloss.Style
	barEmpty  lipgloss.Style
	separator lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		scene:     lipgloss.NewStyle().Foreground(t.Scene).Padding(canvasPadY, canvasPadX),
		panel:     lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(t.Muted).Padding(1, 2).Width(44),
		header:    lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		label:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10),
		value:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		active:    lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		graph:     lipgloss.NewStyle().Foreground(t.Good).Padding(1, 0),
		help:      lipgloss.NewStyle().Foreground(t.Muted).Italic(true).MarginTop(1),
		running:   lipgloss.NewStyle().Bold(true).Foreground(t.Good),
		paused:    lipgloss.NewStyle().Bold(true).Foreground(t.Warn),
		fallen:    lipgloss.NewStyle().Bold(true).Foreground(t.Bad),
		barFill:   lipgloss.NewStyle().Foreground(t.Accent),
		barEmpty:  lipgloss.NewStyle().Foreground(t.Muted),
		separator: lipgloss.NewStyle().Foreground(t.Muted),
	}
}

// sliderBar draws value's position within [lo, hi] as a bar of width cells.
func (s styles) sliderBar(value, lo, hi float64, width int) string {
	ratio := 0.0
	if hi > lo {
		ratio = (value - lo) / (hi - lo)
	}
	filled := int(ratio*float64(width) + 0.5)
	filled = max(0, min(width, filled))
	return s.barFill.Render(strings.Repeat("█", filled)) + s.barEmpty.Render(strings.Repeat("░", width-filled))
}

func (s styles) rule(width int) string {
	mid := width / 2
	return s.separator.Render(strings.Repeat("─", mid-3) + " ◆ " + strings.Repeat("─", width-mid-3))
}
