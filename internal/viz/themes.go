package viz

import "github.com/charmbracelet/lipgloss"

// Theme colors the scene and the side panel.
type Theme struct {
	Name   string
	Scene  lipgloss.Color
	Accent lipgloss.Color
	Muted  lipgloss.Color
	Good   lipgloss.Color
	Warn   lipgloss.Color
	Bad    lipgloss.Color
}

var (
	ThemeClassic = Theme{
		Name:   "classic",
		Scene:  lipgloss.Color("#e0e0e0"),
		Accent: lipgloss.Color("#00ccff"),
		Muted:  lipgloss.Color("#666688"),
		Good:   lipgloss.Color("#00ff88"),
		Warn:   lipgloss.Color("#ffcc00"),
		Bad:    lipgloss.Color("#ff4444"),
	}

	ThemeRetro = Theme{
		Name:   "retro",
		Scene:  lipgloss.Color("#00ff00"), // green phosphor
		Accent: lipgloss.Color("#88ff88"),
		Muted:  lipgloss.Color("#005500"),
		Good:   lipgloss.Color("#88ff88"),
		Warn:   lipgloss.Color("#ffff00"),
		Bad:    lipgloss.Color("#ff0000"),
	}

	ThemeMinimal = Theme{
		Name:   "minimal",
		Scene:  lipgloss.Color("#ffffff"),
		Accent: lipgloss.Color("#cccccc"),
		Muted:  lipgloss.Color("#444444"),
		Good:   lipgloss.Color("#ffffff"),
		Warn:   lipgloss.Color("#aaaaaa"),
		Bad:    lipgloss.Color("#888888"),
	}
)

var Themes = []Theme{ThemeClassic, ThemeRetro, ThemeMinimal}

// ThemeNames lists themes in cycle order.
func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// ThemeIndex returns the position of the named theme, or 0.
func ThemeIndex(name string) int {
	for i, t := range Themes {
		if t.Name == name {
			return i
		}
	}
	return 0
}
