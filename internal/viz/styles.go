package viz

import "github.com/charmbracelet/lipgloss"

// Theme is a color scheme for the live view.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

var themes = []Theme{
	{
		Name:    "default",
		Primary: lipgloss.Color("#00ffff"),
		Accent:  lipgloss.Color("#ff00ff"),
		Text:    lipgloss.Color("#e0e0e0"),
		Muted:   lipgloss.Color("#666688"),
		Success: lipgloss.Color("#00ff88"),
		Warning: lipgloss.Color("#ffaa00"),
		Error:   lipgloss.Color("#ff4444"),
	},
	{
		Name:    "retro",
		Primary: lipgloss.Color("#00ff00"),
		Accent:  lipgloss.Color("#88ff88"),
		Text:    lipgloss.Color("#00ff00"),
		Muted:   lipgloss.Color("#005500"),
		Success: lipgloss.Color("#88ff88"),
		Warning: lipgloss.Color("#ffff00"),
		Error:   lipgloss.Color("#ff0000"),
	},
	{
		Name:    "minimal",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#0088ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
		Success: lipgloss.Color("#00ff00"),
		Warning: lipgloss.Color("#ffaa00"),
		Error:   lipgloss.Color("#ff0000"),
	},
}

// ThemeNames lists the available themes in cycle order.
func ThemeNames() []string {
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}

// ThemeByName falls back to the default theme for unknown names.
func ThemeByName(name string) Theme {
	for _, t := range themes {
		if t.Name == name {
			return t
		}
	}
	return themes[0]
}

func nextTheme(current string) Theme {
	for i, t := range themes {
		if t.Name == current {
			return themes[(i+1)%len(themes)]
		}
	}
	return themes[0]
}

type styles struct {
	header lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	canvas lipgloss.Style
	stats  lipgloss.Style
	graph  lipgloss.Style
	help   lipgloss.Style
	run    lipgloss.Style
	pause  lipgloss.Style
	stop   lipgloss.Style
	fail   lipgloss.Style
}

func stylesFor(t Theme) styles {
	return styles{
		header: lipgloss.NewStyle().Foreground(t.Primary).Bold(true).MarginBottom(1),
		label:  lipgloss.NewStyle().Foreground(t.Muted).Width(10),
		value:  lipgloss.NewStyle().Foreground(t.Text),
		canvas: lipgloss.NewStyle().Foreground(t.Primary).Padding(1, 2),
		stats: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(44),
		graph: lipgloss.NewStyle().Foreground(t.Accent).Padding(1, 0),
		help:  lipgloss.NewStyle().Foreground(t.Muted).Italic(true).MarginTop(1),
		run:   lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		pause: lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		stop:  lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		fail:  lipgloss.NewStyle().Foreground(t.Error).Bold(true),
	}
}
