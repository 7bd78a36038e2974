package ui

import "github.com/charmbracelet/lipgloss"

// Theme is a named palette. Colors are #rrggbb.
type Theme struct {
	Name string

	Background string // behind overlays
	Surface    string // status bar and sidebar
	SurfaceAlt string // command bar
	Border     string

	SelectionBg   string
	SelectionText string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// Splash progress bar.
	GradientFrom string
	GradientTo   string
}

// Styles are the text styles pages render with.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Logo     lipgloss.Style
	Selected lipgloss.Style
}

// Styles builds the text styles for t.
func (t Theme) Styles() Styles {
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),
		Logo:        fg(t.Accent).Bold(true),
		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.SelectionText)),
	}
}

// WithBackground paints every style onto bg, for text drawn on a colored bar.
func (s Styles) WithBackground(bg string) Styles {
	color := lipgloss.Color(bg)
	for _, st := range []*lipgloss.Style{
		&s.Text, &s.MutedText, &s.FaintText, &s.AccentText,
		&s.SuccessText, &s.WarningText, &s.DangerText, &s.InfoText, &s.Logo,
	} {
		*st = st.Background(color)
	}
	return s
}

var themeOrder = []string{"Vault", "Daylight"}

var themes = map[string]Theme{
	// Pink and violet on near-black, the archive's own colors.
	"Vault": {
		Name:          "Vault",
		Background:    "#07070c",
		Surface:       "#0f0f17",
		SurfaceAlt:    "#171723",
		Border:        "#2a2a3c",
		SelectionBg:   "#3b1d4a",
		SelectionText: "#f5f3ff",
		Text:          "#ece9f5",
		Muted:         "#8b87a3",
		Faint:         "#5d5a73",
		Accent:        "#ff2aa8",
		Success:       "#10b981",
		Warning:       "#fbbf24",
		Danger:        "#f43f5e",
		Info:          "#06b6d4",
		GradientFrom:  "#ff2aa8",
		GradientTo:    "#8b5cf6",
	},
	// Light terminals.
	"Daylight": {
		Name:          "Daylight",
		Background:    "#fafaf9",
		Surface:       "#f0eef5",
		SurfaceAlt:    "#e6e3ee",
		Border:        "#c9c4d6",
		SelectionBg:   "#f9d3ea",
		SelectionText: "#1c1626",
		Text:          "#1c1626",
		Muted:         "#5b5670",
		Faint:         "#8e89a1",
		Accent:        "#c0157a",
		Success:       "#047857",
		Warning:       "#b45309",
		Danger:        "#be123c",
		Info:          "#0e7490",
		GradientFrom:  "#c0157a",
		GradientTo:    "#6d28d9",
	},
}

// GetTheme returns the named theme, falling back to Vault.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes["Vault"]
}

// NextTheme returns the theme after current in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames lists the themes in cycle order.
func ThemeNames() []string {
	return themeOrder
}
