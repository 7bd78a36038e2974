package ui

import (
	"strings"

	"github.com/five82/archiver/internal/version"
)

func (m Model) renderSettings() string {
	styles := m.theme.Styles()
	width := maxInt(m.contentWidth()-18, 16)
	value := func(s string) string {
		if s == "" {
			return styles.FaintText.Render("(default)")
		}
		return styles.Text.Render(truncateMiddle(s, width))
	}

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Settings"))
	b.WriteString("\n\n")

	b.WriteString(styles.AccentText.Bold(true).Render("Appearance"))
	b.WriteString("\n")
	b.WriteString(renderRows(styles, [][2]string{
		{"Theme", styles.Text.Render(m.theme.Name) + "  " + styles.FaintText.Render("T to cycle: "+strings.Join(ThemeNames(), ", "))},
		{"Preferences", value(m.prefsPath)},
	}))

	if cfg := m.config; cfg != nil {
		b.WriteString("\n")
		b.WriteString(styles.AccentText.Bold(true).Render("Backend"))
		b.WriteString("\n")
		b.WriteString(renderRows(styles, [][2]string{
			{"Address", value(cfg.BackendAddr)},
			{"Health path", value(cfg.HealthPath)},
			{"Poll", value(cfg.PollInterval.String())},
			{"Timeout", value(cfg.StartupTimeout.String())},
			{"Project root", value(cfg.ProjectRoot)},
			{"Entry script", value(cfg.EntryScript)},
			{"Python", value(strings.Join(cfg.PythonCandidates, ", "))},
			{"Env file", value(cfg.EnvFile)},
		}))

		b.WriteString("\n")
		b.WriteString(styles.AccentText.Bold(true).Render("Launcher"))
		b.WriteString("\n")
		telemetry := cfg.TelemetryEndpoint
		if telemetry == "" {
			telemetry = "disabled"
		}
		b.WriteString(renderRows(styles, [][2]string{
			{"Log dir", value(cfg.LogDir)},
			{"Launch log", value(m.logPath)},
			{"Lock file", value(cfg.LockFile)},
			{"Gateway", value(cfg.GatewayBind)},
			{"Telemetry", value(telemetry)},
		}))
	}

	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(version.Get().String()))
	return b.String()
}
