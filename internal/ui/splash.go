package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// splashState is the startup screen shown while the backend comes up.
type splashState struct {
	spinner spinner.Model
	bar     progress.Model
	message string
	percent int
}

func newSplashState(theme Theme) splashState {
	return splashState{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Accent))),
		),
		bar:     newProgressBar(theme),
		message: "Starting...",
	}
}

func newProgressBar(theme Theme) progress.Model {
	return progress.New(
		progress.WithGradient(theme.GradientFrom, theme.GradientTo),
		progress.WithWidth(SplashBarWidth),
		progress.WithoutPercentage(),
	)
}

// apply records a progress update. Percentages never move backwards on screen.
func (s *splashState) apply(msg ProgressMsg) {
	if msg.Message != "" {
		s.message = msg.Message
	}
	if msg.Percent > s.percent {
		s.percent = msg.Percent
	}
	if s.percent > 100 {
		s.percent = 100
	}
}

func (m Model) renderSplash() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Logo.Render("A R C H I V E R"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("Local-only iMessage vault"))
	b.WriteString("\n\n")
	b.WriteString(m.splash.bar.ViewAs(float64(m.splash.percent) / 100))
	b.WriteString("\n\n")
	b.WriteString(m.splash.spinner.View())
	b.WriteString(" ")
	b.WriteString(styles.Text.Render(m.splash.message))
	b.WriteString(styles.MutedText.Render(" " + strconv.Itoa(m.splash.percent) + "%"))

	return m.center(b.String())
}

func (m Model) renderFailed() string {
	styles := m.theme.Styles()

	msg := "unknown error"
	if m.failErr != nil {
		msg = m.failErr.Error()
	}

	var b strings.Builder
	b.WriteString(styles.DangerText.Render("Archiver could not start"))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render(msg))
	if path := m.logPath; path != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.MutedText.Render("See " + truncateMiddle(path, 60)))
	}
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("Press any key to exit."))
	return m.center(b.String())
}

// center places content in the middle of the terminal, or returns it as is before the
// first size message.
func (m Model) center(content string) string {
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Align(lipgloss.Center).Render(content))
}
