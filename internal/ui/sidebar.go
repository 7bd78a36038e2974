package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Page is a main-view page selectable from the sidebar.
type Page int

const (
	PageDashboard Page = iota
	PageMessages
	PageLogs
	PageSettings
	PageOnboarding // not in the sidebar; shown until first-run setup completes
)

// navPages is the sidebar order.
var navPages = []Page{PageDashboard, PageMessages, PageLogs, PageSettings}

func (p Page) String() string {
	switch p {
	case PageDashboard:
		return "Dashboard"
	case PageMessages:
		return "Messages"
	case PageLogs:
		return "Logs"
	case PageSettings:
		return "Settings"
	case PageOnboarding:
		return "Welcome"
	default:
		return "Unknown"
	}
}

// nextPage steps through the sidebar pages, wrapping in both directions.
func nextPage(current Page, step int) Page {
	idx := 0
	for i, p := range navPages {
		if p == current {
			idx = i
			break
		}
	}
	n := len(navPages)
	return navPages[((idx+step)%n+n)%n]
}

func (m Model) renderSidebar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	inner := SidebarWidth - 1

	var b strings.Builder
	b.WriteString(styles.Logo.Width(inner).Padding(0, 1).Render("ARCHIVER"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Width(inner).Padding(0, 1).Render("iMessage vault"))
	b.WriteString("\n\n")

	for i, p := range navPages {
		label := " " + string(rune('1'+i)) + "  " + p.String()
		line := padRight(label, inner)
		if p == m.page {
			b.WriteString(styles.Selected.Bold(true).Width(inner).Render(line))
		} else {
			b.WriteString(styles.MutedText.Width(inner).Render(line))
		}
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().
		Width(inner).
		Height(m.bodyHeight()).
		Background(lipgloss.Color(m.theme.Surface)).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(lipgloss.Color(m.theme.Border)).
		Render(b.String())
}
