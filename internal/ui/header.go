package ui

import "strconv"

// renderHeader renders the one-line status bar above the page.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bar := newBarPainter(m.theme.Surface, m.theme.Text)

	parts := []string{bar.text("archiver", styles.Logo)}

	snap := m.snapshot
	switch {
	case snap.IsOffline():
		parts = append(parts,
			bar.text("● BACKEND OFFLINE", styles.DangerText.Bold(true)),
			bar.text("Retrying...", styles.WarningText),
		)
	case snap.HasStatus:
		parts = append(parts, bar.text("● ONLINE", styles.SuccessText))
	default:
		parts = append(parts, bar.text("● CONNECTING", styles.WarningText))
	}

	if m.port > 0 {
		parts = append(parts, bar.pair("Port:", strconv.Itoa(m.port), styles.MutedText, styles.Text))
	}
	parts = append(parts, bar.pair("Chats:", strconv.Itoa(len(snap.Chats)), styles.MutedText, styles.Text))

	if !m.lastUpdated.IsZero() && m.width >= 90 {
		parts = append(parts, bar.text(formatLastUpdate(snap.LastUpdated), styles.MutedText))
	}

	return bar.line(bar.join(parts, 2)+bar.gap(2), m.width)
}

// renderCommandBar renders the key hints for the current page.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	bar := newBarPainter(m.theme.SurfaceAlt, m.theme.Text)

	type hint struct{ key, desc string }
	var hints []hint
	switch m.page {
	case PageOnboarding:
		hints = []hint{{"enter", "Continue"}, {"backspace", "Back"}, {"e", "Quit"}}
	case PageMessages:
		if m.chats.searching {
			hints = []hint{{"enter", "Search"}, {"esc", "Cancel"}}
		} else {
			hints = []hint{{"j/k", "Move"}, {"enter", "Open"}, {"/", "Search"}, {"a", "Archive"}, {"r", "Refresh"}}
		}
	case PageLogs:
		hints = []hint{{"space", "Follow"}, {"j/k", "Scroll"}, {"g/G", "Top/bottom"}, {"r", "Reload"}}
	case PageSettings:
		hints = []hint{{"T", "Theme"}}
	default:
		hints = []hint{{"tab", "Next page"}}
	}
	if m.page != PageOnboarding {
		hints = append(hints, hint{"h", "Help"}, hint{"e", "Quit"})
	}

	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, bar.pair(h.key, h.desc, styles.AccentText.Bold(true), styles.MutedText))
	}
	return bar.line(bar.gap(1)+bar.join(parts, 3), m.width)
}
