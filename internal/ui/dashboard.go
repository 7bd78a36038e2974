package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/archiver/internal/archive"
)

// dashboardRecentChats is the number of chats listed under "Recent activity".
const dashboardRecentChats = 8

func (m Model) renderDashboard() string {
	styles := m.theme.Styles()
	snap := m.snapshot
	width := maxInt(m.contentWidth()-2, 20)

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Dashboard"))
	b.WriteString("\n\n")

	// Backend card
	state := styles.SuccessText.Render("● online")
	switch {
	case snap.IsOffline():
		state = styles.DangerText.Render("● offline")
	case !snap.HasStatus && snap.LastError == nil:
		state = styles.WarningText.Render("● waiting")
	}
	rows := [][2]string{
		{"Backend", state},
		{"Address", styles.Text.Render(m.backendAddr())},
		{"Last update", styles.Text.Render(formatLastUpdate(snap.LastUpdated))},
		{"Chats", styles.Text.Render(fmt.Sprintf("%d", len(snap.Chats)))},
	}
	if snap.LastError != nil {
		rows = append(rows, [2]string{"Last error", styles.DangerText.Render(truncate(snap.LastError.Error(), width-16))})
	}
	b.WriteString(renderRows(styles, rows))

	// Backend-reported fields
	if fields := archive.StatusFields(snap.Status); len(fields) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.AccentText.Bold(true).Render("Backend status"))
		b.WriteString("\n")
		rendered := make([][2]string, 0, len(fields))
		for _, f := range fields {
			rendered = append(rendered, [2]string{titleCase(f[0]), styles.Text.Render(truncate(f[1], width-16))})
		}
		b.WriteString(renderRows(styles, rendered))
	}

	// Recent activity
	b.WriteString("\n")
	b.WriteString(styles.AccentText.Bold(true).Render("Recent activity"))
	b.WriteString("\n")
	recent := recentChats(snap.Chats, dashboardRecentChats)
	if len(recent) == 0 {
		b.WriteString(styles.FaintText.Render("No chats yet."))
		b.WriteString("\n")
	}
	for _, c := range recent {
		when := "        "
		if !c.LastActivity.IsZero() {
			when = c.LastActivity.Local().Format("Jan 02")
			when = padRight(when, 8)
		}
		line := styles.FaintText.Render(when) + " " + styles.Text.Render(truncate(c.Name, 28))
		if c.LastMessage != "" {
			line += "  " + styles.MutedText.Render(truncate(c.LastMessage, maxInt(width-42, 8)))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) backendAddr() string {
	if m.port > 0 {
		return fmt.Sprintf("127.0.0.1:%d", m.port)
	}
	if m.config != nil {
		return m.config.BackendAddr
	}
	return "-"
}

func renderRows(styles Styles, rows [][2]string) string {
	var b strings.Builder
	label := lipgloss.NewStyle().Width(14).Inherit(styles.MutedText)
	for _, r := range rows {
		b.WriteString(label.Render(r[0]))
		b.WriteString(r[1])
		b.WriteString("\n")
	}
	return b.String()
}

// recentChats returns up to n chats, most recently active first. Chats without an
// activity time keep their backend order after the dated ones.
func recentChats(chats []archive.ChatSummary, n int) []archive.ChatSummary {
	out := make([]archive.ChatSummary, len(chats))
	copy(out, chats)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func formatLastUpdate(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	since := time.Since(t)
	s := t.Format("15:04:05")
	switch {
	case since < time.Minute:
		s += " (now)"
	case since < time.Hour:
		s += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		s += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return s
}
