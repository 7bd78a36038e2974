package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// barPainter renders the single-line status and command bars. lipgloss resets the
// background after every styled segment, so each word and gap is painted separately to
// keep the bar solid.
type barPainter struct {
	bg lipgloss.Color
	fg lipgloss.Color
}

func newBarPainter(bg, fg string) barPainter {
	return barPainter{bg: lipgloss.Color(bg), fg: lipgloss.Color(fg)}
}

// text paints s word by word in style over the bar background.
func (p barPainter) text(s string, style lipgloss.Style) string {
	if s == "" {
		return ""
	}
	style = style.Background(p.bg)
	words := strings.Split(s, " ")
	for i, w := range words {
		if w != "" {
			words[i] = style.Render(w)
		}
	}
	return strings.Join(words, p.gap(1))
}

// pair renders "label value", as used for Port and Chats in the status bar.
func (p barPainter) pair(label, value string, labelStyle, valueStyle lipgloss.Style) string {
	return p.text(label, labelStyle) + p.gap(1) + p.text(value, valueStyle)
}

func (p barPainter) gap(n int) string {
	if n <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Background(p.bg).Render(strings.Repeat(" ", n))
}

// join separates segments with n painted spaces.
func (p barPainter) join(segments []string, n int) string {
	return strings.Join(segments, p.gap(n))
}

// line fills width with the bar background, clipped to one row.
func (p barPainter) line(content string, width int) string {
	return lipgloss.NewStyle().
		Background(p.bg).
		Foreground(p.fg).
		Width(width).
		MaxHeight(1).
		Render(content)
}
