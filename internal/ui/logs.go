package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/archiver/internal/logtail"
)

// logsState holds the Logs page state.
type logsState struct {
	viewport viewport.Model
	follow   bool
	lines    []string
	err      error
	loaded   bool
}

// refreshLogs returns a command reading the launch log tail, or nil without a log file.
func (m Model) refreshLogs() tea.Cmd {
	if m.logPath == "" {
		return nil
	}
	return readLogCmd(m.logPath)
}

func (m *Model) handleLogLines(msg logLinesMsg) {
	m.logs.loaded = true
	m.logs.err = msg.err
	if msg.err == nil {
		m.logs.lines = msg.lines
	}
	m.logs.refreshViewport(m.theme)
	if m.logs.follow {
		m.logs.viewport.GotoBottom()
	}
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logs.follow = !m.logs.follow
		if m.logs.follow {
			m.logs.viewport.GotoBottom()
		}
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshLogs()
	case key.Matches(msg, m.keys.Top):
		m.logs.follow = false
		m.logs.viewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.logs.viewport.GotoBottom()
		return m, nil
	}

	// Any manual scroll stops following.
	switch msg.String() {
	case "up", "k", "pgup", "ctrl+u", "down", "j", "pgdown", "ctrl+d":
		m.logs.follow = false
		var cmd tea.Cmd
		m.logs.viewport, cmd = m.logs.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// refreshViewport re-renders the log lines with level colouring.
func (l *logsState) refreshViewport(theme Theme) {
	styles := theme.Styles()
	width := maxInt(l.viewport.Width, 8)

	if len(l.lines) == 0 {
		msg := "Log is empty."
		if !l.loaded {
			msg = "Loading log..."
		}
		l.viewport.SetContent(styles.FaintText.Render(msg))
		return
	}

	var b strings.Builder
	for i, line := range l.lines {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(colorizeLogLine(line, styles, width))
	}
	l.viewport.SetContent(b.String())
}

func colorizeLogLine(line string, styles Styles, width int) string {
	entry := logtail.Parse(line)
	text := truncate(line, width)
	if entry.Time.IsZero() {
		return styles.MutedText.Render(text)
	}

	ts := entry.Time.Local().Format("15:04:05")
	level := padRight(entry.Level.String(), 5)
	levelStyle := styles.InfoText
	switch entry.Level {
	case logtail.LevelDebug:
		levelStyle = styles.FaintText
	case logtail.LevelWarn:
		levelStyle = styles.WarningText
	case logtail.LevelError:
		levelStyle = styles.DangerText
	}

	head := ts + " " + level + " "
	msg := entry.Message
	if entry.Source != "" {
		head += "[" + entry.Source + "] "
	}
	msg = truncate(msg, maxInt(width-len([]rune(head)), 8))

	out := styles.FaintText.Render(ts) + " " + levelStyle.Bold(true).Render(level) + " "
	if entry.Source != "" {
		out += styles.AccentText.Render("["+entry.Source+"]") + " "
	}
	return out + styles.Text.Render(msg)
}

func (m Model) renderLogs() string {
	styles := m.theme.Styles()

	title := styles.Text.Bold(true).Render("Launch log")
	if m.logPath != "" {
		title += "  " + styles.FaintText.Render(truncateMiddle(m.logPath, maxInt(m.contentWidth()-20, 10)))
	}

	mode := styles.MutedText.Render("paused")
	if m.logs.follow {
		mode = styles.SuccessText.Render("following")
	}
	status := mode
	if m.logs.err != nil {
		status += "  " + styles.DangerText.Render("Could not read log: "+truncate(m.logs.err.Error(), 60))
	}
	if m.logPath == "" {
		return title + "\n" + styles.FaintText.Render("No launch log for this session.")
	}
	return title + "\n" + m.logs.viewport.View() + "\n" + status
}
