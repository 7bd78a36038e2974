package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/archiver/internal/archive"
)

// genericFailure is shown for any failed IPC request; details go to the launch log.
const genericFailure = "Request failed. Details are in the launch log."

// chatsState holds the Messages page state.
type chatsState struct {
	items    []archive.ChatSummary
	selected int
	loading  bool
	query    string // applied search

	search    textinput.Model
	searching bool

	viewport viewport.Model
	openGUID string
	lines    []archive.MessageLine
	loadingM bool

	status    string
	statusErr bool
}

func (c *chatsState) selectedChat() (archive.ChatSummary, bool) {
	if c.selected < 0 || c.selected >= len(c.items) {
		return archive.ChatSummary{}, false
	}
	return c.items[c.selected], true
}

func (c *chatsState) setStatus(msg string, isErr bool) {
	c.status = msg
	c.statusErr = isErr
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.chats.searching = false
		m.chats.search.Blur()
		m.chats.search.SetValue(m.chats.query)
		return m, nil
	case "enter":
		m.chats.searching = false
		m.chats.search.Blur()
		m.chats.query = strings.TrimSpace(m.chats.search.Value())
		if m.invoker == nil {
			return m, nil
		}
		m.chats.loading = true
		return m, loadChatsCmd(m.ctx, m.invoker, m.chats.query)
	}
	var cmd tea.Cmd
	m.chats.search, cmd = m.chats.search.Update(msg)
	return m, cmd
}

func (m Model) handleMessagesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.chats.items)

	switch {
	case key.Matches(msg, m.keys.Search):
		m.chats.searching = true
		return m, m.chats.search.Focus()

	case key.Matches(msg, m.keys.Escape):
		if m.chats.query != "" && m.invoker != nil {
			m.chats.query = ""
			m.chats.search.SetValue("")
			m.chats.loading = true
			return m, loadChatsCmd(m.ctx, m.invoker, "")
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.invoker == nil {
			return m, nil
		}
		m.chats.loading = true
		return m, loadChatsCmd(m.ctx, m.invoker, m.chats.query)

	case key.Matches(msg, m.keys.Up):
		if m.chats.selected > 0 {
			m.chats.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.chats.selected < count-1 {
			m.chats.selected++
		}
	case key.Matches(msg, m.keys.Top):
		m.chats.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		if count > 0 {
			m.chats.selected = count - 1
		}

	case key.Matches(msg, m.keys.Open):
		chat, ok := m.chats.selectedChat()
		if !ok || m.invoker == nil {
			return m, nil
		}
		m.chats.openGUID = chat.GUID
		m.chats.lines = nil
		m.chats.loadingM = true
		m.chats.refreshViewport(m.theme)
		return m, loadMessagesCmd(m.ctx, m.invoker, chat.GUID)

	case key.Matches(msg, m.keys.Archive):
		chat, ok := m.chats.selectedChat()
		if !ok || m.invoker == nil {
			return m, nil
		}
		m.chats.setStatus("Archiving "+chat.Name+"...", false)
		return m, archiveChatCmd(m.ctx, m.invoker, chat.GUID, DefaultArchiveFormat)

	default:
		// Page scrolling inside the open conversation.
		switch msg.String() {
		case "pgup", "pgdown", "ctrl+u", "ctrl+d":
			var cmd tea.Cmd
			m.chats.viewport, cmd = m.chats.viewport.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m *Model) handleChats(msg chatsMsg) {
	if msg.search != m.chats.query {
		return // stale
	}
	m.chats.loading = false
	if msg.err != nil {
		m.chats.setStatus(genericFailure, true)
		return
	}
	m.chats.items = msg.chats
	if m.chats.items == nil {
		m.chats.items = []archive.ChatSummary{}
	}
	if m.chats.selected >= len(m.chats.items) {
		m.chats.selected = maxInt(len(m.chats.items)-1, 0)
	}
	if m.chats.statusErr {
		m.chats.setStatus("", false)
	}
}

func (m *Model) handleMessages(msg messagesMsg) {
	if msg.guid != m.chats.openGUID {
		return // stale
	}
	m.chats.loadingM = false
	if msg.err != nil {
		m.chats.lines = nil
		m.chats.setStatus(genericFailure, true)
	} else {
		m.chats.lines = msg.lines
	}
	m.chats.refreshViewport(m.theme)
	m.chats.viewport.GotoBottom()
}

func (m *Model) handleArchived(msg archivedMsg) {
	name := msg.guid
	for _, c := range m.chats.items {
		if c.GUID == msg.guid {
			name = c.Name
			break
		}
	}
	if msg.err != nil {
		m.chats.setStatus(genericFailure, true)
		return
	}
	text := "Archived " + name
	if msg.summary != "" {
		text += ": " + truncate(msg.summary, 80)
	}
	m.chats.setStatus(text, false)
}

// refreshViewport rebuilds the conversation pane.
func (c *chatsState) refreshViewport(theme Theme) {
	styles := theme.Styles()
	width := maxInt(c.viewport.Width, 8)

	var b strings.Builder
	switch {
	case c.openGUID == "":
		b.WriteString(styles.FaintText.Render("Select a chat and press enter to load its messages."))
	case c.loadingM:
		b.WriteString(styles.MutedText.Render("Loading messages..."))
	case len(c.lines) == 0:
		b.WriteString(styles.FaintText.Render("No messages."))
	default:
		for i, line := range c.lines {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(renderMessageLine(line, styles, width))
		}
	}
	c.viewport.SetContent(b.String())
}

func renderMessageLine(line archive.MessageLine, styles Styles, width int) string {
	stamp := "     "
	if !line.Sent.IsZero() {
		stamp = line.Sent.Local().Format("15:04")
	}
	sender := line.Sender
	if sender == "" {
		sender = "?"
	}
	senderStyle := styles.InfoText
	if line.FromMe {
		senderStyle = styles.AccentText
	}
	text := line.Text
	if strings.TrimSpace(text) == "" {
		text = "(attachment)"
	}
	head := styles.FaintText.Render(stamp) + " " + senderStyle.Render(truncate(sender, 18)) + " "
	body := lipgloss.NewStyle().Width(maxInt(width-lipgloss.Width(head), 10)).Render(styles.Text.Render(text))
	return lipgloss.JoinHorizontal(lipgloss.Top, head, body)
}

// chatListWidth is the width of the chat list column for a page of width w.
func chatListWidth(w int) int {
	return maxInt(minInt(w/3, 36), 16)
}

func (m Model) renderMessages() string {
	styles := m.theme.Styles()
	w := maxInt(m.contentWidth()-2, 8)
	listW := chatListWidth(w)

	var top string
	if m.chats.searching {
		top = m.chats.search.View()
	} else if m.chats.query != "" {
		top = styles.MutedText.Render("search: ") + styles.Text.Render(m.chats.query) +
			styles.FaintText.Render("  (esc clears)")
	} else {
		top = styles.Text.Bold(true).Render("Messages")
	}

	list := m.renderChatList(styles, listW, maxInt(m.bodyHeight()-4, 1))
	pane := m.chats.viewport.View()
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(listW).Render(list),
		" ",
		pane,
	)

	status := ""
	if m.chats.status != "" {
		if m.chats.statusErr {
			status = styles.DangerText.Render(m.chats.status)
		} else {
			status = styles.SuccessText.Render(m.chats.status)
		}
	}
	return top + "\n\n" + body + "\n" + status
}

func (m Model) renderChatList(styles Styles, width, height int) string {
	if m.chats.loading && len(m.chats.items) == 0 {
		return styles.MutedText.Render("Loading chats...")
	}
	if len(m.chats.items) == 0 {
		if m.chats.items == nil {
			return styles.FaintText.Render("No chats loaded.")
		}
		return styles.FaintText.Render("No chats found.")
	}

	// Keep the selection visible.
	start := 0
	if m.chats.selected >= height {
		start = m.chats.selected - height + 1
	}
	end := minInt(start+height, len(m.chats.items))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		chat := m.chats.items[i]
		label := truncate(chat.Name, width-2)
		if chat.MessageCount > 0 {
			count := fmt.Sprintf(" %d", chat.MessageCount)
			label = truncate(chat.Name, width-2-len(count)) + count
		}
		line := padRight(" "+label, width)
		if i == m.chats.selected {
			lines = append(lines, styles.Selected.Render(line))
		} else {
			lines = append(lines, styles.Text.Render(line))
		}
	}
	return strings.Join(lines, "\n")
}
