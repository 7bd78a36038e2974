package ui

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/archiver/internal/config"
	"github.com/five82/archiver/internal/logging"
	"github.com/five82/archiver/internal/prefs"
	"github.com/five82/archiver/internal/state"
)

// Invoker performs IPC invocations. *bridge.Bridge implements it.
type Invoker interface {
	Invoke(ctx context.Context, channel string, args ...any) (json.RawMessage, error)
}

// OnboardingSource reports first-run progress from the backend.
type OnboardingSource interface {
	OnboardingStatus(ctx context.Context) (json.RawMessage, error)
}

// screen is the top-level window the model renders.
type screen int

const (
	screenSplash screen = iota
	screenMain
	screenFailed
)

// Options configures the UI.
type Options struct {
	Context    context.Context
	Invoker    Invoker
	Onboarding OnboardingSource
	Store      *state.Store
	Config     *config.Config
	Prefs      prefs.Prefs
	PrefsPath  string
	LogPath    string
	PollTick   time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx        context.Context
	invoker    Invoker
	onboardSrc OnboardingSource
	store      *state.Store
	config     *config.Config
	prefs      prefs.Prefs
	prefsPath  string
	logPath    string
	pollTick   time.Duration

	// UI state
	theme  Theme
	keys   keyMap
	screen screen
	page   Page
	width  int
	height int
	ready  bool

	// Startup state
	splash  splashState
	port    int
	failErr error

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time

	// Page state
	chats      chatsState
	logs       logsState
	onboarding onboardingState

	// Help overlay
	showHelp bool
}

// New creates a new Bubble Tea model showing the splash screen.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	theme := GetTheme(opts.Prefs.Theme)
	search := textinput.New()
	search.Placeholder = "search chats"
	search.Prompt = "/ "
	search.CharLimit = 120

	return Model{
		ctx:        ctx,
		invoker:    opts.Invoker,
		onboardSrc: opts.Onboarding,
		store:      opts.Store,
		config:     opts.Config,
		prefs:      opts.Prefs,
		prefsPath:  prefsPath,
		logPath:    opts.LogPath,
		pollTick:   pollTick,
		theme:      theme,
		keys:       DefaultKeyMap(),
		screen:     screenSplash,
		page:       PageDashboard,
		splash:     newSplashState(theme),
		chats:      chatsState{search: search},
		logs:       logsState{follow: true},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.splash.spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.chats.viewport = viewport.New(m.contentWidth(), m.bodyHeight())
			m.logs.viewport = viewport.New(m.contentWidth(), m.bodyHeight())
		}
		m.ready = true
		m.resizeViewports()
		return m, nil

	case spinner.TickMsg:
		if m.screen != screenSplash {
			return m, nil
		}
		var cmd tea.Cmd
		m.splash.spinner, cmd = m.splash.spinner.Update(msg)
		return m, cmd

	case ProgressMsg:
		m.splash.apply(msg)
		return m, nil

	case ReadyMsg:
		return m.handleReady(msg)

	case FailedMsg:
		if m.screen == screenFailed {
			return m, nil
		}
		m.screen = screenFailed
		m.failErr = msg.Err
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		return m, nil

	case onboardingStatusMsg:
		return m.handleOnboardingStatus(msg)

	case chatsMsg:
		m.handleChats(msg)
		return m, nil

	case messagesMsg:
		m.handleMessages(msg)
		return m, nil

	case archivedMsg:
		m.handleArchived(msg)
		return m, nil

	case logLinesMsg:
		m.handleLogLines(msg)
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	switch m.screen {
	case screenSplash:
		return m.renderSplash()
	case screenFailed:
		return m.renderFailed()
	}

	if !m.ready {
		return "Loading..."
	}

	// Show help overlay if active
	if m.showHelp {
		return m.renderHelp()
	}

	return m.renderMain()
}

// Screen state accessors used by the launcher and tests.

// Ready reports whether the main view is showing.
func (m Model) Ready() bool { return m.screen == screenMain }

// Failed returns the startup error, if startup failed.
func (m Model) Failed() error { return m.failErr }

// CurrentPage returns the active page.
func (m Model) CurrentPage() Page { return m.page }

func (m Model) handleReady(msg ReadyMsg) (tea.Model, tea.Cmd) {
	if m.screen != screenSplash {
		return m, nil
	}
	m.screen = screenMain
	m.port = msg.Port
	m.splash.apply(ProgressMsg{Message: "Ready!", Percent: 100})

	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.invoker != nil {
		m.chats.loading = true
		cmds = append(cmds, loadChatsCmd(m.ctx, m.invoker, ""))
	}
	if !m.prefs.OnboardingComplete {
		if m.onboardSrc != nil {
			m.onboarding.checking = true
			cmds = append(cmds, onboardingStatusCmd(m.ctx, m.onboardSrc))
		} else {
			m.page = PageOnboarding
		}
	}
	return m, tea.Batch(cmds...)
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// The failure screen stays up until the user dismisses it.
	if m.screen == screenFailed {
		return m, tea.Quit
	}

	// Nothing but quitting is available until the backend is up.
	if m.screen != screenMain {
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	// Handle help overlay
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	// Search input swallows keys while focused.
	if m.page == PageMessages && m.chats.searching {
		return m.handleSearchKey(msg)
	}

	if m.page == PageOnboarding {
		return m.handleOnboardingKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		return m.switchPage(nextPage(m.page, 1))

	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchPage(nextPage(m.page, -1))

	case key.Matches(msg, m.keys.ViewDashboard):
		return m.switchPage(PageDashboard)

	case key.Matches(msg, m.keys.ViewMessages):
		return m.switchPage(PageMessages)

	case key.Matches(msg, m.keys.ViewLogs):
		return m.switchPage(PageLogs)

	case key.Matches(msg, m.keys.ViewSettings):
		return m.switchPage(PageSettings)
	}

	// Page-specific keys
	switch m.page {
	case PageMessages:
		return m.handleMessagesKey(msg)
	case PageLogs:
		return m.handleLogsKey(msg)
	}

	return m, nil
}

func (m Model) switchPage(p Page) (tea.Model, tea.Cmd) {
	m.page = p
	switch p {
	case PageLogs:
		return m, m.refreshLogs() // Fetch immediately
	case PageMessages:
		if m.chats.items == nil && !m.chats.loading && m.invoker != nil {
			m.chats.loading = true
			return m, loadChatsCmd(m.ctx, m.invoker, m.chats.query)
		}
	}
	return m, nil
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	m.splash.bar = newProgressBar(m.theme)
	m.prefs.Theme = m.theme.Name
	m.savePrefs()
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		logging.Warning("save prefs: %v", err)
	}
}

// handleTick processes the refresh tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}

	if m.page == PageLogs && m.logs.follow {
		if cmd := m.refreshLogs(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	// Schedule next tick
	cmds = append(cmds, tickCmd(m.pollTick))

	return m, tea.Batch(cmds...)
}

// renderMain renders the header, sidebar + page, and command bar.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	content := m.renderPage()
	if m.showSidebar() {
		content = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), content)
	}
	b.WriteString(content)
	b.WriteString("\n")

	b.WriteString(m.renderCommandBar())
	return b.String()
}

// renderPage renders the content area for the current page.
func (m Model) renderPage() string {
	var body string
	switch m.page {
	case PageDashboard:
		body = m.renderDashboard()
	case PageMessages:
		body = m.renderMessages()
	case PageLogs:
		body = m.renderLogs()
	case PageSettings:
		body = m.renderSettings()
	case PageOnboarding:
		body = m.renderOnboarding()
	}
	return lipgloss.NewStyle().
		Width(m.contentWidth()).
		Height(m.bodyHeight()).
		MaxHeight(m.bodyHeight()).
		Padding(0, 1).
		Render(body)
}

func (m Model) showSidebar() bool {
	return m.width >= LayoutCompactWidth && m.page != PageOnboarding
}

func (m Model) contentWidth() int {
	w := m.width
	if m.showSidebar() {
		w -= SidebarWidth
	}
	return maxInt(w, 10)
}

// bodyHeight leaves room for the header and command bar.
func (m Model) bodyHeight() int {
	return maxInt(m.height-2, 3)
}

func (m *Model) resizeViewports() {
	// Inner width excludes the page padding.
	w := maxInt(m.contentWidth()-2, 8)
	m.chats.viewport.Width = maxInt(w-chatListWidth(w)-1, 8)
	m.chats.viewport.Height = maxInt(m.bodyHeight()-4, 1)
	m.logs.viewport.Width = w
	m.logs.viewport.Height = maxInt(m.bodyHeight()-2, 1)
	m.chats.refreshViewport(m.theme)
	m.logs.refreshViewport(m.theme)
}
