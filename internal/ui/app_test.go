package ui

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/archiver/internal/bridge"
	"github.com/five82/archiver/internal/prefs"
)

type invocation struct {
	channel string
	args    []any
}

type fakeInvoker struct {
	mu       sync.Mutex
	calls    []invocation
	response map[string]string
	err      error
}

func (f *fakeInvoker) Invoke(_ context.Context, channel string, args ...any) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, invocation{channel: channel, args: args})
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.response[channel]), nil
}

type fakeOnboarding struct {
	raw string
	err error
}

func (f fakeOnboarding) OnboardingStatus(context.Context) (json.RawMessage, error) {
	return json.RawMessage(f.raw), f.err
}

func newTestModel(t *testing.T, opts Options) Model {
	t.Helper()
	if opts.PrefsPath == "" {
		opts.PrefsPath = filepath.Join(t.TempDir(), "prefs.toml")
	}
	if opts.PollTick == 0 {
		opts.PollTick = time.Millisecond
	}
	m := New(opts)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// runCmd executes cmd and any batched commands, returning the produced messages.
// Tick commands are skipped.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	if _, ok := msg.(tickMsg); ok {
		return nil
	}
	return []tea.Msg{msg}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestSplash_ProgressNeverDecreases(t *testing.T) {
	m := newTestModel(t, Options{})
	m, _ = update(t, m, ProgressMsg{Message: "Finding Python...", Percent: 30})
	m, _ = update(t, m, ProgressMsg{Message: "Waiting for backend...", Percent: 20})
	if m.splash.percent != 30 {
		t.Fatalf("percent = %d, want 30", m.splash.percent)
	}
	if m.splash.message != "Waiting for backend..." {
		t.Fatalf("message = %q", m.splash.message)
	}
	m, _ = update(t, m, ProgressMsg{Percent: 150})
	if m.splash.percent != 100 {
		t.Fatalf("percent = %d, want capped 100", m.splash.percent)
	}
	if !strings.Contains(m.View(), "Waiting for backend...") {
		t.Fatalf("splash view missing message")
	}
}

func TestSplash_KeysOtherThanQuitIgnored(t *testing.T) {
	m := newTestModel(t, Options{})
	m, cmd := update(t, m, keyMsg("2"))
	if cmd != nil || m.Ready() {
		t.Fatalf("page key on splash had an effect")
	}
	if _, cmd := update(t, m, keyMsg("ctrl+c")); !isQuit(cmd) {
		t.Fatalf("ctrl+c on splash did not quit")
	}
}

func TestFailedMsg_ShowsErrorUntilKeyPressed(t *testing.T) {
	m := newTestModel(t, Options{LogPath: "/tmp/archiver/launch.log"})
	boom := errors.New("no Python 3 interpreter found")
	m, cmd := update(t, m, FailedMsg{Err: boom})
	if isQuit(cmd) {
		t.Fatalf("FailedMsg quit before the error was shown")
	}
	if !errors.Is(m.Failed(), boom) {
		t.Fatalf("Failed() = %v", m.Failed())
	}
	view := m.View()
	for _, want := range []string{"no Python 3 interpreter found", "launch.log", "Press any key to exit."} {
		if !strings.Contains(view, want) {
			t.Fatalf("failure view missing %q:\n%s", want, view)
		}
	}

	// A second failure does not replace the first.
	m, _ = update(t, m, FailedMsg{Err: errors.New("later")})
	if !errors.Is(m.Failed(), boom) {
		t.Fatalf("Failed() = %v after second FailedMsg", m.Failed())
	}

	m, cmd = update(t, m, keyMsg("x"))
	if !isQuit(cmd) {
		t.Fatalf("key on failure screen did not quit")
	}
	if !errors.Is(m.Failed(), boom) {
		t.Fatalf("Failed() = %v after quitting", m.Failed())
	}
}

func TestReady_CompletedOnboardingShowsDashboard(t *testing.T) {
	inv := &fakeInvoker{response: map[string]string{
		bridge.ChannelGetChats: `[{"guid":"c1","display_name":"Mom"}]`,
	}}
	m := newTestModel(t, Options{Invoker: inv, Prefs: prefs.Prefs{OnboardingComplete: true}})

	m, cmd := update(t, m, ReadyMsg{Port: 8000})
	if !m.Ready() || m.CurrentPage() != PageDashboard {
		t.Fatalf("ready=%v page=%v", m.Ready(), m.CurrentPage())
	}
	for _, msg := range runCmd(cmd) {
		m, _ = update(t, m, msg)
	}
	if len(m.chats.items) != 1 || m.chats.items[0].Name != "Mom" {
		t.Fatalf("chats = %#v", m.chats.items)
	}
	if !strings.Contains(m.View(), "Dashboard") {
		t.Fatalf("main view missing dashboard")
	}
}

func TestReady_IgnoredAfterFailure(t *testing.T) {
	m := newTestModel(t, Options{})
	m, _ = update(t, m, FailedMsg{Err: errors.New("boom")})
	m, _ = update(t, m, ReadyMsg{Port: 8000})
	if m.Ready() {
		t.Fatalf("ReadyMsg after failure switched to main view")
	}
}

func TestOnboarding_ShownWhenBackendReportsIncomplete(t *testing.T) {
	m := newTestModel(t, Options{Onboarding: fakeOnboarding{raw: `{"completed":false}`}})
	m, cmd := update(t, m, ReadyMsg{Port: 8000})
	if !m.onboarding.checking {
		t.Fatalf("status check not started")
	}
	for _, msg := range runCmd(cmd) {
		m, _ = update(t, m, msg)
	}
	if m.CurrentPage() != PageOnboarding {
		t.Fatalf("page = %v, want onboarding", m.CurrentPage())
	}
}

func TestOnboarding_SkippedWhenBackendReportsComplete(t *testing.T) {
	prefsPath := filepath.Join(t.TempDir(), "prefs.toml")
	m := newTestModel(t, Options{
		PrefsPath:  prefsPath,
		Onboarding: fakeOnboarding{raw: `{"completed":true}`},
	})
	m, cmd := update(t, m, ReadyMsg{Port: 8000})
	for _, msg := range runCmd(cmd) {
		m, _ = update(t, m, msg)
	}
	if m.CurrentPage() != PageDashboard {
		t.Fatalf("page = %v, want dashboard", m.CurrentPage())
	}
	saved, err := prefs.Load(prefsPath)
	if err != nil || !saved.OnboardingComplete {
		t.Fatalf("prefs = %#v, %v; want completion persisted", saved, err)
	}
}

func TestOnboarding_StatusErrorFallsBackToOnboarding(t *testing.T) {
	m := newTestModel(t, Options{Onboarding: fakeOnboarding{err: errors.New("refused")}})
	m, cmd := update(t, m, ReadyMsg{Port: 8000})
	for _, msg := range runCmd(cmd) {
		m, _ = update(t, m, msg)
	}
	if m.CurrentPage() != PageOnboarding {
		t.Fatalf("page = %v, want onboarding", m.CurrentPage())
	}
}

func TestOnboarding_StepsForwardBackAndComplete(t *testing.T) {
	prefsPath := filepath.Join(t.TempDir(), "prefs.toml")
	m := newTestModel(t, Options{PrefsPath: prefsPath})
	m, _ = update(t, m, ReadyMsg{Port: 8000})
	if m.CurrentPage() != PageOnboarding {
		t.Fatalf("page = %v, want onboarding without a status source", m.CurrentPage())
	}

	m, _ = update(t, m, keyMsg("backspace"))
	if m.onboarding.step != 0 {
		t.Fatalf("back on first step moved to %d", m.onboarding.step)
	}
	m, _ = update(t, m, keyMsg("enter"))
	m, _ = update(t, m, keyMsg("enter"))
	if m.onboarding.step != 2 {
		t.Fatalf("step = %d, want 2", m.onboarding.step)
	}
	if !strings.Contains(m.View(), "Ready to Index") {
		t.Fatalf("last step not rendered")
	}
	m, _ = update(t, m, keyMsg("backspace"))
	if m.onboarding.step != 1 {
		t.Fatalf("step after back = %d, want 1", m.onboarding.step)
	}
	// Page keys do nothing during onboarding.
	m, _ = update(t, m, keyMsg("3"))
	if m.CurrentPage() != PageOnboarding {
		t.Fatalf("page key left onboarding")
	}

	m, _ = update(t, m, keyMsg("enter"))
	m, _ = update(t, m, keyMsg("enter"))
	if m.CurrentPage() != PageDashboard {
		t.Fatalf("page = %v after completing, want dashboard", m.CurrentPage())
	}
	saved, err := prefs.Load(prefsPath)
	if err != nil || !saved.OnboardingComplete {
		t.Fatalf("prefs = %#v, %v; want completion persisted", saved, err)
	}
}

func readyModel(t *testing.T, inv Invoker) Model {
	t.Helper()
	m := newTestModel(t, Options{Invoker: inv, Prefs: prefs.Prefs{OnboardingComplete: true}})
	m, cmd := update(t, m, ReadyMsg{Port: 8000})
	for _, msg := range runCmd(cmd) {
		m, _ = update(t, m, msg)
	}
	return m
}

func TestPageSwitching(t *testing.T) {
	m := readyModel(t, nil)
	steps := []struct {
		key  string
		want Page
	}{
		{"2", PageMessages},
		{"l", PageLogs},
		{"s", PageSettings},
		{"d", PageDashboard},
		{"tab", PageMessages},
	}
	for _, step := range steps {
		m, _ = update(t, m, keyMsg(step.key))
		if m.CurrentPage() != step.want {
			t.Fatalf("after %q page = %v, want %v", step.key, m.CurrentPage(), step.want)
		}
	}
	if _, cmd := update(t, m, keyMsg("e")); !isQuit(cmd) {
		t.Fatalf("e did not quit")
	}
}

func TestHelpOverlay_AnyKeyCloses(t *testing.T) {
	m := readyModel(t, nil)
	m, _ = update(t, m, keyMsg("?"))
	if !m.showHelp || !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Fatalf("help overlay not shown")
	}
	m, _ = update(t, m, keyMsg("2"))
	if m.showHelp || m.CurrentPage() != PageDashboard {
		t.Fatalf("closing key also acted: help=%v page=%v", m.showHelp, m.CurrentPage())
	}
}

func TestCycleTheme_Persists(t *testing.T) {
	prefsPath := filepath.Join(t.TempDir(), "prefs.toml")
	m := newTestModel(t, Options{PrefsPath: prefsPath, Prefs: prefs.Prefs{Theme: "Vault", OnboardingComplete: true}})
	m, _ = update(t, m, ReadyMsg{Port: 8000})
	m, _ = update(t, m, keyMsg("T"))
	if m.theme.Name != "Daylight" {
		t.Fatalf("theme = %q, want Daylight", m.theme.Name)
	}
	saved, err := prefs.Load(prefsPath)
	if err != nil || saved.Theme != "Daylight" {
		t.Fatalf("prefs = %#v, %v", saved, err)
	}
}
