package ui

import (
	"context"
	"encoding/json"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/archiver/internal/archive"
	"github.com/five82/archiver/internal/bridge"
	"github.com/five82/archiver/internal/logtail"
	"github.com/five82/archiver/internal/state"
)

// Messages sent by the launcher into the program.

// ProgressMsg updates the splash screen.
type ProgressMsg struct {
	Message string
	Percent int
}

// ReadyMsg closes the splash and shows the main view.
type ReadyMsg struct {
	Port int
}

// FailedMsg reports a fatal startup error. The program quits after rendering it.
type FailedMsg struct {
	Err error
}

// Internal messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type chatsMsg struct {
	search string
	chats  []archive.ChatSummary
	err    error
}

type messagesMsg struct {
	guid  string
	lines []archive.MessageLine
	err   error
}

type archivedMsg struct {
	guid    string
	summary string
	err     error
}

type onboardingStatusMsg struct {
	state archive.OnboardingState
	err   error
}

type logLinesMsg struct {
	lines []string
	err   error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func invoke(ctx context.Context, inv Invoker, channel string, args ...any) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()
	return inv.Invoke(ctx, channel, args...)
}

func loadChatsCmd(ctx context.Context, inv Invoker, search string) tea.Cmd {
	return func() tea.Msg {
		var args []any
		if search != "" {
			args = append(args, search)
		}
		raw, err := invoke(ctx, inv, bridge.ChannelGetChats, args...)
		if err != nil {
			return chatsMsg{search: search, err: err}
		}
		return chatsMsg{search: search, chats: archive.ChatSummaries(raw)}
	}
}

func loadMessagesCmd(ctx context.Context, inv Invoker, guid string) tea.Cmd {
	return func() tea.Msg {
		raw, err := invoke(ctx, inv, bridge.ChannelGetMessages, guid)
		if err != nil {
			return messagesMsg{guid: guid, err: err}
		}
		return messagesMsg{guid: guid, lines: archive.MessageLines(raw)}
	}
}

func archiveChatCmd(ctx context.Context, inv Invoker, guid, format string) tea.Cmd {
	return func() tea.Msg {
		raw, err := invoke(ctx, inv, bridge.ChannelArchiveChat, guid, format)
		if err != nil {
			return archivedMsg{guid: guid, err: err}
		}
		return archivedMsg{guid: guid, summary: archive.Describe(raw)}
	}
}

func onboardingStatusCmd(ctx context.Context, src OnboardingSource) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()
		raw, err := src.OnboardingStatus(ctx)
		if err != nil {
			return onboardingStatusMsg{err: err}
		}
		return onboardingStatusMsg{state: archive.OnboardingSummary(raw)}
	}
}

func readLogCmd(path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Read(path, LogTailLines)
		return logLinesMsg{lines: lines, err: err}
	}
}
