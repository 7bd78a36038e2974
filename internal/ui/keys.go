package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding
	Escape     key.Binding

	// Page switching
	ViewDashboard key.Binding
	ViewMessages  key.Binding
	ViewLogs      key.Binding
	ViewSettings  key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Messages actions
	Search  key.Binding
	Open    key.Binding
	Archive key.Binding
	Refresh key.Binding

	// Logs actions
	ToggleFollow key.Binding

	// Onboarding
	Next key.Binding
	Back key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		// Global
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "e"),
			key.WithHelp("e", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next page"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous page"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Cancel / back"),
		),

		// Page switching
		ViewDashboard: key.NewBinding(
			key.WithKeys("1", "d"),
			key.WithHelp("1/d", "Dashboard"),
		),
		ViewMessages: key.NewBinding(
			key.WithKeys("2", "m"),
			key.WithHelp("2/m", "Messages"),
		),
		ViewLogs: key.NewBinding(
			key.WithKeys("3", "l"),
			key.WithHelp("3/l", "Logs"),
		),
		ViewSettings: key.NewBinding(
			key.WithKeys("4", "s"),
			key.WithHelp("4/s", "Settings"),
		),

		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),

		// Messages actions
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search chats"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Load messages"),
		),
		Archive: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Archive chat"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh"),
		),

		// Logs actions
		ToggleFollow: key.NewBinding(
			key.WithKeys(" ", "f"),
			key.WithHelp("space/f", "Toggle follow"),
		),

		// Onboarding
		Next: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Continue"),
		),
		Back: key.NewBinding(
			key.WithKeys("backspace"),
			key.WithHelp("backspace", "Back"),
		),
	}
}
