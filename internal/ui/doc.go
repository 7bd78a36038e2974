// Package ui implements the archiver terminal interface with Bubble Tea.
//
// # Screens
//
// The model starts on the splash screen (spinner, progress bar, status message).
// The launcher drives it from outside the event loop with Program.Send:
//
//   - ProgressMsg updates the splash; percentages never go backwards.
//   - ReadyMsg switches to the main view once the backend answers its health check.
//   - FailedMsg renders the startup error and quits.
//
// # Main view
//
// The main view is a header, a sidebar and one page:
//
//   - Dashboard: backend state and recent chats from the poller's state.Store
//   - Messages: chat list, search, conversation viewport and archiving, all over
//     the IPC bridge (get-chats, get-messages, archive-chat)
//   - Logs: tail of the launch log, optionally following
//   - Settings: effective configuration and theme
//
// On first run an onboarding page replaces the sidebar until the user steps
// through it or the backend reports that setup is already complete. Completion
// and the selected theme persist through internal/prefs.
//
// # State
//
// All page state lives on Model and is only touched from Update. Requests run as
// tea.Cmds and come back as messages; results for a search or chat that is no
// longer current are dropped. IPC failures show a generic failure line and the
// details go to the launch log.
package ui
