// Package app wires the archiver launcher together.
//
// Run is the default entry point. It loads configuration and preferences, opens
// the launch log, takes the single-instance lock, registers the IPC handlers and
// starts the Bubble Tea program on its splash screen. A background goroutine then
// drives the WindowManager through one backend start:
//
//	splash → loading (progress on the splash) → ready (main view)
//	splash | loading → failed (error shown, program quits, exit 1)
//
// Once ready, StartPoller refreshes the dashboard state.Store on an interval,
// backing off exponentially while the backend is unreachable.
//
// Serve does the same without a terminal: startup progress goes to the log and
// stdout, and the IPC bridge is exposed through the HTTP gateway until the
// context is cancelled.
//
// Teardown runs in reverse on every exit path: the backend child is signalled,
// the lock is released, telemetry is flushed and the log is closed.
package app
