// Package cli implements the archiver command line.
//
// With no subcommand archiver runs the terminal UI. The other commands are:
//
//	run                   start the backend and the terminal UI
//	serve [--bind addr]   start the backend and expose the IPC bridge over HTTP
//	status                backend status
//	onboarding            first-run setup status
//	chats [--search q]    recent chats
//	messages <guid>       messages of one chat
//	archive <guid>        archive one chat
//	logs [-n N]           tail of the latest launch log
//	version               build information
//
// --config and --prefs apply to every command; --json switches output to JSON.
// Usage errors exit 2, runtime errors exit 1.
package cli
