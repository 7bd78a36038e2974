// Package bridge is the in-process IPC layer between the terminal UI and the launcher.
//
// Three kinds of traffic cross it, each restricted to a fixed allow-list:
//
//   - invoke (request/response): get-messages, get-chats, archive-chat
//   - send (UI to main, fire and forget): toMain
//   - events (main to UI): fromMain, splash-progress
//
// Handlers are validated when they are registered, so a typo in a channel name
// fails at startup rather than on first use. RegisterBackend binds the invoke
// channels to the archive client; each invocation performs exactly one backend
// call with no caching or retry, and backend failures come back as *ProxyError.
//
// Event subscribers receive buffered channels. A subscriber that falls behind
// misses events instead of blocking the emitter.
//
// The gateway package exposes the same bridge over loopback HTTP.
package bridge
