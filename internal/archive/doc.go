// Package archive provides an HTTP client for the local archiving backend.
//
// # Overview
//
// The backend is a Python service listening on loopback (127.0.0.1:8000 by
// default). The launcher never interprets its payloads: every call returns the
// response body as json.RawMessage so it can be handed to the UI or the IPC
// gateway unchanged. Display code uses the gjson helpers in summaries.go to pick
// out the few fields it renders.
//
// # Endpoints
//
//   - GET  /system/status          health and backend status
//   - GET  /onboarding/status      first-run progress
//   - GET  /chats/recent[?search=] recent chats, optionally filtered
//   - GET  /chats/{guid}/messages  messages of one chat
//   - POST /chats/{guid}/archive   incremental archive in the given format
//
// Chat GUIDs contain characters such as ';' and '+', so they are path-escaped
// into a single segment.
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Set Accept: application/json and User-Agent: archiver/<version>
//   - Carry a fresh X-Request-ID so backend logs can be correlated
//   - Return wrapped errors with context about what failed
//
// Example error messages:
//   - "execute request: dial tcp 127.0.0.1:8000: connect: connection refused"
//   - "api /chats/recent returned status 500"
//   - "decode response: invalid JSON from /system/status"
//
// Status failures are *StatusError values so callers can inspect the code with
// errors.As.
//
// # Design Rationale
//
// No caching and no retries: the IPC bridge promises exactly one backend call
// per invocation, and the dashboard poller owns its own backoff.
package archive
