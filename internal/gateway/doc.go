// Package gateway serves the IPC bridge over loopback HTTP so a UI running in
// another process can use the same channels as the built-in terminal UI.
//
// Routes:
//
//	POST /ipc/invoke/:channel  JSON array of arguments; 200 with the backend body,
//	                           403 for channels outside the allow-list, 400 for bad
//	                           arguments, 502 when the backend call fails
//	POST /ipc/send/:channel    JSON payload for a UI-to-main channel; 202
//	GET  /ipc/events/:channel  server-sent events from a main-to-UI channel
//	GET  /healthz              liveness and the invoke channel list
//
// Every response carries an X-Request-ID header, echoed from the request when
// present.
package gateway
