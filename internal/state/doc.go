// Package state holds the dashboard snapshot shared by the poller and the UI.
//
// The poller is the single writer; the UI reads copies on its own refresh tick.
// A failed poll keeps the last good status and chat list and only records the
// error, so the dashboard keeps showing data while the backend restarts. Two
// failures in a row mark the snapshot offline.
//
// Status is the backend's /system/status body, kept as raw JSON. Both it and
// the chat list are copied on the way in and on the way out.
//
// The zero Store is ready to use.
package state
