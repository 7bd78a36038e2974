// Package logtail reads and parses the launcher's launch logs.
//
// # Reading
//
// Read extracts the last N lines of a file with a ring buffer, so memory stays
// O(N) regardless of file size. The Logs page shows the tail of the current
// launch log and `archiver logs` prints it.
//
//	lines, err := logtail.Read(logging.Path(), 400)
//
// A missing file yields no lines and no error; the log may not exist yet.
//
// # Parsing
//
// Launch log lines look like
//
//	[2024-05-01T09:30:12.345Z] [INFO] [Python] stdout: Uvicorn running
//
// Parse splits out the timestamp, level, optional source tag and message.
// Filter keeps lines at or above a level; lines that do not match the format
// (stray standard-library output, say) are dropped by any level filter.
package logtail
