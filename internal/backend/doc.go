// Package backend supervises the Python archiving backend.
//
// A Supervisor walks a fixed sequence: it searches the interpreter candidates for one
// reporting Python 3, checks that the entry script exists under the project root, spawns
// the script with PYTHONUNBUFFERED=1 and PYTHONPATH=<root>, and polls the health endpoint
// until it answers 200. Progress is reported at 10, 25 and 40 percent for the first three
// steps, then 2 percent per poll up to 90, and 100 once healthy.
//
// Failures are terminal for the attempt and are reported as one of the sentinel errors
// (ErrInterpreterNotFound, ErrEntryScriptMissing, ErrSpawn, ErrBackendExited,
// ErrHealthTimeout). Stop sends SIGTERM to a running child once and kills it after a grace
// period. Child stdout and stderr are copied into the launch log line by line.
package backend
