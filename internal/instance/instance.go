// Package instance enforces a single running launcher per user with a pid file.
package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// AlreadyRunningError is returned by Acquire when another live launcher holds the lock.
type AlreadyRunningError struct {
	PID  int
	Path string
}

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("another instance is already running (pid %d, lock %s)", e.PID, e.Path)
}

// Lock is a held instance lock.
type Lock struct {
	path string
	pid  int
}

// pidAlive is swapped in tests.
var pidAlive = func(pid int) bool {
	alive, err := process.PidExists(int32(pid))
	return err == nil && alive
}

// Acquire takes the lock at path for the current process. A lock file naming a live
// process other than this one yields *AlreadyRunningError; a stale or unreadable lock file
// is replaced.
func Acquire(path string) (*Lock, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("lock path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	self := os.Getpid()
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, werr := f.WriteString(strconv.Itoa(self) + "\n")
			cerr := f.Close()
			if werr != nil || cerr != nil {
				_ = os.Remove(path)
				return nil, fmt.Errorf("write lock: %w", errors.Join(werr, cerr))
			}
			return &Lock{path: path, pid: self}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create lock: %w", err)
		}

		holder, readErr := ReadPID(path)
		if readErr == nil && holder != self && pidAlive(holder) {
			return nil, &AlreadyRunningError{PID: holder, Path: path}
		}
		// Stale: the holder is gone or the file is garbage.
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale lock: %w", err)
		}
	}
	return nil, fmt.Errorf("acquire lock %s: lost race with another instance", path)
}

// ReadPID returns the pid recorded in the lock file at path.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", path)
	}
	return pid, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Release removes the lock file if it still names this process. It is safe to call more
// than once.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	pid, err := ReadPID(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("release lock: %w", err)
	}
	if pid != l.pid {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
