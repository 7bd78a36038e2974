// Package logging provides the per-launch log file for the archiver launcher.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	launchPrefix = "launch_"
	launchSuffix = ".log"
	bannerWidth  = 60
)

// Logger wraps the standard logger with file output
type Logger struct {
	*log.Logger
	file *os.File
	path string
}

var (
	defaultLogger *Logger
	mu            sync.Mutex
	now           = time.Now

	// afterClose receives lines logged once the launch log is closed.
	afterClose io.Writer = os.Stderr
)

// Initialize opens a fresh launch log under logDir and routes the package helpers and the
// standard library logger to it. When console is non-nil every line is mirrored there too.
// It returns the path of the new log file.
func Initialize(logDir string, console io.Writer) (string, error) {
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(logDir, LaunchFileName(now()))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to open log file: %w", err)
	}

	var out io.Writer = file
	if console != nil {
		out = io.MultiWriter(file, console)
	}

	if defaultLogger != nil && defaultLogger.file != nil {
		_ = defaultLogger.file.Close()
	}
	defaultLogger = &Logger{
		Logger: log.New(out, "", 0),
		file:   file,
		path:   logPath,
	}

	// Stray log.Printf calls must not reach a terminal owned by the UI.
	log.SetOutput(out)
	log.SetFlags(log.LstdFlags)

	return logPath, nil
}

// LaunchFileName returns the log file name for a launch at t, e.g.
// launch_2024-05-01T09-30-12-345Z.log.
func LaunchFileName(t time.Time) string {
	stamp := t.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return launchPrefix + stamp + launchSuffix
}

// Latest returns the newest launch log in logDir.
func Latest(logDir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(logDir, launchPrefix+"*"+launchSuffix))
	if err != nil {
		return "", fmt.Errorf("list logs: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no launch logs in %s", logDir)
	}
	// Timestamps in the name sort lexically.
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// Path returns the current launch log path, or "" before Initialize.
func Path() string {
	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		return ""
	}
	return defaultLogger.path
}

// Close closes the log file
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil || defaultLogger.file == nil {
		return nil
	}
	err := defaultLogger.file.Close()
	defaultLogger = nil
	log.SetOutput(afterClose)
	return err
}

// Banner writes a framed block of diagnostic lines.
func Banner(lines ...string) {
	rule := strings.Repeat("=", bannerWidth)
	Info("%s", rule)
	for _, line := range lines {
		Info("%s", line)
	}
	Info("%s", rule)
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	write("INFO", format, v...)
}

// Warning logs a warning message
func Warning(format string, v ...interface{}) {
	write("WARN", format, v...)
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	write("ERROR", format, v...)
}

// Debug logs a debug message when ARCHIVER_DEBUG=true.
func Debug(format string, v ...interface{}) {
	if os.Getenv("ARCHIVER_DEBUG") == "true" {
		write("DEBUG", format, v...)
	}
}

func write(level, format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	line := fmt.Sprintf("[%s] [%s] %s", now().UTC().Format("2006-01-02T15:04:05.000Z"), level, msg)

	// Held across the write so Close cannot close the file under it.
	mu.Lock()
	defer mu.Unlock()
	if defaultLogger != nil {
		defaultLogger.Println(line)
		return
	}
	log.Println(line)
}
