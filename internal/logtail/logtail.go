package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

// Read returns at most maxLines from the end of the file at path. A maxLines of zero or
// less returns the whole file. A missing file yields no lines and no error.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var all []string
		for scanner.Scan() {
			all = append(all, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return all, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Level is the severity of a launch log line.
type Level int

const (
	LevelUnknown Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return ""
	}
}

// ParseLevel maps a level name (case-insensitive, WARNING accepted) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ALL":
		return LevelUnknown, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	}
	return LevelUnknown, fmt.Errorf("unknown log level %q", s)
}

// Entry is one parsed launch log line.
type Entry struct {
	Raw     string
	Time    time.Time
	Level   Level
	Source  string // bracketed tag such as "Python" or "IPC", if any
	Message string
}

// "[2024-05-01T09:30:12.345Z] [INFO] [Python] stdout: ready"
var linePattern = regexp.MustCompile(`^\[([0-9T:.\-]+Z)\] \[([A-Z]+)\] (.*)$`)

var sourcePattern = regexp.MustCompile(`^\[([A-Za-z]+)\] ?(.*)$`)

// Parse splits a launch log line into its parts. Lines in any other format come back
// with only Raw and Message set.
func Parse(line string) Entry {
	e := Entry{Raw: line, Message: line}
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return e
	}
	if t, err := time.Parse("2006-01-02T15:04:05.000Z", m[1]); err == nil {
		e.Time = t
	}
	e.Level, _ = ParseLevel(m[2])
	e.Message = m[3]
	if s := sourcePattern.FindStringSubmatch(e.Message); s != nil {
		e.Source = s[1]
		e.Message = s[2]
	}
	return e
}

// Filter keeps the lines at or above min. Lines without a level are kept only when min
// is LevelUnknown.
func Filter(lines []string, min Level) []string {
	if min == LevelUnknown {
		return lines
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if Parse(line).Level >= min {
			out = append(out, line)
		}
	}
	return out
}
