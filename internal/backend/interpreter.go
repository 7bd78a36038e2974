package backend

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/five82/archiver/internal/logging"
)

const probeTimeout = 5 * time.Second

// VersionProbe runs "<interpreter> --version" and returns its combined output.
type VersionProbe func(ctx context.Context, interpreter string) (string, error)

var versionPattern = regexp.MustCompile(`Python\s+(\d+)\.\d+`)

// ExecProbe is the VersionProbe used outside tests.
func ExecProbe(ctx context.Context, interpreter string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	// Python 2 prints its version on stderr, so both streams are captured.
	out, err := exec.CommandContext(ctx, interpreter, "--version").CombinedOutput()
	return string(out), err
}

// MajorVersion extracts the major version from "Python X.Y.Z" output, or 0.
func MajorVersion(output string) int {
	m := versionPattern.FindStringSubmatch(output)
	if len(m) < 2 {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// FindInterpreter returns the first candidate whose --version reports Python 3. When none
// qualifies, python3 is looked up on PATH and probed the same way.
func FindInterpreter(ctx context.Context, candidates []string, probe VersionProbe, lookPath func(string) (string, error)) (string, error) {
	if probe == nil {
		probe = ExecProbe
	}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if isPython3(ctx, probe, candidate) {
			return candidate, nil
		}
	}
	if lookPath != nil {
		if path, err := lookPath("python3"); err == nil && path != "" && isPython3(ctx, probe, path) {
			return path, nil
		}
	}
	return "", ErrInterpreterNotFound
}

func isPython3(ctx context.Context, probe VersionProbe, interpreter string) bool {
	out, err := probe(ctx, interpreter)
	if err != nil {
		logging.Debug("[Python] probe %s failed: %v", interpreter, err)
		return false
	}
	return MajorVersion(out) == 3
}

// DefaultCandidates lists interpreter locations in the order they are tried.
func DefaultCandidates() []string {
	var out []string
	if dir, err := os.UserConfigDir(); err == nil {
		out = append(out, filepath.Join(dir, "Archiver", ".venv", "bin", "python3"))
	}
	return append(out,
		"python3",
		"/usr/bin/python3",
		"/usr/local/bin/python3",
		"/opt/homebrew/bin/python3",
		"python",
	)
}

// DefaultRoots lists directories searched for the entry script: the working directory
// (development checkouts), the executable's directory and its macOS bundle Resources.
func DefaultRoots() []string {
	var out []string
	if wd, err := os.Getwd(); err == nil {
		out = append(out, wd)
	}
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		out = append(out, dir, filepath.Join(dir, "..", "Resources"), filepath.Dir(dir))
	}
	return out
}

// ResolveRoot returns the first root containing script. When none does, the first non-empty
// root is returned so the caller can report where the script was expected.
func ResolveRoot(roots []string, script string) string {
	first := ""
	for _, root := range roots {
		if root == "" {
			continue
		}
		if first == "" {
			first = root
		}
		if info, err := os.Stat(filepath.Join(root, script)); err == nil && !info.IsDir() {
			return filepath.Clean(root)
		}
	}
	if first == "" {
		return "."
	}
	return filepath.Clean(first)
}
