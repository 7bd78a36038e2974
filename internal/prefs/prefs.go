// Package prefs persists the launcher's per-user UI state (theme, first-run completion)
// as TOML, by default at ~/.config/archiver/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs is the persisted UI state.
type Prefs struct {
	Theme              string `toml:"theme"`
	OnboardingComplete bool   `toml:"onboarding_complete"`
}

const (
	defaultPrefsPath = "~/.config/archiver/prefs.toml"
	defaultTheme     = "Vault"
)

// ErrUnreadable marks a prefs file that exists but could not be used. Load still returns
// defaults alongside it, so callers may warn and carry on.
var ErrUnreadable = errors.New("prefs unreadable")

// Defaults returns the prefs of a first launch.
func Defaults() Prefs {
	return Prefs{Theme: defaultTheme}
}

// DefaultPath returns the default prefs file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads prefs from path. A missing file yields Defaults and no error; a file that
// cannot be read or parsed yields Defaults and an error wrapping ErrUnreadable.
func Load(path string) (Prefs, error) {
	resolved, err := resolve(path)
	if err != nil {
		return Defaults(), fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return Defaults(), nil
	case err != nil:
		return Defaults(), fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	p := Defaults()
	if err := toml.Unmarshal(data, &p); err != nil {
		return Defaults(), fmt.Errorf("%w: %s: %w", ErrUnreadable, resolved, err)
	}
	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = defaultTheme
	}
	return p, nil
}

// Save writes p to path through a temporary file so a crash never leaves a truncated
// prefs file behind.
func Save(path string, p Prefs) error {
	resolved, err := resolve(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), resolved); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

// resolve expands a leading ~ and makes path absolute. Empty means DefaultPath.
func resolve(path string) (string, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		p = defaultPrefsPath
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		p = filepath.Join(home, p[1:])
	}
	return filepath.Abs(p)
}
