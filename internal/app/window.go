package app

import (
	"errors"
	"fmt"
	"sync"

	"github.com/five82/archiver/internal/backend"
)

// WindowPhase is the visible state of the launcher.
type WindowPhase int

const (
	PhaseSplash  WindowPhase = iota // splash shown, startup not begun
	PhaseLoading                    // backend starting, progress on the splash
	PhaseReady                      // splash closed, main view shown
	PhaseFailed                     // startup failed, launcher exiting
)

func (p WindowPhase) String() string {
	switch p {
	case PhaseSplash:
		return "splash"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("WindowPhase(%d)", int(p))
	}
}

// ErrInvalidTransition is returned when a window transition is attempted out of order.
var ErrInvalidTransition = errors.New("invalid window transition")

// Presenter renders window state. The terminal UI implements it through the Bubble Tea
// program; tests record the calls.
type Presenter interface {
	ShowProgress(p backend.Progress)
	ShowMain(port int)
	ShowFailure(err error)
}

// WindowManager keeps the main view hidden until the backend is healthy. Only
// splash→loading, loading→ready and splash|loading→failed are accepted.
type WindowManager struct {
	mu        sync.Mutex
	phase     WindowPhase
	presenter Presenter
	port      int
	lastPct   int
}

// NewWindowManager returns a manager in the splash phase.
func NewWindowManager(p Presenter) *WindowManager {
	return &WindowManager{presenter: p, phase: PhaseSplash}
}

// Phase returns the current phase.
func (w *WindowManager) Phase() WindowPhase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

// Port returns the backend port once ready.
func (w *WindowManager) Port() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.port
}

// Begin moves from splash to loading.
func (w *WindowManager) Begin() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.phase != PhaseSplash {
		return w.invalid(PhaseLoading)
	}
	w.phase = PhaseLoading
	return nil
}

// Progress forwards a progress event to the splash. Events outside the loading phase and
// events whose percentage would move backwards are rejected.
func (w *WindowManager) Progress(p backend.Progress) error {
	w.mu.Lock()
	if w.phase != PhaseLoading {
		defer w.mu.Unlock()
		return fmt.Errorf("progress in %s phase: %w", w.phase, ErrInvalidTransition)
	}
	if p.Percent < w.lastPct {
		defer w.mu.Unlock()
		return fmt.Errorf("progress %d after %d: %w", p.Percent, w.lastPct, ErrInvalidTransition)
	}
	w.lastPct = p.Percent
	w.mu.Unlock()

	w.presenter.ShowProgress(p)
	return nil
}

// Ready closes the splash and shows the main view.
func (w *WindowManager) Ready(port int) error {
	w.mu.Lock()
	if w.phase != PhaseLoading {
		defer w.mu.Unlock()
		return w.invalid(PhaseReady)
	}
	w.phase = PhaseReady
	w.port = port
	w.mu.Unlock()

	w.presenter.ShowMain(port)
	return nil
}

// Fail records a startup failure. The main view is never shown afterwards.
func (w *WindowManager) Fail(err error) error {
	w.mu.Lock()
	if w.phase != PhaseSplash && w.phase != PhaseLoading {
		defer w.mu.Unlock()
		return w.invalid(PhaseFailed)
	}
	w.phase = PhaseFailed
	w.mu.Unlock()

	w.presenter.ShowFailure(err)
	return nil
}

func (w *WindowManager) invalid(to WindowPhase) error {
	return fmt.Errorf("%s -> %s: %w", w.phase, to, ErrInvalidTransition)
}
