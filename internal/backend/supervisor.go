package backend

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/attribute"

	"github.com/five82/archiver/internal/logging"
	"github.com/five82/archiver/internal/telemetry"
)

const (
	defaultPollInterval   = 500 * time.Millisecond
	defaultStartupTimeout = 30 * time.Second
	defaultStopGrace      = 5 * time.Second
	healthRequestTimeout  = 2 * time.Second
	defaultEntryScript    = "backend/src/app.py"
)

var (
	ErrInterpreterNotFound = errors.New("python 3 not found")
	ErrEntryScriptMissing  = errors.New("entry script not found")
	ErrHealthTimeout       = errors.New("backend initialization timed out")
	ErrSpawn               = errors.New("spawn backend")
	ErrBackendExited       = errors.New("backend exited before becoming healthy")
	ErrAlreadyStarted      = errors.New("backend supervisor already started")
)

// Phase is the supervisor's position in the startup sequence.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSearching
	PhaseSpawning
	PhasePolling
	PhaseReady
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSearching:
		return "searching"
	case PhaseSpawning:
		return "spawning"
	case PhasePolling:
		return "polling"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options configure a Supervisor.
type Options struct {
	Candidates     []string // interpreter candidates, tried in order
	Roots          []string // project root candidates, see ResolveRoot
	EntryScript    string   // relative to the project root
	EnvFile        string   // dotenv merged into the child env; default <root>/backend/.env
	HealthURL      string
	Port           int
	PollInterval   time.Duration
	StartupTimeout time.Duration
	StopGrace      time.Duration
}

// Ticker is the subset of time.Ticker the poll loop needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

func newStdTicker(d time.Duration) Ticker { return stdTicker{t: time.NewTicker(d)} }

// Supervisor owns the backend child process from interpreter discovery to shutdown.
type Supervisor struct {
	opts Options

	probe     VersionProbe
	lookPath  func(string) (string, error)
	command   func(name string, args ...string) *exec.Cmd
	newTicker func(time.Duration) Ticker
	signal    func(*os.Process, os.Signal) error
	http      *http.Client

	mu        sync.Mutex
	phase     Phase
	cmd       *exec.Cmd
	exited    chan struct{}
	signalled bool
}

// NewSupervisor builds a Supervisor, filling unset options with defaults.
func NewSupervisor(opts Options) *Supervisor {
	if len(opts.Candidates) == 0 {
		opts.Candidates = DefaultCandidates()
	}
	if len(opts.Roots) == 0 {
		opts.Roots = DefaultRoots()
	}
	if opts.EntryScript == "" {
		opts.EntryScript = filepath.FromSlash(defaultEntryScript)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.StartupTimeout <= 0 {
		opts.StartupTimeout = defaultStartupTimeout
	}
	if opts.StopGrace <= 0 {
		opts.StopGrace = defaultStopGrace
	}
	return &Supervisor{
		opts:      opts,
		probe:     ExecProbe,
		lookPath:  exec.LookPath,
		command:   exec.Command,
		newTicker: newStdTicker,
		signal:    func(p *os.Process, sig os.Signal) error { return p.Signal(sig) },
		http:      &http.Client{Timeout: healthRequestTimeout},
	}
}

// Phase reports the current startup phase.
func (s *Supervisor) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// PID returns the child's pid while it is running, otherwise 0.
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// Start locates an interpreter, spawns the backend and blocks until its health endpoint
// answers 200. It returns the configured port. Any failure is terminal for this attempt.
func (s *Supervisor) Start(ctx context.Context, report ProgressFunc) (port int, err error) {
	if report == nil {
		report = func(Progress) {}
	}

	s.mu.Lock()
	if s.phase != PhaseIdle {
		s.mu.Unlock()
		return 0, ErrAlreadyStarted
	}
	s.phase = PhaseSearching
	s.mu.Unlock()

	ctx, span := telemetry.StartSpan(ctx, "backend.start", attribute.Int("backend.port", s.opts.Port))
	defer func() {
		if err != nil {
			s.setPhase(PhaseFailed)
			logging.Error("[Python] %v", err)
		}
		telemetry.EndSpan(span, err)
	}()

	logging.Info("[Python] Starting backend initialization")
	report(Progress{Message: MsgLocating, Percent: percentLocating})

	python, err := FindInterpreter(ctx, s.opts.Candidates, s.probe, s.lookPath)
	if err != nil {
		return 0, err
	}
	logging.Info("[Python] Found Python at: %s", python)
	report(Progress{Message: MsgFound, Percent: percentFound})

	root := ResolveRoot(s.opts.Roots, s.opts.EntryScript)
	script := filepath.Join(root, s.opts.EntryScript)
	if info, statErr := os.Stat(script); statErr != nil || info.IsDir() {
		return 0, fmt.Errorf("%w at %s", ErrEntryScriptMissing, script)
	}

	s.setPhase(PhaseSpawning)
	report(Progress{Message: MsgSpawning, Percent: percentSpawning})
	if err := s.spawn(python, script, root); err != nil {
		return 0, err
	}

	s.setPhase(PhasePolling)
	if err := s.poll(ctx, report); err != nil {
		return 0, err
	}

	s.setPhase(PhaseReady)
	report(Progress{Message: MsgReady, Percent: percentReady})
	logging.Info("[Python] Backend healthy on port %d", s.opts.Port)
	return s.opts.Port, nil
}

func (s *Supervisor) spawn(python, script, root string) error {
	env := s.environment(root)

	logging.Info("[Python] Spawning backend: %s %s", python, script)
	cmd := s.command(python, script)
	cmd.Dir = root
	cmd.Env = env

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: stdout pipe: %w", ErrSpawn, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("%w: stderr pipe: %w", ErrSpawn, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %w", ErrSpawn, err)
	}

	exited := make(chan struct{})
	s.mu.Lock()
	s.cmd = cmd
	s.exited = exited
	s.mu.Unlock()

	var pipes sync.WaitGroup
	pipes.Add(2)
	go forwardOutput(&pipes, stdout, "stdout")
	go forwardOutput(&pipes, stderr, "stderr")

	go func() {
		// Pipes must be drained before Wait closes them.
		pipes.Wait()
		_ = cmd.Wait()
		code := -1
		if cmd.ProcessState != nil {
			code = cmd.ProcessState.ExitCode()
		}
		logging.Info("[Python] Backend exited with code %d", code)

		s.mu.Lock()
		if s.cmd == cmd {
			s.cmd = nil
		}
		s.mu.Unlock()
		close(exited)
	}()
	return nil
}

// environment returns the parent env, then the dotenv file, then the two fixed variables.
// exec keeps the last value for duplicate keys.
func (s *Supervisor) environment(root string) []string {
	env := os.Environ()

	envFile := s.opts.EnvFile
	if envFile == "" {
		envFile = filepath.Join(root, "backend", ".env")
	}
	vars, err := godotenv.Read(envFile)
	switch {
	case err == nil:
		keys := make([]string, 0, len(vars))
		for k := range vars {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			env = append(env, k+"="+vars[k])
		}
		logging.Info("[Python] Loaded %d variables from %s", len(keys), envFile)
	case errors.Is(err, os.ErrNotExist):
		// optional
	default:
		logging.Warning("[Python] Ignoring env file %s: %v", envFile, err)
	}

	return append(env, "PYTHONUNBUFFERED=1", "PYTHONPATH="+root)
}

func (s *Supervisor) poll(ctx context.Context, report ProgressFunc) error {
	ticker := s.newTicker(s.opts.PollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(s.opts.StartupTimeout)
	defer deadline.Stop()

	s.mu.Lock()
	exited := s.exited
	s.mu.Unlock()

	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrHealthTimeout
		case <-exited:
			return ErrBackendExited
		case <-ticker.C():
			attempts++
			report(Progress{Message: MsgInitializing, Percent: pollPercent(attempts)})
			if s.healthy(ctx) {
				return nil
			}
		}
	}
}

func (s *Supervisor) healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.opts.HealthURL, nil)
	if err != nil {
		return false
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// Stop sends the termination signal to a running child exactly once, then kills it if it
// has not exited within the grace period. It is a no-op when no child is running.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	cmd, exited := s.cmd, s.exited
	if cmd == nil || cmd.Process == nil || s.signalled {
		s.mu.Unlock()
		return nil
	}
	s.signalled = true
	s.mu.Unlock()

	logging.Info("[Python] Killing backend process %d...", cmd.Process.Pid)
	if err := s.signal(cmd.Process, syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		return fmt.Errorf("signal backend: %w", err)
	}

	grace := time.NewTimer(s.opts.StopGrace)
	defer grace.Stop()
	select {
	case <-exited:
		return nil
	case <-grace.C:
	}

	logging.Warning("[Python] Backend ignored SIGTERM for %s, killing", s.opts.StopGrace)
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill backend: %w", err)
	}
	<-exited
	return nil
}

func (s *Supervisor) setPhase(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

func forwardOutput(wg *sync.WaitGroup, r io.Reader, stream string) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		logging.Info("[Python] %s: %s", stream, scanner.Text())
	}
	// Keep draining after an oversized line so the child never blocks on a full pipe.
	_, _ = io.Copy(io.Discard, r)
}
