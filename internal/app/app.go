package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/five82/archiver/internal/archive"
	"github.com/five82/archiver/internal/backend"
	"github.com/five82/archiver/internal/bridge"
	"github.com/five82/archiver/internal/config"
	"github.com/five82/archiver/internal/gateway"
	"github.com/five82/archiver/internal/instance"
	"github.com/five82/archiver/internal/logging"
	"github.com/five82/archiver/internal/prefs"
	"github.com/five82/archiver/internal/state"
	"github.com/five82/archiver/internal/telemetry"
	"github.com/five82/archiver/internal/ui"
	"github.com/five82/archiver/internal/version"
)

// Options configure the archiver launcher.
type Options struct {
	ConfigPath  string
	PrefsPath   string        // empty uses default ~/.config/archiver/prefs.toml
	PollEvery   time.Duration // dashboard poll interval; zero uses default
	GatewayBind string        // serve mode only; empty uses the configured gateway_bind
}

// runtime holds everything a launch owns, in the order it is torn down.
type runtime struct {
	cfg        config.Config
	prefs      prefs.Prefs
	prefsPath  string
	logPath    string
	lock       *instance.Lock
	client     *archive.Client
	bridge     *bridge.Bridge
	supervisor *backend.Supervisor

	shutdownTelemetry func(context.Context) error
}

// Run boots the terminal UI, starts the backend behind the splash screen and blocks
// until the user quits. A startup failure is returned after the UI has shown it.
func Run(ctx context.Context, opts Options) error {
	rt, err := setup(ctx, opts, nil)
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := &state.Store{}
	model := ui.New(ui.Options{
		Context:    ctx,
		Invoker:    rt.bridge,
		Onboarding: rt.client,
		Store:      store,
		Config:     &rt.cfg,
		Prefs:      rt.prefs,
		PrefsPath:  rt.prefsPath,
		LogPath:    rt.logPath,
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	wm := NewWindowManager(programPresenter{program: program, bridge: rt.bridge})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := launch(ctx, wm, rt.supervisor.Start); err != nil {
			return
		}
		StartPoller(ctx, store, rt.client, opts.PollEvery)
	}()

	final, runErr := program.Run()
	cancel()
	wg.Wait()

	if errors.Is(runErr, tea.ErrProgramKilled) && ctx.Err() != nil {
		runErr = nil // interrupted by signal
	}
	if runErr != nil {
		return fmt.Errorf("run ui: %w", runErr)
	}
	if m, ok := final.(ui.Model); ok && m.Failed() != nil {
		return m.Failed()
	}
	return nil
}

// Serve runs the launcher without a terminal UI: it starts the backend and exposes the
// IPC bridge over the HTTP gateway until ctx is cancelled.
func Serve(ctx context.Context, opts Options) error {
	rt, err := setup(ctx, opts, os.Stdout)
	if err != nil {
		return err
	}
	defer rt.close()

	bind := opts.GatewayBind
	if bind == "" {
		bind = rt.cfg.GatewayBind
	}

	wm := NewWindowManager(logPresenter{bridge: rt.bridge})
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return gateway.New(rt.bridge).ListenAndServe(ctx, bind)
	})
	g.Go(func() error {
		_, err := launch(ctx, wm, rt.supervisor.Start)
		if err != nil && ctx.Err() != nil {
			return nil // shutting down
		}
		return err
	})
	return g.Wait()
}

// launch drives the window manager through one backend start.
func launch(ctx context.Context, wm *WindowManager, start func(context.Context, backend.ProgressFunc) (int, error)) (int, error) {
	if err := wm.Begin(); err != nil {
		return 0, err
	}
	port, err := start(ctx, func(p backend.Progress) {
		if err := wm.Progress(p); err != nil {
			logging.Debug("[Startup] dropped progress %q: %v", p.Message, err)
		}
	})
	if err != nil {
		if failErr := wm.Fail(err); failErr != nil {
			logging.Warning("[Startup] %v", failErr)
		}
		return 0, err
	}
	if err := wm.Ready(port); err != nil {
		return 0, err
	}
	return port, nil
}

// setup loads configuration and builds the launch runtime. console mirrors the log when
// non-nil; the terminal UI owns stdout so Run passes nil.
func setup(ctx context.Context, opts Options, console io.Writer) (*runtime, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	// Unreadable prefs fall back to defaults; warned about once the log is open.
	userPrefs, prefsErr := prefs.Load(prefsPath)

	logPath, err := logging.Initialize(cfg.LogDir, console)
	if err != nil {
		return nil, err
	}
	info := version.Get()
	logging.Banner(
		"Archiver launching",
		"Version: "+info.Version+" ("+info.Commit+")",
		"Go: "+info.GoVersion,
		"Platform: "+info.Platform,
		fmt.Sprintf("PID: %d", os.Getpid()),
		"Log file: "+logPath,
	)
	if prefsErr != nil {
		logging.Warning("[Startup] using default preferences: %v", prefsErr)
	}

	rt := &runtime{
		cfg:       cfg,
		prefs:     userPrefs,
		prefsPath: prefsPath,
		logPath:   logPath,
	}

	lock, err := instance.Acquire(cfg.LockFile)
	if err != nil {
		logging.Error("[Startup] %v", err)
		rt.close()
		return nil, err
	}
	rt.lock = lock

	rt.shutdownTelemetry, err = telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    "archiver",
		ServiceVersion: info.Version,
		Endpoint:       cfg.TelemetryEndpoint,
	})
	if err != nil {
		logging.Warning("[Startup] telemetry disabled: %v", err)
		rt.shutdownTelemetry = nil
	}

	rt.client, err = archive.NewClient(cfg.BackendAddr)
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("init backend client: %w", err)
	}

	rt.bridge = bridge.New()
	if err := bridge.RegisterBackend(rt.bridge, rt.client); err != nil {
		rt.close()
		return nil, fmt.Errorf("register ipc handlers: %w", err)
	}
	if err := rt.bridge.OnMessage(bridge.ChannelToMain, func(payload json.RawMessage) {
		logging.Info("[IPC] toMain: %s", payload)
	}); err != nil {
		rt.close()
		return nil, err
	}

	var roots []string
	if cfg.ProjectRoot != "" {
		roots = []string{cfg.ProjectRoot}
	}
	envFile := cfg.EnvFile
	if envFile != "" && !filepath.IsAbs(envFile) && cfg.ProjectRoot != "" {
		envFile = filepath.Join(cfg.ProjectRoot, envFile)
	}
	rt.supervisor = backend.NewSupervisor(backend.Options{
		Candidates:     cfg.PythonCandidates,
		Roots:          roots,
		EntryScript:    cfg.EntryScript,
		EnvFile:        envFile,
		HealthURL:      cfg.HealthURL(),
		Port:           cfg.BackendPort(),
		PollInterval:   cfg.PollInterval,
		StartupTimeout: cfg.StartupTimeout,
	})

	return rt, nil
}

// close stops the backend and releases everything setup acquired. Safe on a partially
// built runtime.
func (r *runtime) close() {
	if r.supervisor != nil {
		if err := r.supervisor.Stop(); err != nil {
			logging.Warning("[Shutdown] stop backend: %v", err)
		}
	}
	if r.lock != nil {
		if err := r.lock.Release(); err != nil {
			logging.Warning("[Shutdown] release lock: %v", err)
		}
	}
	if r.shutdownTelemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.shutdownTelemetry(ctx); err != nil {
			logging.Warning("[Shutdown] telemetry: %v", err)
		}
		cancel()
	}
	logging.Info("[Shutdown] Archiver exiting")
	_ = logging.Close()
}
