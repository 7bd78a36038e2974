package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/archiver/internal/backend"
	"github.com/five82/archiver/internal/bridge"
	"github.com/five82/archiver/internal/prefs"
	"github.com/five82/archiver/internal/ui"
)

func TestLaunch_ForwardsProgressThenReady(t *testing.T) {
	rec := &recordingPresenter{}
	wm := NewWindowManager(rec)

	start := func(_ context.Context, report backend.ProgressFunc) (int, error) {
		report(backend.Progress{Message: "Finding Python...", Percent: 10})
		report(backend.Progress{Message: "Waiting...", Percent: 50})
		report(backend.Progress{Message: "stale", Percent: 40})
		report(backend.Progress{Message: "Ready!", Percent: 100})
		return 8000, nil
	}

	port, err := launch(context.Background(), wm, start)
	if err != nil || port != 8000 {
		t.Fatalf("launch = %d, %v", port, err)
	}
	if wm.Phase() != PhaseReady || rec.shown != 1 {
		t.Fatalf("phase=%v shown=%d", wm.Phase(), rec.shown)
	}
	want := []int{10, 50, 100}
	if len(rec.progress) != len(want) {
		t.Fatalf("progress = %v, want %v", rec.progress, want)
	}
	for i := range want {
		if rec.progress[i] != want[i] {
			t.Fatalf("progress = %v, want %v", rec.progress, want)
		}
	}
}

func TestLaunch_FailureShowsFailureOnly(t *testing.T) {
	rec := &recordingPresenter{}
	wm := NewWindowManager(rec)

	_, err := launch(context.Background(), wm, func(context.Context, backend.ProgressFunc) (int, error) {
		return 0, backend.ErrHealthTimeout
	})
	if !errors.Is(err, backend.ErrHealthTimeout) {
		t.Fatalf("launch error = %v", err)
	}
	if wm.Phase() != PhaseFailed || rec.shown != 0 || len(rec.failures) != 1 {
		t.Fatalf("phase=%v shown=%d failures=%d", wm.Phase(), rec.shown, len(rec.failures))
	}
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func TestProgramPresenter_SendsMessagesAndEmitsProgress(t *testing.T) {
	b := bridge.New()
	events, cancel, err := b.Subscribe(bridge.ChannelSplashProgress)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	snd := &recordingSender{}
	p := programPresenter{program: snd, bridge: b}
	p.ShowProgress(backend.Progress{Message: "Ready!", Percent: 100})
	p.ShowMain(8000)
	p.ShowFailure(errors.New("boom"))

	if len(snd.msgs) != 3 {
		t.Fatalf("sent %d messages", len(snd.msgs))
	}
	if got, ok := snd.msgs[0].(ui.ProgressMsg); !ok || got.Percent != 100 || got.Message != "Ready!" {
		t.Fatalf("msg 0 = %#v", snd.msgs[0])
	}
	if got, ok := snd.msgs[1].(ui.ReadyMsg); !ok || got.Port != 8000 {
		t.Fatalf("msg 1 = %#v", snd.msgs[1])
	}
	if _, ok := snd.msgs[2].(ui.FailedMsg); !ok {
		t.Fatalf("msg 2 = %#v", snd.msgs[2])
	}

	select {
	case ev := <-events:
		if !strings.Contains(string(ev.Payload), `"percent":100`) {
			t.Fatalf("splash-progress payload = %s", ev.Payload)
		}
	default:
		t.Fatalf("no splash-progress event emitted")
	}
}

func TestSetup_BuildsRuntimeAndReleasesLock(t *testing.T) {
	dir := t.TempDir()
	logDir := filepath.Join(dir, "logs")
	lockFile := filepath.Join(dir, "archiver.pid")
	cfgPath := filepath.Join(dir, "config.toml")
	cfg := "log_dir = \"" + filepath.ToSlash(logDir) + "\"\n" +
		"lock_file = \"" + filepath.ToSlash(lockFile) + "\"\n" +
		"backend_addr = \"127.0.0.1:18000\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	rt, err := setup(context.Background(), Options{
		ConfigPath: cfgPath,
		PrefsPath:  filepath.Join(dir, "prefs.toml"),
	}, nil)
	if err != nil {
		t.Fatalf("setup returned error: %v", err)
	}
	if !strings.HasPrefix(rt.logPath, logDir) {
		t.Fatalf("log path %q not under %q", rt.logPath, logDir)
	}
	if _, err := os.Stat(lockFile); err != nil {
		t.Fatalf("lock file missing: %v", err)
	}
	if rt.cfg.BackendPort() != 18000 || rt.supervisor == nil || rt.bridge == nil {
		t.Fatalf("runtime not wired: %#v", rt)
	}
	if !bridge.IsInvokeChannel(bridge.ChannelGetChats) {
		t.Fatalf("invoke channels missing")
	}

	rt.close()
	if _, err := os.Stat(lockFile); !os.IsNotExist(err) {
		t.Fatalf("lock file still present after close: %v", err)
	}
	data, err := os.ReadFile(rt.logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	for _, want := range []string{"Archiver launching", "[IPC] Handlers registered", "Archiver exiting"} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("log missing %q:\n%s", want, data)
		}
	}
}

func TestSetup_CorruptPrefsFallBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	cfg := "log_dir = \"" + filepath.ToSlash(filepath.Join(dir, "logs")) + "\"\n" +
		"lock_file = \"" + filepath.ToSlash(filepath.Join(dir, "archiver.pid")) + "\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	prefsPath := filepath.Join(dir, "prefs.toml")
	if err := os.WriteFile(prefsPath, []byte("theme = ["), 0o644); err != nil {
		t.Fatalf("write prefs: %v", err)
	}

	rt, err := setup(context.Background(), Options{ConfigPath: cfgPath, PrefsPath: prefsPath}, nil)
	if err != nil {
		t.Fatalf("setup returned error: %v", err)
	}
	rt.close()

	if rt.prefs != prefs.Defaults() {
		t.Fatalf("prefs = %#v, want defaults", rt.prefs)
	}
	data, err := os.ReadFile(rt.logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "[WARN] [Startup] using default preferences") {
		t.Fatalf("log missing prefs warning:\n%s", data)
	}
}

func TestSetup_InvalidConfigFails(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(cfgPath, []byte("backend_addr = ["), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := setup(context.Background(), Options{ConfigPath: cfgPath}, nil); err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("setup error = %v", err)
	}
}
