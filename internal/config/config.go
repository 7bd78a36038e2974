package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything the launcher needs to supervise and talk to the backend.
type Config struct {
	BackendAddr       string
	HealthPath        string
	PollInterval      time.Duration
	StartupTimeout    time.Duration
	PythonCandidates  []string
	ProjectRoot       string
	EntryScript       string
	EnvFile           string
	LogDir            string
	LockFile          string
	GatewayBind       string
	TelemetryEndpoint string
}

const (
	defaultConfigPath     = "~/.config/archiver/config.toml"
	defaultBackendAddr    = "127.0.0.1:8000"
	defaultHealthPath     = "/system/status"
	defaultPollInterval   = 500 * time.Millisecond
	defaultStartupTimeout = 30 * time.Second
	defaultEntryScript    = "backend/src/app.py"
	defaultGatewayBind    = "127.0.0.1:8765"
	darwinLogDir          = "~/Library/Logs/Archiver"
	defaultLogDir         = "~/.local/state/archiver/logs"
)

type rawConfig struct {
	BackendAddr       string   `toml:"backend_addr"`
	HealthPath        string   `toml:"health_path"`
	PollIntervalMS    int      `toml:"poll_interval_ms"`
	StartupTimeoutS   int      `toml:"startup_timeout_s"`
	PythonCandidates  []string `toml:"python_candidates"`
	ProjectRoot       string   `toml:"project_root"`
	EntryScript       string   `toml:"entry_script"`
	EnvFile           string   `toml:"env_file"`
	LogDir            string   `toml:"log_dir"`
	LockFile          string   `toml:"lock_file"`
	GatewayBind       string   `toml:"gateway_bind"`
	TelemetryEndpoint string   `toml:"telemetry_endpoint"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	logDir := mustExpand(platformLogDir())
	return Config{
		BackendAddr:    defaultBackendAddr,
		HealthPath:     defaultHealthPath,
		PollInterval:   defaultPollInterval,
		StartupTimeout: defaultStartupTimeout,
		EntryScript:    defaultEntryScript,
		LogDir:         logDir,
		LockFile:       filepath.Join(filepath.Dir(logDir), "archiver.pid"),
		GatewayBind:    defaultGatewayBind,
	}
}

// Load locates and parses the archiver config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.BackendAddr); v != "" {
		cfg.BackendAddr = v
	}
	if v := strings.TrimSpace(raw.HealthPath); v != "" {
		if !strings.HasPrefix(v, "/") {
			v = "/" + v
		}
		cfg.HealthPath = v
	}
	if raw.PollIntervalMS > 0 {
		cfg.PollInterval = time.Duration(raw.PollIntervalMS) * time.Millisecond
	}
	if raw.StartupTimeoutS > 0 {
		cfg.StartupTimeout = time.Duration(raw.StartupTimeoutS) * time.Second
	}
	for _, candidate := range raw.PythonCandidates {
		if c := strings.TrimSpace(candidate); c != "" {
			cfg.PythonCandidates = append(cfg.PythonCandidates, expandIfTilde(c))
		}
	}
	if v := strings.TrimSpace(raw.ProjectRoot); v != "" {
		cfg.ProjectRoot = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.EntryScript); v != "" {
		cfg.EntryScript = filepath.FromSlash(v)
	}
	if v := strings.TrimSpace(raw.EnvFile); v != "" {
		cfg.EnvFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.LogDir = mustExpand(v)
		cfg.LockFile = filepath.Join(filepath.Dir(cfg.LogDir), "archiver.pid")
	}
	if v := strings.TrimSpace(raw.LockFile); v != "" {
		cfg.LockFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.GatewayBind); v != "" {
		cfg.GatewayBind = v
	}
	cfg.TelemetryEndpoint = strings.TrimSpace(raw.TelemetryEndpoint)

	return cfg, nil
}

// BackendPort returns the port component of BackendAddr.
func (c Config) BackendPort() int {
	_, port, err := net.SplitHostPort(c.BackendAddr)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return 0
	}
	return n
}

// HealthURL returns the full URL polled during startup.
func (c Config) HealthURL() string {
	path := c.HealthPath
	if path == "" {
		path = defaultHealthPath
	}
	return "http://" + c.BackendAddr + path
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

func platformLogDir() string {
	if runtime.GOOS == "darwin" {
		return darwinLogDir
	}
	return defaultLogDir
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

// expandIfTilde expands ~ but leaves bare command names such as "python3" alone.
func expandIfTilde(path string) string {
	if strings.HasPrefix(path, "~") {
		return mustExpand(path)
	}
	return path
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
