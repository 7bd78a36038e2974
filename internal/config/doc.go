// Package config handles loading the archiver launcher configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/archiver/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// # Default Values
//
//   - Backend address: 127.0.0.1:8000
//   - Health endpoint: /system/status, polled every 500ms for up to 30s
//   - Entry script: backend/src/app.py (relative to the project root)
//   - Log directory: ~/Library/Logs/Archiver on macOS, ~/.local/state/archiver/logs elsewhere
//   - Lock file: archiver.pid next to the log directory
//   - Gateway bind: 127.0.0.1:8765
//
// # TOML Format
//
//	backend_addr = "127.0.0.1:8000"
//	health_path = "/system/status"
//	poll_interval_ms = 500
//	startup_timeout_s = 30
//	python_candidates = ["~/venvs/archiver/bin/python3", "python3"]
//	project_root = "~/src/archiver"
//	entry_script = "backend/src/app.py"
//	env_file = "~/src/archiver/backend/.env"
//	log_dir = "~/Library/Logs/Archiver"
//	gateway_bind = "127.0.0.1:8765"
//	telemetry_endpoint = "localhost:4318"
//
// Every field is optional. Tilde expansion is performed for paths. Interpreter candidates
// are expanded only when they start with ~, so bare command names are resolved through PATH.
// An empty project_root lets the backend supervisor search the working directory and the
// executable's directory for the entry script.
package config
