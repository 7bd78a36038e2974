package cli

import (
	"context"

	"github.com/five82/archiver/internal/app"
	"github.com/five82/archiver/internal/archive"
)

// Exit codes.
const (
	ExitSuccess      = 0
	ExitRuntimeError = 1
	ExitInvalidUsage = 2
)

// Manager abstracts the launcher and backend operations for the CLI.
type Manager interface {
	Run(ctx context.Context, opts app.Options) error
	Serve(ctx context.Context, opts app.Options) error

	// Client returns a backend client for the configured (or overridden) address.
	Client(configPath, addr string) (archive.API, error)
	// LogDir returns the configured launch log directory.
	LogDir(configPath string) (string, error)
}
