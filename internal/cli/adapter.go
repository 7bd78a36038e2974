package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/five82/archiver/internal/app"
	"github.com/five82/archiver/internal/archive"
	"github.com/five82/archiver/internal/config"
)

// NewManager returns the Manager backed by the real launcher.
func NewManager() Manager {
	return launcher{}
}

type launcher struct{}

func (launcher) Run(ctx context.Context, opts app.Options) error {
	return app.Run(ctx, opts)
}

func (launcher) Serve(ctx context.Context, opts app.Options) error {
	return app.Serve(ctx, opts)
}

func (launcher) Client(configPath, addr string) (archive.API, error) {
	if strings.TrimSpace(addr) == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		addr = cfg.BackendAddr
	}
	return archive.NewClient(addr)
}

func (launcher) LogDir(configPath string) (string, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	return cfg.LogDir, nil
}
