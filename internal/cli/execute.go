package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/archiver/internal/app"
)

// Execute runs the CLI with the provided args and manager and returns the exit code.
func Execute(ctx context.Context, args []string, manager Manager, out, errOut io.Writer) int {
	cmd := NewRootCommand(manager, out, errOut)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errOut, "archiver: %v\n", err)
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			return ExitInvalidUsage
		}
		return ExitRuntimeError
	}
	return ExitSuccess
}

// NewRootCommand builds the root CLI command tree. The root command runs the terminal UI.
func NewRootCommand(manager Manager, out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "archiver",
		Short:         "launch the local iMessage archiver",
		Args:          noArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUI(cmd, manager)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	root.PersistentFlags().String("config", "", "config file (default ~/.config/archiver/config.toml)")
	root.PersistentFlags().String("prefs", "", "preferences file (default ~/.config/archiver/prefs.toml)")
	root.PersistentFlags().Bool("json", false, "output JSON")
	root.Flags().Duration("poll", 0, "dashboard refresh interval (default 2s)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "start the backend and the terminal UI",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUI(cmd, manager)
		},
	}
	runCmd.Flags().Duration("poll", 0, "dashboard refresh interval (default 2s)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "start the backend and expose the IPC bridge over HTTP",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := options(cmd)
			opts.GatewayBind, _ = cmd.Flags().GetString("bind")
			if err := manager.Serve(cmd.Context(), opts); err != nil {
				return &runtimeError{err: err}
			}
			return nil
		},
	}
	serveCmd.Flags().String("bind", "", "gateway listen address (default from config)")

	root.AddCommand(runCmd, serveCmd)
	root.AddCommand(newBackendCommands(manager)...)
	root.AddCommand(newLogsCommand(manager), newVersionCommand())

	return root
}

func runUI(cmd *cobra.Command, manager Manager) error {
	opts := options(cmd)
	if poll, _ := cmd.Flags().GetDuration("poll"); poll < 0 {
		return &usageError{err: fmt.Errorf("--poll must not be negative")}
	} else if poll > 0 {
		opts.PollEvery = poll
	}
	if err := manager.Run(cmd.Context(), opts); err != nil {
		return &runtimeError{err: err}
	}
	return nil
}

func options(cmd *cobra.Command) app.Options {
	configPath, _ := cmd.Flags().GetString("config")
	prefsPath, _ := cmd.Flags().GetString("prefs")
	return app.Options{ConfigPath: configPath, PrefsPath: prefsPath}
}

// requestTimeout bounds one-shot backend commands.
const requestTimeout = 30 * time.Second

type usageError struct {
	err error
}

func (u *usageError) Error() string {
	if u.err == nil {
		return "invalid usage"
	}
	return u.err.Error()
}

func (u *usageError) Unwrap() error { return u.err }

type runtimeError struct {
	err error
}

func (r *runtimeError) Error() string {
	if r.err == nil {
		return "runtime error"
	}
	return r.err.Error()
}

func (r *runtimeError) Unwrap() error { return r.err }

func requireArgs(n int) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != n {
			return &usageError{err: fmt.Errorf("requires %d argument(s), got %d", n, len(args))}
		}
		return nil
	}
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return &usageError{err: fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())}
	}
	return nil
}
