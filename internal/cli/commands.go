package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/archiver/internal/archive"
	"github.com/five82/archiver/internal/bridge"
	"github.com/five82/archiver/internal/logging"
	"github.com/five82/archiver/internal/logtail"
	"github.com/five82/archiver/internal/version"
)

// newBackendCommands returns the one-shot commands that talk to a running backend.
func newBackendCommands(manager Manager) []*cobra.Command {
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "show backend status",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return callBackend(cmd, manager, func(ctx context.Context, api archive.API) (json.RawMessage, error) {
				return api.Status(ctx)
			}, func(w io.Writer, raw json.RawMessage) error {
				return writeFields(w, archive.StatusFields(raw))
			})
		},
	}

	onboardingCmd := &cobra.Command{
		Use:   "onboarding",
		Short: "show first-run setup status",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return callBackend(cmd, manager, func(ctx context.Context, api archive.API) (json.RawMessage, error) {
				return api.OnboardingStatus(ctx)
			}, func(w io.Writer, raw json.RawMessage) error {
				st := archive.OnboardingSummary(raw)
				if !st.Known {
					_, err := fmt.Fprintln(w, "onboarding status unknown")
					return err
				}
				return writeFields(w, [][2]string{
					{"complete", yesNo(st.Complete)},
					{"full_disk_access", yesNo(st.FullDiskAccess)},
				})
			})
		},
	}

	chatsCmd := &cobra.Command{
		Use:   "chats",
		Short: "list recent chats",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			search, _ := cmd.Flags().GetString("search")
			return callBackend(cmd, manager, func(ctx context.Context, api archive.API) (json.RawMessage, error) {
				return api.RecentChats(ctx, search)
			}, func(w io.Writer, raw json.RawMessage) error {
				chats := archive.ChatSummaries(raw)
				if len(chats) == 0 {
					_, err := fmt.Fprintln(w, "no chats")
					return err
				}
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "GUID\tNAME\tMESSAGES\tLAST ACTIVITY")
				for _, c := range chats {
					when := "-"
					if !c.LastActivity.IsZero() {
						when = c.LastActivity.Local().Format("2006-01-02 15:04")
					}
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", c.GUID, c.Name, c.MessageCount, when)
				}
				return tw.Flush()
			})
		},
	}
	chatsCmd.Flags().String("search", "", "filter chats by name or handle")

	messagesCmd := &cobra.Command{
		Use:   "messages <chat-guid>",
		Short: "print a chat's messages",
		Args:  requireArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			guid := strings.TrimSpace(args[0])
			if guid == "" {
				return &usageError{err: fmt.Errorf("chat guid must not be empty")}
			}
			return callBackend(cmd, manager, func(ctx context.Context, api archive.API) (json.RawMessage, error) {
				return api.Messages(ctx, guid)
			}, func(w io.Writer, raw json.RawMessage) error {
				for _, line := range archive.MessageLines(raw) {
					when := "                "
					if !line.Sent.IsZero() {
						when = line.Sent.Local().Format("2006-01-02 15:04")
					}
					if _, err := fmt.Fprintf(w, "%s  %s: %s\n", when, line.Sender, line.Text); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	archiveCmd := &cobra.Command{
		Use:   "archive <chat-guid>",
		Short: "archive a chat",
		Args:  requireArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			guid := strings.TrimSpace(args[0])
			if guid == "" {
				return &usageError{err: fmt.Errorf("chat guid must not be empty")}
			}
			format, _ := cmd.Flags().GetString("format")
			if format == "" {
				format = bridge.DefaultArchiveFormat
			}
			return callBackend(cmd, manager, func(ctx context.Context, api archive.API) (json.RawMessage, error) {
				return api.ArchiveChat(ctx, guid, format)
			}, func(w io.Writer, raw json.RawMessage) error {
				summary := archive.Describe(raw)
				if summary == "" {
					summary = "archived"
				}
				_, err := fmt.Fprintln(w, summary)
				return err
			})
		},
	}
	archiveCmd.Flags().String("format", bridge.DefaultArchiveFormat, "archive format (html, txt, ...)")

	cmds := []*cobra.Command{statusCmd, onboardingCmd, chatsCmd, messagesCmd, archiveCmd}
	for _, c := range cmds {
		c.Flags().String("backend", "", "backend address (default from config)")
	}
	return cmds
}

// callBackend runs one backend request and prints the result as raw JSON with --json or
// through render otherwise.
func callBackend(
	cmd *cobra.Command,
	manager Manager,
	call func(context.Context, archive.API) (json.RawMessage, error),
	render func(io.Writer, json.RawMessage) error,
) error {
	configPath, _ := cmd.Flags().GetString("config")
	addr, _ := cmd.Flags().GetString("backend")
	api, err := manager.Client(configPath, addr)
	if err != nil {
		return &runtimeError{err: err}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()
	raw, err := call(ctx, api)
	if err != nil {
		return &runtimeError{err: err}
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(raw)))
		return err
	}
	return render(cmd.OutOrStdout(), raw)
}

func writeFields(w io.Writer, fields [][2]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, f := range fields {
		fmt.Fprintf(tw, "%s:\t%s\n", f[0], f[1])
	}
	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// logEvent is one launch log line in --json output.
type logEvent struct {
	Time    *time.Time `json:"time,omitempty"`
	Level   string     `json:"level,omitempty"`
	Source  string     `json:"source,omitempty"`
	Message string     `json:"message"`
}

func newLogsCommand(manager Manager) *cobra.Command {
	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "print the tail of the latest launch log",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lines, _ := cmd.Flags().GetInt("lines")
			levelName, _ := cmd.Flags().GetString("level")
			path, _ := cmd.Flags().GetString("file")

			minLevel, err := logtail.ParseLevel(levelName)
			if err != nil {
				return &usageError{err: err}
			}

			if path == "" {
				configPath, _ := cmd.Flags().GetString("config")
				dir, err := manager.LogDir(configPath)
				if err != nil {
					return &runtimeError{err: err}
				}
				if path, err = logging.Latest(dir); err != nil {
					return &runtimeError{err: err}
				}
			}

			tail, err := logtail.Read(path, lines)
			if err != nil {
				return &runtimeError{err: err}
			}
			tail = logtail.Filter(tail, minLevel)

			out := cmd.OutOrStdout()
			if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
				enc := json.NewEncoder(out)
				for _, line := range tail {
					e := logtail.Parse(line)
					ev := logEvent{Level: e.Level.String(), Source: e.Source, Message: e.Message}
					if !e.Time.IsZero() {
						ev.Time = &e.Time
					}
					if err := enc.Encode(ev); err != nil {
						return err
					}
				}
				return nil
			}
			for _, line := range tail {
				if _, err := fmt.Fprintln(out, line); err != nil {
					return err
				}
			}
			return nil
		},
	}
	logsCmd.Flags().IntP("lines", "n", 100, "number of lines to show (0 for all)")
	logsCmd.Flags().String("level", "", "minimum level: debug, info, warn, error")
	logsCmd.Flags().String("file", "", "log file to read (default: latest launch log)")
	return logsCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print version information",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(info)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return err
		},
	}
}
