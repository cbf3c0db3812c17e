package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/speak2fill/speak2fill/internal/store"
)

// SessionsOptions holds flags for the sessions command.
type SessionsOptions struct {
	*RootOptions
	Database string
}

// NewSessionsCommand creates the sessions command.
func NewSessionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List form-filling sessions",
		Long: `List all sessions in the database, newest first.

Each row shows the session id, creation time, field progress and phase.

Examples:
  speak2fill sessions --db ./sessions.db
  speak2fill sessions --db ./sessions.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessions(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runSessions(opts *SessionsOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	summaries, err := st.List(context.Background())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return out.SuccessJSON(map[string]any{"sessions": summaries})
	}

	w := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}

	for _, s := range summaries {
		status := fmt.Sprintf("%d/%d %s", s.CurrentFieldIndex, s.FieldCount, s.Phase)
		if s.Complete {
			status = "complete"
		}
		fmt.Fprintf(w, "%s  %s  %s\n",
			s.SessionID,
			s.CreatedAt.Format("2006-01-02 15:04:05"),
			status)
	}
	fmt.Fprintf(w, "\n%d session(s)\n", len(summaries))

	return nil
}
