package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/speak2fill/speak2fill/internal/form"
	"github.com/speak2fill/speak2fill/internal/store"
)

// TranscriptOptions holds flags for the transcript command.
type TranscriptOptions struct {
	*RootOptions
	Database string
	Session  string
}

// TranscriptResult holds the complete transcript output.
type TranscriptResult struct {
	SessionID       string            `json:"session_id"`
	Complete        bool              `json:"complete"`
	CollectedValues map[string]string `json:"collected_values"`
	Messages        []form.Message    `json:"messages"`
}

// NewTranscriptCommand creates the transcript command.
func NewTranscriptCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TranscriptOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "transcript",
		Short: "Show a session's message log",
		Long: `Show the append-only message log for one session.

The transcript records every user utterance and assistant instruction in
order, together with the values collected so far.

Examples:
  speak2fill transcript --db ./sessions.db --session 0192f3a1-...
  speak2fill transcript --db ./sessions.db --session 0192f3a1-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscript(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session id (required)")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func runTranscript(opts *TranscriptOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	sess, err := st.Load(ctx, opts.Session)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NewExitError(ExitFailure, fmt.Sprintf("session not found: %s", opts.Session))
		}
		return WrapExitError(ExitCommandError, "failed to load session", err)
	}

	messages, err := st.ReadMessages(ctx, opts.Session)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read messages", err)
	}

	result := TranscriptResult{
		SessionID:       sess.SessionID,
		Complete:        sess.Complete(),
		CollectedValues: sess.CollectedValues,
		Messages:        messages,
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return out.SuccessJSON(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Session: %s\n", result.SessionID)
	if result.Complete {
		fmt.Fprintln(w, "Status: complete")
	} else {
		fmt.Fprintf(w, "Status: field %d of %d, %s\n",
			sess.CurrentFieldIndex, len(sess.Fields), sess.Phase)
	}
	fmt.Fprintln(w)

	if len(messages) == 0 {
		fmt.Fprintln(w, "  (no messages)")
	} else {
		for _, msg := range messages {
			fmt.Fprintf(w, "  [%s] %-9s %s\n",
				msg.Timestamp.Format("15:04:05"), msg.Role, msg.Text)
		}
	}

	if len(result.CollectedValues) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Collected values:")
		for _, f := range sess.Fields {
			if v, ok := result.CollectedValues[f.FieldID]; ok {
				fmt.Fprintf(w, "  %s: %s\n", f.Label, v)
			}
		}
	}

	return nil
}
