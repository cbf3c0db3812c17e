package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/speak2fill/speak2fill/internal/form"
	"github.com/speak2fill/speak2fill/internal/store"
	"github.com/speak2fill/speak2fill/internal/turn"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with a
// fixed session id so traces stay deterministic. The service is wired
// without an extractor or localizer: values are the normalized literals,
// and replies use the built-in templates.
//
// Execution flow:
//  1. Create fresh in-memory store with a fixed session id
//  2. Validate the catalog and create the session
//  3. Replay each turn through the service, recording event and reply
//  4. Evaluate assertions against replies and the final stored session
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:",
		store.WithIDGenerator(store.NewFixedGenerator("sess-"+scenario.Name)))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	fields := form.NormalizeCatalog(scenario.catalog())
	if err := form.ValidateCatalog(fields); err != nil {
		return nil, fmt.Errorf("invalid scenario catalog: %w", err)
	}

	ctx := context.Background()

	sess, err := st.Create(ctx, fields, scenario.ImageWidth, scenario.ImageHeight)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// Suppress service logs; the trace is the record.
	opts := []turn.ServiceOption{
		turn.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	if scenario.DefaultLanguage != "" {
		opts = append(opts, turn.WithDefaultLanguage(scenario.DefaultLanguage))
	}
	svc := turn.NewService(st, opts...)

	result := NewResult()
	for i, step := range scenario.Turns {
		ev := turn.Event{
			Kind:             turn.EventKind(step.Kind),
			Text:             step.Text,
			DetectedLanguage: step.DetectedLanguage,
		}
		result.AddEventTrace(ev)

		reply, err := svc.HandleTurn(ctx, sess.SessionID, ev)
		if err != nil {
			return nil, fmt.Errorf("turn %d: %w", i, err)
		}
		result.AddReplyTrace(reply)
	}

	final, err := st.Load(ctx, sess.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load final session: %w", err)
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, final) {
		result.AddError(errMsg)
	}

	return result, nil
}
