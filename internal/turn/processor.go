package turn

import (
	"context"
	"log/slog"
	"strings"

	"github.com/speak2fill/speak2fill/internal/form"
	"github.com/speak2fill/speak2fill/internal/lang"
)

// OutcomeKind identifies what the turn decided.
type OutcomeKind string

const (
	// OutcomePromptValue asks the user to speak a value for the current field.
	OutcomePromptValue OutcomeKind = "prompt_value"

	// OutcomeWriteGuide tells the user what to write and where. Emitted with
	// an empty value for placeholder fields ("write here").
	OutcomeWriteGuide OutcomeKind = "write_guide"

	// OutcomeComplete means every field has been processed.
	OutcomeComplete OutcomeKind = "complete"
)

// Outcome is the processor's decision for one turn. The composer turns it
// into user-visible output.
type Outcome struct {
	Kind  OutcomeKind
	Field form.FormField // zero value when Kind == OutcomeComplete
	Value string         // text to write; set only for OutcomeWriteGuide
}

// Extractor pulls a field value out of free-form speech. Satisfied by
// speech.Client; nil disables extraction (the normalized literal is stored).
type Extractor interface {
	ExtractFieldValue(ctx context.Context, fieldLabel, userText, writeLanguage string) (string, error)
}

// Processor is the deterministic per-turn decision function.
//
// Process mutates the session it is given; callers pass a clone and persist
// it only after Process returns, which keeps failed turns free of partial
// state. Process itself never touches storage.
type Processor struct {
	keywords  Keywords
	extractor Extractor
	logger    *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithExtractor enables external value extraction. Extraction failures are
// never fatal: the turn falls back to the literal normalized text.
func WithExtractor(e Extractor) ProcessorOption {
	return func(p *Processor) {
		p.extractor = e
	}
}

// WithKeywords overrides the confirmation-keyword set.
func WithKeywords(k Keywords) ProcessorOption {
	return func(p *Processor) {
		if len(k) > 0 {
			p.keywords = k
		}
	}
}

// NewProcessor creates a Processor with the default keyword set.
func NewProcessor(opts ...ProcessorOption) *Processor {
	p := &Processor{
		keywords: NewKeywords(DefaultConfirmationKeywords),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process applies one event to the session and returns the decision.
//
// Dispatch order:
//  1. Completed sessions absorb every event without mutation.
//  2. Keyword reinterpretation (USER_SPOKE "done" -> CONFIRM_DONE).
//  3. CONFIRM_DONE and SKIP_FIELD advance the index by exactly one and
//     re-enter ASK_INPUT on the next field, regardless of phase.
//  4. A placeholder field in ASK_INPUT auto-emits its write guide and moves
//     to AWAIT_CONFIRMATION without waiting for input.
//  5. Voice fields collect, normalize and store the spoken value.
//  6. Unrecognized speech during AWAIT_CONFIRMATION re-emits the current
//     guidance unchanged.
func (p *Processor) Process(ctx context.Context, sess *form.Session, ev Event) (Outcome, error) {
	if sess.CurrentFieldIndex < 0 || sess.CurrentFieldIndex > len(sess.Fields) {
		return Outcome{}, NewNoCurrentFieldError(sess.SessionID, sess.CurrentFieldIndex)
	}

	if sess.Complete() {
		return Outcome{Kind: OutcomeComplete}, nil
	}

	ev = p.keywords.reinterpret(ev)

	field, ok := sess.CurrentField()
	if !ok {
		return Outcome{}, NewNoCurrentFieldError(sess.SessionID, sess.CurrentFieldIndex)
	}

	// Confirm and skip force-advance in any phase.
	if ev.Kind == EventConfirmDone || ev.Kind == EventSkipField {
		sess.CurrentFieldIndex++
		sess.Phase = form.PhaseAskInput
		return p.enterCurrentField(sess), nil
	}

	switch sess.Phase {
	case form.PhaseAskInput:
		if field.InputMode == form.InputModePlaceholder {
			// Placeholder fields collect nothing: spoken text is ignored and
			// the write guide goes out immediately.
			sess.Phase = form.PhaseAwaitConfirmation
			return Outcome{Kind: OutcomeWriteGuide, Field: field}, nil
		}

		value := lang.NormalizeValue(ev.Text, field.WriteLanguage)
		if value == "" {
			// Nothing usable; ask again without mutating.
			return Outcome{Kind: OutcomePromptValue, Field: field}, nil
		}

		value = p.extractValue(ctx, field, ev.Text, value)
		sess.CollectedValues[field.FieldID] = value
		sess.Phase = form.PhaseAwaitConfirmation
		return Outcome{Kind: OutcomeWriteGuide, Field: field, Value: value}, nil

	case form.PhaseAwaitConfirmation:
		// Speech that is not a confirmation keyword: repeat the guidance.
		return Outcome{
			Kind:  OutcomeWriteGuide,
			Field: field,
			Value: sess.CollectedValues[field.FieldID],
		}, nil

	default:
		// Unknown phase in the stored record; treat as ASK_INPUT after
		// normalizing so the session is not wedged.
		sess.Phase = form.PhaseAskInput
		return Outcome{Kind: OutcomePromptValue, Field: field}, nil
	}
}

// enterCurrentField produces the outcome for a field that just became
// current. Placeholder fields synthesize their write guide on entry, whether
// reached by confirm or by skip.
func (p *Processor) enterCurrentField(sess *form.Session) Outcome {
	field, ok := sess.CurrentField()
	if !ok {
		return Outcome{Kind: OutcomeComplete}
	}
	if field.InputMode == form.InputModePlaceholder {
		sess.Phase = form.PhaseAwaitConfirmation
		return Outcome{Kind: OutcomeWriteGuide, Field: field}
	}
	return Outcome{Kind: OutcomePromptValue, Field: field}
}

// extractValue runs external extraction when configured. Any failure or
// empty result degrades to the already-normalized literal text.
func (p *Processor) extractValue(ctx context.Context, field form.FormField, rawText, fallback string) string {
	if p.extractor == nil {
		return fallback
	}

	extracted, err := p.extractor.ExtractFieldValue(ctx, field.Label, rawText, string(field.WriteLanguage))
	if err != nil {
		p.logger.Warn("value extraction failed, using literal text",
			"field_id", field.FieldID, "error", err)
		return fallback
	}
	normalized := lang.NormalizeValue(strings.TrimSpace(extracted), field.WriteLanguage)
	if normalized == "" {
		return fallback
	}
	return normalized
}
