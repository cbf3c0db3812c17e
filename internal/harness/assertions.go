package harness

import (
	"fmt"
	"strings"

	"github.com/speak2fill/speak2fill/internal/form"
)

// EvaluateAssertions checks every assertion against the recorded replies
// and the final stored session. Returns one message per failed assertion;
// an empty slice means all passed.
func EvaluateAssertions(result *Result, assertions []Assertion, final *form.Session) []string {
	var errs []string
	for i, a := range assertions {
		if msg := evaluateAssertion(result, &a, final); msg != "" {
			errs = append(errs, fmt.Sprintf("assertion[%d] (%s): %s", i, a.Type, msg))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a *Assertion, final *form.Session) string {
	switch a.Type {
	case AssertCollectedValue:
		got, ok := final.CollectedValues[a.FieldID]
		if !ok {
			return fmt.Sprintf("no value collected for field %q", a.FieldID)
		}
		if got != a.Value {
			return fmt.Sprintf("field %q: got %q, want %q", a.FieldID, got, a.Value)
		}

	case AssertFinalIndex:
		if final.CurrentFieldIndex != a.Index {
			return fmt.Sprintf("current_field_index: got %d, want %d",
				final.CurrentFieldIndex, a.Index)
		}

	case AssertFinalPhase:
		if string(final.Phase) != a.Phase {
			return fmt.Sprintf("phase: got %q, want %q", final.Phase, a.Phase)
		}

	case AssertDetectedLanguage:
		if final.DetectedLanguage != a.Language {
			return fmt.Sprintf("detected_language: got %q, want %q",
				final.DetectedLanguage, a.Language)
		}

	case AssertReplyContains:
		if a.Turn >= len(result.Replies) {
			return fmt.Sprintf("turn %d out of range (%d replies)", a.Turn, len(result.Replies))
		}
		text := result.Replies[a.Turn].AssistantText
		if !strings.Contains(text, a.Text) {
			return fmt.Sprintf("reply %d: %q does not contain %q", a.Turn, text, a.Text)
		}
	}

	return ""
}
