package turn

import "strings"

// EventKind identifies the caller's intent for one turn.
type EventKind string

const (
	// EventUserSpoke carries transcribed user speech.
	EventUserSpoke EventKind = "USER_SPOKE"

	// EventConfirmDone means the user finished writing the current field.
	EventConfirmDone EventKind = "CONFIRM_DONE"

	// EventSkipField force-advances past the current field regardless of phase.
	EventSkipField EventKind = "SKIP_FIELD"
)

// Valid reports whether the kind is a known value.
func (k EventKind) Valid() bool {
	return k == EventUserSpoke || k == EventConfirmDone || k == EventSkipField
}

// Event is one turn input.
type Event struct {
	Kind EventKind

	// Text is the transcribed speech; meaningful only for EventUserSpoke.
	Text string

	// DetectedLanguage is the language code the speech service reported for
	// this turn ("ml-IN"). Used by the sticky-language resolver; may be empty.
	DetectedLanguage string
}

// DefaultConfirmationKeywords is the closed set of tokens reinterpreted as
// CONFIRM_DONE regardless of the literal event kind. The Malayalam entry
// matches the localized prompts, which ask the user to say it.
var DefaultConfirmationKeywords = []string{
	"done", "finished", "ok", "completed", "yes", "next", "y", "confirmed",
	"ചെയ്തു",
}

// Keywords matches confirmation keywords case- and whitespace-insensitively.
type Keywords map[string]bool

// NewKeywords builds a keyword set. Entries are lower-cased and trimmed;
// empty entries are dropped.
func NewKeywords(words []string) Keywords {
	set := make(Keywords, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = true
		}
	}
	return set
}

// Match reports whether text, lower-cased and trimmed, is exactly a
// confirmation keyword.
func (k Keywords) Match(text string) bool {
	return k[strings.ToLower(strings.TrimSpace(text))]
}

// reinterpret applies event normalization: a USER_SPOKE whose text is a
// confirmation keyword becomes CONFIRM_DONE before state-dependent dispatch.
func (k Keywords) reinterpret(ev Event) Event {
	if ev.Kind == EventUserSpoke && k.Match(ev.Text) {
		ev.Kind = EventConfirmDone
	}
	return ev
}
