package form

import "time"

// InputMode describes how a field's value is obtained.
type InputMode string

const (
	// InputModeVoice collects a spoken value before guiding the user to write it.
	InputModeVoice InputMode = "voice"

	// InputModePlaceholder requires no spoken value (signatures, pre-printed
	// dates). The processor guides the user straight to the write step.
	InputModePlaceholder InputMode = "placeholder"
)

// Valid reports whether the input mode is a known value.
func (m InputMode) Valid() bool {
	return m == InputModeVoice || m == InputModePlaceholder
}

// WriteLanguage governs value normalization for a field.
// "numeric" strips non-digits; anything else ("en", "ml", ...) collapses
// whitespace. The set is open: new language codes need no code change.
type WriteLanguage string

const (
	WriteLanguageEnglish   WriteLanguage = "en"
	WriteLanguageMalayalam WriteLanguage = "ml"
	WriteLanguageNumeric   WriteLanguage = "numeric"
)

// Phase is the sub-state of the field currently being processed.
type Phase string

const (
	// PhaseAskInput means the processor is waiting for a spoken value.
	PhaseAskInput Phase = "ASK_INPUT"

	// PhaseAwaitConfirmation means the user was told what to write and the
	// processor is waiting for a confirmation keyword.
	PhaseAwaitConfirmation Phase = "AWAIT_CONFIRMATION"
)

// Valid reports whether the phase is a known value.
func (p Phase) Valid() bool {
	return p == PhaseAskInput || p == PhaseAwaitConfirmation
}

// BBox is a bounding box [x1, y1, x2, y2] in image pixel coordinates.
// Invariant: x1 < x2 and y1 < y2.
type BBox [4]int

// Valid reports whether the box satisfies x1 < x2 and y1 < y2.
func (b BBox) Valid() bool {
	return b[0] < b[2] && b[1] < b[3]
}

// FormField is one fillable field detected on the form.
// Immutable once a session is created.
type FormField struct {
	FieldID       string        `json:"field_id"`
	Label         string        `json:"label"`
	BBox          BBox          `json:"bbox"`
	InputMode     InputMode     `json:"input_mode"`
	WriteLanguage WriteLanguage `json:"write_language"`
}

// Message is one entry in a session's append-only message log.
// The log exists for audit and debugging; decision logic never reads it.
type Message struct {
	Timestamp time.Time `json:"ts"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
}

// Message roles used in the session log.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session is the full mutable state of one form-filling task.
//
// Mutated exclusively by the turn processor through the session store.
// Fields is fixed at creation and never reordered or mutated.
type Session struct {
	SessionID         string            `json:"session_id"`
	Fields            []FormField       `json:"fields"`
	CurrentFieldIndex int               `json:"current_field_index"`
	Phase             Phase             `json:"phase"`
	CollectedValues   map[string]string `json:"collected_values"`
	DetectedLanguage  string            `json:"detected_language,omitempty"`
	ImageWidth        int               `json:"image_width"`
	ImageHeight       int               `json:"image_height"`
	CreatedAt         time.Time         `json:"created_at"`

	// Revision is the optimistic concurrency token maintained by the store.
	// Incremented on every successful save.
	Revision int64 `json:"revision"`
}

// Complete reports whether every field has been processed.
func (s *Session) Complete() bool {
	return s.CurrentFieldIndex >= len(s.Fields)
}

// CurrentField returns the field at the current index.
// ok is false when the session is complete.
func (s *Session) CurrentField() (FormField, bool) {
	if s.Complete() {
		return FormField{}, false
	}
	return s.Fields[s.CurrentFieldIndex], true
}

// Clone returns a deep copy of the session. The turn processor decides
// against a clone so that a failed save leaves the loaded value untouched.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Fields = make([]FormField, len(s.Fields))
	copy(cp.Fields, s.Fields)
	cp.CollectedValues = make(map[string]string, len(s.CollectedValues))
	for k, v := range s.CollectedValues {
		cp.CollectedValues[k] = v
	}
	return &cp
}
