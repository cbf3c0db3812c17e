package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/speak2fill/speak2fill/internal/form"
	"github.com/speak2fill/speak2fill/internal/turn"
)

// Scenario defines a conformance test scenario.
// Scenarios validate the turn state machine by replaying a sequence of
// events against a fresh session and asserting on the resulting trace
// and final session state.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// DefaultLanguage is the fallback instruction language.
	// Empty defaults to "en".
	DefaultLanguage string `yaml:"default_language,omitempty"`

	// ImageWidth and ImageHeight are the form image dimensions echoed
	// into draw-guide actions.
	ImageWidth  int `yaml:"image_width"`
	ImageHeight int `yaml:"image_height"`

	// Fields is the form catalog the session is created with.
	Fields []FieldDef `yaml:"fields"`

	// Turns is the event sequence replayed against the session.
	Turns []TurnStep `yaml:"turns"`

	// Assertions validate the final session state.
	// Supported types: collected_value, final_index, final_phase,
	// detected_language, reply_contains
	Assertions []Assertion `yaml:"assertions"`
}

// FieldDef describes one form field in scenario YAML.
type FieldDef struct {
	FieldID       string `yaml:"field_id"`
	Label         string `yaml:"label"`
	BBox          []int  `yaml:"bbox"`
	InputMode     string `yaml:"input_mode"`
	WriteLanguage string `yaml:"write_language"`
}

// TurnStep is one event in the scenario's turn sequence.
type TurnStep struct {
	// Kind is the event kind. Empty defaults to USER_SPOKE.
	Kind string `yaml:"kind,omitempty"`

	// Text is the transcribed speech for USER_SPOKE turns.
	Text string `yaml:"text,omitempty"`

	// DetectedLanguage is the per-turn speech language code ("ml-IN").
	DetectedLanguage string `yaml:"detected_language,omitempty"`
}

// Assertion validates the final session state or a recorded reply.
type Assertion struct {
	// Type specifies the assertion type:
	// - "collected_value": a field's stored value equals Value
	// - "final_index": the current field index equals Index
	// - "final_phase": the phase equals Phase
	// - "detected_language": the sticky language equals Language
	// - "reply_contains": reply Turn's assistant text contains Text
	Type string `yaml:"type"`

	// FieldID selects the field (collected_value).
	FieldID string `yaml:"field_id,omitempty"`

	// Value is the expected stored value (collected_value).
	Value string `yaml:"value,omitempty"`

	// Index is the expected field index (final_index).
	Index int `yaml:"index,omitempty"`

	// Phase is the expected phase (final_phase).
	Phase string `yaml:"phase,omitempty"`

	// Language is the expected sticky language code (detected_language).
	Language string `yaml:"language,omitempty"`

	// Turn is the zero-based turn whose reply is inspected (reply_contains).
	Turn int `yaml:"turn,omitempty"`

	// Text is the expected substring (reply_contains).
	Text string `yaml:"text,omitempty"`
}

// Assertion type constants.
const (
	AssertCollectedValue   = "collected_value"
	AssertFinalIndex       = "final_index"
	AssertFinalPhase       = "final_phase"
	AssertDetectedLanguage = "detected_language"
	AssertReplyContains    = "reply_contains"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarioDir loads every *.yaml scenario under dir, sorted by filename
// so test execution order is stable.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob scenarios: %w", err)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Fields) == 0 {
		return fmt.Errorf("fields list is required and must be non-empty")
	}

	if len(s.Turns) == 0 {
		return fmt.Errorf("turns list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	// Field definitions get the full catalog validation later (via
	// form.ValidateCatalog); here only the YAML shape is checked.
	for i, f := range s.Fields {
		if f.FieldID == "" {
			return fmt.Errorf("fields[%d]: field_id is required", i)
		}
		if len(f.BBox) != 4 {
			return fmt.Errorf("fields[%d]: bbox must have exactly 4 elements", i)
		}
	}

	for i, step := range s.Turns {
		if step.Kind != "" && !turn.EventKind(step.Kind).Valid() {
			return fmt.Errorf("turns[%d]: unknown event kind %q", i, step.Kind)
		}
		kind := turn.EventKind(step.Kind)
		if (kind == "" || kind == turn.EventUserSpoke) && strings.TrimSpace(step.Text) == "" {
			return fmt.Errorf("turns[%d]: text is required for USER_SPOKE", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCollectedValue:
		if a.FieldID == "" {
			return fmt.Errorf("assertions[%d]: field_id is required for collected_value", index)
		}
	case AssertFinalIndex:
		if a.Index < 0 {
			return fmt.Errorf("assertions[%d]: index must be non-negative for final_index", index)
		}
	case AssertFinalPhase:
		if a.Phase == "" {
			return fmt.Errorf("assertions[%d]: phase is required for final_phase", index)
		}
	case AssertDetectedLanguage:
		if a.Language == "" {
			return fmt.Errorf("assertions[%d]: language is required for detected_language", index)
		}
	case AssertReplyContains:
		if a.Turn < 0 {
			return fmt.Errorf("assertions[%d]: turn must be non-negative for reply_contains", index)
		}
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for reply_contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// catalog converts the scenario's field definitions into form fields.
func (s *Scenario) catalog() []form.FormField {
	fields := make([]form.FormField, len(s.Fields))
	for i, f := range s.Fields {
		var bbox form.BBox
		copy(bbox[:], f.BBox)
		fields[i] = form.FormField{
			FieldID:       f.FieldID,
			Label:         f.Label,
			BBox:          bbox,
			InputMode:     form.InputMode(f.InputMode),
			WriteLanguage: form.WriteLanguage(f.WriteLanguage),
		}
	}
	return fields
}
