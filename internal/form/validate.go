package form

import (
	"fmt"
	"strings"
)

// ValidateCatalog checks a field catalog before it is attached to a session.
//
// The catalog arrives from the external field-inference service and is
// treated as already ordered; validation only enforces structural invariants:
//   - at least one field
//   - non-empty, unique field ids
//   - non-empty labels
//   - valid bounding boxes (x1 < x2, y1 < y2)
//   - known input modes
//
// An empty write_language is normalized to "en" rather than rejected, since
// the inference service omits it for plain text fields.
func ValidateCatalog(fields []FormField) error {
	if len(fields) == 0 {
		return fmt.Errorf("catalog has no fields")
	}

	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		if strings.TrimSpace(f.FieldID) == "" {
			return fmt.Errorf("field %d: empty field_id", i)
		}
		if seen[f.FieldID] {
			return fmt.Errorf("field %d: duplicate field_id %q", i, f.FieldID)
		}
		seen[f.FieldID] = true

		if strings.TrimSpace(f.Label) == "" {
			return fmt.Errorf("field %q: empty label", f.FieldID)
		}
		if !f.BBox.Valid() {
			return fmt.Errorf("field %q: invalid bbox %v", f.FieldID, f.BBox)
		}
		if !f.InputMode.Valid() {
			return fmt.Errorf("field %q: unknown input_mode %q", f.FieldID, f.InputMode)
		}
	}
	return nil
}

// NormalizeCatalog fills in defaults the inference service may omit.
// Returns a copy; the input slice is never mutated.
func NormalizeCatalog(fields []FormField) []FormField {
	out := make([]FormField, len(fields))
	copy(out, fields)
	for i := range out {
		if out[i].InputMode == "" {
			out[i].InputMode = InputModeVoice
		}
		if out[i].WriteLanguage == "" {
			out[i].WriteLanguage = WriteLanguageEnglish
		}
	}
	return out
}
