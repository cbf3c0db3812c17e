// Package lang provides the sticky-language resolver and the per-field
// value normalization policy.
//
// The resolver is a pure function: it never touches the store. The caller
// persists the returned code exactly once when persist is true.
package lang

import (
	"strings"

	"golang.org/x/text/language"
)

// DefaultLanguage is used when neither the session nor the current request
// carries a language code.
const DefaultLanguage = "en"

// Canonicalize reduces a reported language code to its BCP-47 base language.
// Speech services report region-qualified codes ("ml-IN", "hi-IN"); the
// session stores only the base ("ml", "hi"). Returns "" for unparseable input.
func Canonicalize(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}
	return base.String()
}

// Resolve fixes the language for one turn.
//
// Returns the first non-empty value among the session's sticky language, the
// externally detected language (canonicalized), and fallback. persist is true
// only when the session had no sticky language yet and a non-default value was
// found; the caller writes it back exactly once. Once a session has a sticky
// language, later detections never change it (first-detected wins).
func Resolve(sticky, detected, fallback string) (code string, persist bool) {
	if fallback == "" {
		fallback = DefaultLanguage
	}
	if sticky != "" {
		return sticky, false
	}
	if d := Canonicalize(detected); d != "" {
		return d, d != fallback
	}
	return fallback, false
}
