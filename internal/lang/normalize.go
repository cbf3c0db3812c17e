package lang

import (
	"strings"
	"unicode"

	"github.com/speak2fill/speak2fill/internal/form"
)

// NormalizeValue applies the write-language policy to a collected value.
//
// numeric: every character that is not a decimal digit is stripped.
// anything else: runs of whitespace collapse to a single space, ends trimmed.
func NormalizeValue(value string, wl form.WriteLanguage) string {
	if wl == form.WriteLanguageNumeric {
		var b strings.Builder
		for _, r := range value {
			if unicode.IsDigit(r) {
				b.WriteRune(r)
			}
		}
		return b.String()
	}
	return strings.Join(strings.Fields(value), " ")
}
