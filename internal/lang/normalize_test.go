package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/speak2fill/speak2fill/internal/form"
)

func TestNormalizeValue_Numeric(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"call 98765 43210 now", "9876543210"},
		{"+91 98765-43210", "919876543210"},
		{"no digits here", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeValue(tt.in, form.WriteLanguageNumeric))
		})
	}
}

func TestNormalizeValue_Text(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "John Doe", "John Doe"},
		{"collapses runs", "John   \t Doe", "John Doe"},
		{"trims ends", "  John Doe  ", "John Doe"},
		{"whitespace only", "   \t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeValue(tt.in, form.WriteLanguageEnglish))
			assert.Equal(t, tt.want, NormalizeValue(tt.in, form.WriteLanguageMalayalam))
		})
	}
}
