package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ml-IN", "ml"},
		{"hi-IN", "hi"},
		{"en", "en"},
		{"en-US", "en"},
		{"  ta  ", "ta"},
		{"", ""},
		{"not a language!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.in))
		})
	}
}

func TestResolve_StickyWins(t *testing.T) {
	// Once set, a sticky language is never changed by later detections.
	code, persist := Resolve("hi", "ta-IN", "en")
	assert.Equal(t, "hi", code)
	assert.False(t, persist)
}

func TestResolve_DetectedPersistsOnce(t *testing.T) {
	code, persist := Resolve("", "ml-IN", "en")
	assert.Equal(t, "ml", code)
	assert.True(t, persist)
}

func TestResolve_DetectedDefaultNotPersisted(t *testing.T) {
	// Detecting the default language is not worth pinning.
	code, persist := Resolve("", "en-US", "en")
	assert.Equal(t, "en", code)
	assert.False(t, persist)
}

func TestResolve_FallsBackToDefault(t *testing.T) {
	code, persist := Resolve("", "", "en")
	assert.Equal(t, "en", code)
	assert.False(t, persist)

	code, persist = Resolve("", "garbage!!", "en")
	assert.Equal(t, "en", code)
	assert.False(t, persist)
}

func TestResolve_EmptyFallback(t *testing.T) {
	code, _ := Resolve("", "", "")
	assert.Equal(t, DefaultLanguage, code)
}
