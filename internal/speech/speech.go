// Package speech wraps the external language services: speech-to-text,
// text-to-speech, spoken-value extraction and instruction localization.
//
// The turn processor treats every call here as best-effort: a failure or
// timeout degrades to the literal/untranslated text and never fails the turn.
package speech

import "context"

// Transcript is a speech-to-text result.
type Transcript struct {
	// Text is the transcribed text in the original language.
	Text string `json:"text"`

	// LanguageCode is the language the service detected, BCP-47
	// region-qualified ("ml-IN"). May be empty if the service did not
	// report one.
	LanguageCode string `json:"language_code"`
}

// Client is the interface to the external speech/LLM provider.
type Client interface {
	// Transcribe converts audio to text. languageCode hints the expected
	// language ("ml-IN"); pass "" to let the service detect it.
	Transcribe(ctx context.Context, audio []byte, languageCode string) (Transcript, error)

	// Synthesize converts text to spoken audio in the given language.
	Synthesize(ctx context.Context, text, languageCode string) ([]byte, error)

	// ExtractFieldValue asks the provider's LLM to pull the field value out
	// of free-form user speech ("my name is John Doe" -> "John Doe").
	ExtractFieldValue(ctx context.Context, fieldLabel, userText, writeLanguage string) (string, error)

	// Localize translates an instruction into the target language.
	Localize(ctx context.Context, text, targetLanguage string) (string, error)
}
