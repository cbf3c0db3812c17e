package turn

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speak2fill/speak2fill/internal/form"
)

func composeSession() *form.Session {
	return &form.Session{
		SessionID:   "sess-test",
		ImageWidth:  800,
		ImageHeight: 600,
	}
}

func TestCompose_PromptValue(t *testing.T) {
	c := NewComposer()
	out := Outcome{
		Kind:  OutcomePromptValue,
		Field: voiceField("name", "Name", form.WriteLanguageEnglish),
	}

	reply := c.Compose(context.Background(), composeSession(), out, "en")
	assert.Equal(t, "Please say the value for 'Name'.", reply.AssistantText)
	assert.Nil(t, reply.Action)
}

func TestCompose_WriteGuide(t *testing.T) {
	c := NewComposer()
	field := voiceField("name", "Name", form.WriteLanguageEnglish)
	out := Outcome{Kind: OutcomeWriteGuide, Field: field, Value: "John Doe"}

	reply := c.Compose(context.Background(), composeSession(), out, "en")
	assert.Equal(t, "Please write 'John Doe' in the 'Name' box. Say 'done' when you finish.", reply.AssistantText)

	require.NotNil(t, reply.Action)
	assert.Equal(t, "name", reply.Action.FieldID)
	assert.Equal(t, "John Doe", reply.Action.TextToWrite)
	assert.Equal(t, field.BBox, reply.Action.BBox)
	assert.Equal(t, 800, reply.Action.ImageWidth)
	assert.Equal(t, 600, reply.Action.ImageHeight)
}

func TestCompose_PlaceholderGuideHasEmptyText(t *testing.T) {
	c := NewComposer()
	out := Outcome{Kind: OutcomeWriteGuide, Field: placeholderField("sign", "Signature")}

	reply := c.Compose(context.Background(), composeSession(), out, "en")
	assert.Equal(t, "Please fill in the 'Signature' box, then say 'done'.", reply.AssistantText)
	require.NotNil(t, reply.Action)
	assert.Empty(t, reply.Action.TextToWrite)
}

func TestCompose_Complete(t *testing.T) {
	c := NewComposer()

	reply := c.Compose(context.Background(), composeSession(), Outcome{Kind: OutcomeComplete}, "en")
	assert.Equal(t, "All fields are complete. Thank you!", reply.AssistantText)
	assert.Nil(t, reply.Action)
}

func TestCompose_MalayalamBuiltIn(t *testing.T) {
	c := NewComposer()
	out := Outcome{
		Kind:  OutcomePromptValue,
		Field: voiceField("name", "Name", form.WriteLanguageEnglish),
	}

	reply := c.Compose(context.Background(), composeSession(), out, "ml")
	assert.Equal(t, "'Name' എന്നതിനുള്ള വിവരം പറയുക.", reply.AssistantText)
}

// stubLocalizer implements Localizer for tests.
type stubLocalizer struct {
	out   string
	err   error
	calls int
}

func (l *stubLocalizer) Localize(_ context.Context, _, _ string) (string, error) {
	l.calls++
	return l.out, l.err
}

func TestCompose_LocalizerForUnknownLanguage(t *testing.T) {
	loc := &stubLocalizer{out: "अपना नाम बताइए"}
	c := NewComposer(WithLocalizer(loc))
	out := Outcome{
		Kind:  OutcomePromptValue,
		Field: voiceField("name", "Name", form.WriteLanguageEnglish),
	}

	reply := c.Compose(context.Background(), composeSession(), out, "hi")
	assert.Equal(t, "अपना नाम बताइए", reply.AssistantText)
	assert.Equal(t, 1, loc.calls)
}

func TestCompose_LocalizerFailureFallsBackToEnglish(t *testing.T) {
	loc := &stubLocalizer{err: errors.New("upstream down")}
	c := NewComposer(WithLocalizer(loc))
	out := Outcome{
		Kind:  OutcomePromptValue,
		Field: voiceField("name", "Name", form.WriteLanguageEnglish),
	}

	reply := c.Compose(context.Background(), composeSession(), out, "hi")
	assert.Equal(t, "Please say the value for 'Name'.", reply.AssistantText)
}

func TestCompose_BuiltInLanguagesSkipLocalizer(t *testing.T) {
	loc := &stubLocalizer{out: "should not be used"}
	c := NewComposer(WithLocalizer(loc))
	out := Outcome{Kind: OutcomeComplete}

	c.Compose(context.Background(), composeSession(), out, "en")
	c.Compose(context.Background(), composeSession(), out, "ml")
	assert.Zero(t, loc.calls)
}
