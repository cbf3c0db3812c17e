package turn

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/speak2fill/speak2fill/internal/form"
)

// Reply is the user-visible output of one turn.
type Reply struct {
	// AssistantText is the instruction to speak/display.
	AssistantText string `json:"assistant_text"`

	// Action is the draw-guide visual instruction. Present exactly when the
	// turn ends in AWAIT_CONFIRMATION (including a placeholder's auto-guide);
	// null for ASK_INPUT prompts and completed sessions.
	Action *DrawGuideAction `json:"action"`
}

// DrawGuideAction tells the client what text to write and where.
type DrawGuideAction struct {
	FieldID     string    `json:"field_id"`
	Label       string    `json:"label"`
	TextToWrite string    `json:"text_to_write"`
	BBox        form.BBox `json:"bbox"`
	ImageWidth  int       `json:"image_width"`
	ImageHeight int       `json:"image_height"`
}

// Localizer translates instruction text. Satisfied by speech.Client; nil
// means unsupported languages fall back to English.
type Localizer interface {
	Localize(ctx context.Context, text, targetLanguage string) (string, error)
}

// messageKey selects an instruction template.
type messageKey string

const (
	msgPromptValue messageKey = "prompt_value"
	msgWriteGuide  messageKey = "write_guide"
	msgWriteHere   messageKey = "write_here"
	msgComplete    messageKey = "complete"
)

// Built-in instruction templates. Languages without an entry go through the
// localizer (best-effort) on top of the English text.
var messages = map[string]map[messageKey]string{
	"en": {
		msgPromptValue: "Please say the value for '%s'.",
		msgWriteGuide:  "Please write '%s' in the '%s' box. Say 'done' when you finish.",
		msgWriteHere:   "Please fill in the '%s' box, then say 'done'.",
		msgComplete:    "All fields are complete. Thank you!",
	},
	"ml": {
		msgPromptValue: "'%s' എന്നതിനുള്ള വിവരം പറയുക.",
		msgWriteGuide:  "'%s' എന്നത് '%s' എന്ന കള്ളിയിൽ എഴുതുക. എഴുതിക്കഴിഞ്ഞാൽ 'ചെയ്തു' എന്ന് പറയുക.",
		msgWriteHere:   "'%s' എന്ന കള്ളി പൂരിപ്പിക്കുക. എഴുതിക്കഴിഞ്ഞാൽ 'ചെയ്തു' എന്ന് പറയുക.",
		msgComplete:    "എല്ലാ കള്ളികളും പൂർത്തിയായി. നന്ദി!",
	},
}

// Composer maps processor outcomes to the two user-visible channels:
// instruction text and the optional draw-guide action.
type Composer struct {
	localizer Localizer
	logger    *slog.Logger
}

// ComposerOption configures a Composer.
type ComposerOption func(*Composer)

// WithLocalizer enables translation for languages without built-in
// templates. Localization failures fall back to English.
func WithLocalizer(l Localizer) ComposerOption {
	return func(c *Composer) {
		c.localizer = l
	}
}

// NewComposer creates a Composer.
func NewComposer(opts ...ComposerOption) *Composer {
	c := &Composer{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose renders the reply for an outcome in the resolved language.
// The session supplies image dimensions for guide-box coordinate scaling.
func (c *Composer) Compose(ctx context.Context, sess *form.Session, out Outcome, langCode string) Reply {
	switch out.Kind {
	case OutcomeComplete:
		return Reply{AssistantText: c.render(ctx, langCode, msgComplete)}

	case OutcomePromptValue:
		return Reply{AssistantText: c.render(ctx, langCode, msgPromptValue, out.Field.Label)}

	case OutcomeWriteGuide:
		var text string
		if out.Value == "" {
			text = c.render(ctx, langCode, msgWriteHere, out.Field.Label)
		} else {
			text = c.render(ctx, langCode, msgWriteGuide, out.Value, out.Field.Label)
		}
		return Reply{
			AssistantText: text,
			Action: &DrawGuideAction{
				FieldID:     out.Field.FieldID,
				Label:       out.Field.Label,
				TextToWrite: out.Value,
				BBox:        out.Field.BBox,
				ImageWidth:  sess.ImageWidth,
				ImageHeight: sess.ImageHeight,
			},
		}

	default:
		// Unreachable with a correct processor.
		return Reply{AssistantText: c.render(ctx, langCode, msgComplete)}
	}
}

// render formats a template in langCode, translating via the localizer for
// languages without built-in templates.
func (c *Composer) render(ctx context.Context, langCode string, key messageKey, args ...any) string {
	if tmpl, ok := messages[langCode][key]; ok {
		return fmt.Sprintf(tmpl, args...)
	}

	english := fmt.Sprintf(messages["en"][key], args...)
	if langCode == "" || langCode == "en" || c.localizer == nil {
		return english
	}

	localized, err := c.localizer.Localize(ctx, english, langCode)
	if err != nil || localized == "" {
		if err != nil {
			c.logger.Warn("localization failed, using english",
				"language", langCode, "error", err)
		}
		return english
	}
	return localized
}
