package harness

import "github.com/speak2fill/speak2fill/internal/turn"

// TraceEvent is one entry in a scenario trace: either the event submitted
// for a turn or the reply it produced.
type TraceEvent struct {
	Type             string                `json:"type"` // "event" or "reply"
	Kind             string                `json:"kind,omitempty"`
	Text             string                `json:"text,omitempty"`
	DetectedLanguage string                `json:"detected_language,omitempty"`
	AssistantText    string                `json:"assistant_text,omitempty"`
	Action           *turn.DrawGuideAction `json:"action,omitempty"`
	Seq              int                   `json:"seq"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	Pass bool `json:"pass"`

	// Trace contains all events and replies in turn order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Replies holds the raw per-turn replies for reply assertions.
	Replies []turn.Reply `json:"-"`

	seq int
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddEventTrace records the event submitted for a turn.
func (r *Result) AddEventTrace(ev turn.Event) {
	r.seq++
	r.Trace = append(r.Trace, TraceEvent{
		Type:             "event",
		Kind:             string(ev.Kind),
		Text:             ev.Text,
		DetectedLanguage: ev.DetectedLanguage,
		Seq:              r.seq,
	})
}

// AddReplyTrace records the reply a turn produced.
func (r *Result) AddReplyTrace(reply turn.Reply) {
	r.seq++
	r.Trace = append(r.Trace, TraceEvent{
		Type:          "reply",
		AssistantText: reply.AssistantText,
		Action:        reply.Action,
		Seq:           r.seq,
	})
	r.Replies = append(r.Replies, reply)
}
