package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalScenario() *Scenario {
	return &Scenario{
		Name:        "minimal",
		Description: "Minimal test scenario",
		ImageWidth:  800,
		ImageHeight: 600,
		Fields: []FieldDef{
			{FieldID: "name", Label: "Name", BBox: []int{10, 20, 200, 60}, InputMode: "voice", WriteLanguage: "en"},
		},
		Turns: []TurnStep{
			{Kind: "USER_SPOKE", Text: "John Doe"},
		},
		Assertions: []Assertion{
			{Type: AssertCollectedValue, FieldID: "name", Value: "John Doe"},
		},
	}
}

func TestRun_MinimalScenario(t *testing.T) {
	result, err := Run(minimalScenario())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)

	// One turn produces two trace events (event + reply)
	require.Len(t, result.Trace, 2)
	assert.Equal(t, "event", result.Trace[0].Type)
	assert.Equal(t, "USER_SPOKE", result.Trace[0].Kind)
	assert.Equal(t, 1, result.Trace[0].Seq)
	assert.Equal(t, "reply", result.Trace[1].Type)
	assert.Equal(t, 2, result.Trace[1].Seq)

	require.NotNil(t, result.Trace[1].Action)
	assert.Equal(t, "John Doe", result.Trace[1].Action.TextToWrite)
	assert.Equal(t, 800, result.Trace[1].Action.ImageWidth)
}

func TestRun_FailedAssertionReported(t *testing.T) {
	s := minimalScenario()
	s.Assertions = []Assertion{
		{Type: AssertCollectedValue, FieldID: "name", Value: "Somebody Else"},
	}

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "collected_value")
}

func TestRun_MultiTurnTrace(t *testing.T) {
	s := minimalScenario()
	s.Turns = []TurnStep{
		{Kind: "USER_SPOKE", Text: "John Doe"},
		{Kind: "CONFIRM_DONE"},
	}
	s.Assertions = []Assertion{
		{Type: AssertFinalIndex, Index: 1},
		{Type: AssertReplyContains, Turn: 1, Text: "complete"},
	}

	result, err := Run(s)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Trace, 4)
	assert.Len(t, result.Replies, 2)

	// Completion reply carries no action
	assert.Nil(t, result.Trace[3].Action)
}

func TestRun_InvalidCatalogFails(t *testing.T) {
	s := minimalScenario()
	// Degenerate bbox fails catalog validation
	s.Fields[0].BBox = []int{200, 60, 10, 20}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scenario catalog")
}

func TestRun_DefaultLanguageApplied(t *testing.T) {
	s := minimalScenario()
	s.DefaultLanguage = "ml"
	s.Assertions = []Assertion{
		{Type: AssertReplyContains, Turn: 0, Text: "എഴുതുക"},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}
