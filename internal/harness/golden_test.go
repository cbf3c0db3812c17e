package harness

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestScenarios replays every scenario under testdata/scenarios and compares
// each trace against its golden transcript. Add a new scenario by dropping a
// YAML file in testdata/scenarios and running with -update once.
func TestScenarios(t *testing.T) {
	scenarios, err := LoadScenarioDir("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios, "no scenario files found")

	for _, scenario := range scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestMarshalSnapshot_Deterministic(t *testing.T) {
	snapshot := TranscriptSnapshot{
		ScenarioName: "det",
		Trace: []TraceEvent{
			{Type: "event", Kind: "USER_SPOKE", Text: "hi", Seq: 1},
		},
	}

	first, err := marshalSnapshot(snapshot)
	require.NoError(t, err)
	second, err := marshalSnapshot(snapshot)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestMarshalSnapshot_NoHTMLEscaping(t *testing.T) {
	snapshot := TranscriptSnapshot{
		ScenarioName: "esc",
		Trace: []TraceEvent{
			{Type: "event", Kind: "USER_SPOKE", Text: "a < b & c", Seq: 1},
		},
	}

	out, err := marshalSnapshot(snapshot)
	require.NoError(t, err)
	require.Contains(t, string(out), "a < b & c")
}
