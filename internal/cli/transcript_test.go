package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speak2fill/speak2fill/internal/form"
	"github.com/speak2fill/speak2fill/internal/store"
	"github.com/speak2fill/speak2fill/internal/turn"
)

func seedSessionWithTurns(t *testing.T) (string, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transcript.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	fields := []form.FormField{
		{FieldID: "name", Label: "Name", BBox: form.BBox{10, 20, 200, 60},
			InputMode: form.InputModeVoice, WriteLanguage: form.WriteLanguageEnglish},
	}
	sess, err := st.Create(context.Background(), fields, 800, 600)
	require.NoError(t, err)

	svc := turn.NewService(st)
	_, err = svc.HandleTurn(context.Background(), sess.SessionID,
		turn.Event{Kind: turn.EventUserSpoke, Text: "John Doe"})
	require.NoError(t, err)

	return path, sess.SessionID
}

func TestTranscriptCommand_Text(t *testing.T) {
	path, id := seedSessionWithTurns(t)

	out, err := executeCommand(t, "transcript", "--db", path, "--session", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Session: "+id)
	assert.Contains(t, out, "John Doe")
	assert.Contains(t, out, "user")
	assert.Contains(t, out, "assistant")
	assert.Contains(t, out, "Collected values:")
	assert.Contains(t, out, "Name: John Doe")
}

func TestTranscriptCommand_JSON(t *testing.T) {
	path, id := seedSessionWithTurns(t)

	out, err := executeCommand(t, "transcript", "--db", path, "--session", id, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   TranscriptResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, id, resp.Data.SessionID)
	assert.Len(t, resp.Data.Messages, 2)
	assert.Equal(t, "John Doe", resp.Data.CollectedValues["name"])
	assert.False(t, resp.Data.Complete)
}

func TestTranscriptCommand_UnknownSession(t *testing.T) {
	path, _ := seedSessionWithTurns(t)

	_, err := executeCommand(t, "transcript", "--db", path, "--session", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "session not found")
}
