package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitError(t *testing.T) {
	err := NewExitError(ExitCommandError, "database not found")
	assert.Equal(t, "database not found", err.Error())
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	wrapped := WrapExitError(ExitFailure, "load failed", errors.New("disk on fire"))
	assert.Equal(t, "load failed: disk on fire", wrapped.Error())
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.EqualError(t, errors.Unwrap(wrapped), "disk on fire")
}

func TestGetExitCode_PlainError(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}

func TestGetExitCode_WrappedExitError(t *testing.T) {
	inner := NewExitError(ExitCommandError, "inner")
	outer := fmt.Errorf("context: %w", inner)
	assert.Equal(t, ExitCommandError, GetExitCode(outer))
}

func TestOutputFormatterSuccessJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.SuccessJSON(map[string]string{"hello": "world"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatterErrorJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Error("something broke", "details here"))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "something broke", resp.Error.Message)
}

func TestOutputFormatterErrorText(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Error("something broke", nil))
	assert.Equal(t, "Error: something broke\n", buf.String())
}

func TestOutputFormatterErrorTextVerbose(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf, Verbose: true}

	require.NoError(t, f.Error("something broke", "stack trace"))
	assert.Contains(t, buf.String(), "Details: stack trace")
}
