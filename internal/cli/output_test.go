package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_SuccessText(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Success("3 items pending"))
	assert.Equal(t, "3 items pending\n", buf.String())
}

func TestOutputFormatter_SuccessTextNilData(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Success(nil))
	assert.Equal(t, "ok\n", buf.String())
}

func TestOutputFormatter_SuccessJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Success(map[string]int{"pending": 3}))
	assert.JSONEq(t, `{"status":"ok","data":{"pending":3}}`, buf.String())
}

func TestOutputFormatter_FailureText(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Failure(errors.New("queue is offline")))
	assert.Equal(t, "error: queue is offline\n", buf.String())
}

func TestOutputFormatter_FailureJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Failure(errors.New("queue is offline")))
	assert.JSONEq(t, `{"status":"error","error":"queue is offline"}`, buf.String())
}

func TestExitError_Message(t *testing.T) {
	err := NewExitError(ExitCommandError, "missing --user")
	assert.Equal(t, "missing --user", err.Error())

	wrapped := WrapExitError(ExitFailure, "drain failed", errors.New("disk full"))
	assert.Equal(t, "drain failed: disk full", wrapped.Error())
	assert.Equal(t, "disk full", errors.Unwrap(wrapped).Error())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain error")))

	// ExitError recognized through wrapping.
	inner := NewExitError(ExitCommandError, "bad path")
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("context: %w", inner)))
}
