package codingtool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudcode/orchestrator/internal/taskerr"
)

// shellTool builds a process variant backed by /bin/sh so Execute's
// subprocess plumbing can be exercised without any real coding CLI
// installed.
func shellTool(script string) *process {
	return newProcess(spec{
		name:      "fake-tool",
		binName:   "sh",
		buildArgs: func(string) []string { return []string{"-c", script} },
		extraEnv:  func() []string { return nil },
	})
}

func TestExecute_SuccessCapturesOutput(t *testing.T) {
	tool := shellTool("echo implementation finished")

	result, err := tool.Execute(context.Background(), "prompt", t.TempDir(), 30)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.Output, "implementation finished")
	assert.False(t, result.NeedsHandoff)
}

func TestExecute_NonZeroExitIsFailure(t *testing.T) {
	tool := shellTool("echo broken build >&2; exit 3")

	result, err := tool.Execute(context.Background(), "prompt", t.TempDir(), 30)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.Contains(t, result.Output, "broken build")
}

func TestExecute_HandoffPhraseDetected(t *testing.T) {
	tool := shellTool("echo 'I cannot proceed with this task'")

	result, err := tool.Execute(context.Background(), "prompt", t.TempDir(), 30)
	require.NoError(t, err)
	assert.True(t, result.NeedsHandoff)
}

func TestExecute_TimeoutKillsSubprocess(t *testing.T) {
	tool := shellTool("sleep 30")

	result, err := tool.Execute(context.Background(), "prompt", t.TempDir(), 1)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Task timed out after 1 seconds", result.Error)
}

func TestExecute_MissingBinaryIsToolUnavailable(t *testing.T) {
	tool := newProcess(spec{
		name:      "ghost",
		binName:   "definitely-not-a-real-binary-name",
		buildArgs: func(string) []string { return nil },
		extraEnv:  func() []string { return nil },
	})

	_, err := tool.Execute(context.Background(), "prompt", t.TempDir(), 30)
	require.Error(t, err)
	assert.True(t, taskerr.Is(err, taskerr.ToolUnavailable))
}
