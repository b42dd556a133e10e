package eventadapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	t.Run("handoff with target, surrounded by other text", func(t *testing.T) {
		cmd, ok := ParseCommand("hello\n/cloud-code handoff backend\nthanks")
		require.True(t, ok)
		assert.Equal(t, ActionHandoff, cmd.Action)
		assert.Equal(t, "backend", cmd.TargetAgent)
	})

	t.Run("run is case-insensitive", func(t *testing.T) {
		cmd, ok := ParseCommand("/CLOUD-CODE run frontend")
		require.True(t, ok)
		assert.Equal(t, ActionRun, cmd.Action)
		assert.Equal(t, "frontend", cmd.AgentType)
	})

	t.Run("no command prefix returns none", func(t *testing.T) {
		_, ok := ParseCommand("just a regular comment, no command here")
		assert.False(t, ok)
	})

	t.Run("run with no arguments leaves agent type empty", func(t *testing.T) {
		cmd, ok := ParseCommand("/cloud-code run")
		require.True(t, ok)
		assert.Equal(t, ActionRun, cmd.Action)
		assert.Empty(t, cmd.AgentType)
	})

	t.Run("cancel takes no arguments", func(t *testing.T) {
		cmd, ok := ParseCommand("/cloud-code cancel")
		require.True(t, ok)
		assert.Equal(t, ActionCancel, cmd.Action)
	})

	t.Run("reject keeps free-text reason intact", func(t *testing.T) {
		cmd, ok := ParseCommand("/cloud-code reject not what I asked for, please redo")
		require.True(t, ok)
		assert.Equal(t, ActionReject, cmd.Action)
		assert.Equal(t, "not what I asked for, please redo", cmd.Reason)
	})

	t.Run("config splits key from rest-of-line value", func(t *testing.T) {
		cmd, ok := ParseCommand("/cloud-code config default_coding_cli aider")
		require.True(t, ok)
		assert.Equal(t, ActionConfig, cmd.Action)
		assert.Equal(t, "default_coding_cli", cmd.Key)
		assert.Equal(t, "aider", cmd.Value)
	})

	t.Run("handoff with no target leaves it empty", func(t *testing.T) {
		cmd, ok := ParseCommand("/cloud-code handoff")
		require.True(t, ok)
		assert.Equal(t, ActionHandoff, cmd.Action)
		assert.Empty(t, cmd.TargetAgent)
	})
}
