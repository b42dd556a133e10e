package codingtool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanForHandoff(t *testing.T) {
	cases := []struct {
		name   string
		output string
		want   bool
	}{
		{"cannot proceed, mixed case", "I CANNOT proceed on this front-end problem", true},
		{"out of expertise", "this is out of my expertise, sorry", true},
		{"stuck mid-sentence", "I'm stuck on the webpack config", true},
		{"plain success output", "Created health.go. All tests pass. Done.", false},
		{"empty output", "", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, scanForHandoff(c.output))
		})
	}
}

func TestSuggestAlternative(t *testing.T) {
	assert.Equal(t, "aider", SuggestAlternative("claude-code"))
	assert.Equal(t, "claude-code", SuggestAlternative("aider"))
	assert.Equal(t, "claude-code", SuggestAlternative("codex"))
	// Unknown names fall back to the default target.
	assert.Equal(t, "claude-code", SuggestAlternative("some-new-tool"))
}
