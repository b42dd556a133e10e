package codingtool

import "strings"

// handoffPhrases is the fixed, case-insensitive phrase set the adapter
// scans combined stdout+stderr for after every run. Presence of any
// phrase is advisory, not authoritative — the tool may still have
// partially succeeded.
var handoffPhrases = []string{
	"unable to resolve",
	"stuck",
	"cannot proceed",
	"need different approach",
	"out of my expertise",
	"i cannot",
	"beyond my capabilities",
}

// scanForHandoff reports whether combined stdout+stderr contains any
// of the fixed handoff phrases.
func scanForHandoff(combinedOutput string) bool {
	lower := strings.ToLower(combinedOutput)
	for _, phrase := range handoffPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// handoffPreference maps a tool name to its preferred fallback tool
// when a handoff is requested. Generalized from the original
// implementation's claude-code/aider ping-pong into a small table so
// every registered tool has a configured alternative rather than a
// single hardcoded pair.
var handoffPreference = map[string]string{
	"claude-code": "aider",
	"aider":       "claude-code",
	"codex":       "claude-code",
	"gemini":      "claude-code",
	"continue":    "aider",
	"cursor":      "claude-code",
}

// SuggestAlternative returns the preferred handoff target for name, or
// "claude-code" if name has no configured preference.
func SuggestAlternative(name string) string {
	if alt, ok := handoffPreference[name]; ok {
		return alt
	}
	return "claude-code"
}
