package codingtool

import "context"

// FileChange is one file touched by a coding-tool run, before the
// agent loop turns it into a taskdoc.FileChange with line-count stats.
type FileChange struct {
	Path       string
	ChangeType string // created, modified, deleted
}

// Result is the outcome of one Execute call.
type Result struct {
	Success      bool
	Output       string
	Error        string
	FilesChanged []FileChange
	NeedsHandoff bool
	TokensUsed   int
	CostUSD      float64
	// StructuredSummary is set only by variants that emit a structured
	// trailer (e.g. a closing JSON object) the adapter can parse
	// instead of falling back to extractSummary's last-line heuristic.
	// nil for every variant in providers.go today.
	StructuredSummary *string
}

// Tool is the uniform contract every coding-CLI variant implements.
type Tool interface {
	// Name is the registry key, e.g. "claude-code".
	Name() string
	// IsAvailable reports whether the tool's binary can be located.
	IsAvailable() bool
	// Execute runs prompt against workspace, killing the subprocess if
	// it exceeds timeout.
	Execute(ctx context.Context, prompt, workspace string, timeoutSeconds int) (Result, error)
}
