package agentloop

import (
	"strings"

	"github.com/cloudcode/orchestrator/internal/codingtool"
	"github.com/cloudcode/orchestrator/internal/taskdoc"
)

// OutcomeKind tags one branch of an ExecOutcome. Handoff recognition
// and timeout are modeled as explicit result variants the caller
// branches on, rather than inferred from a bag of optional fields.
type OutcomeKind string

const (
	OutcomeSuccess      OutcomeKind = "success"
	OutcomeNeedsHandoff OutcomeKind = "needs_handoff"
	OutcomeFailed       OutcomeKind = "failed"
	OutcomeTimedOut     OutcomeKind = "timed_out"
)

// ExecOutcome is the result of running one task through a
// codingtool.Tool, classified into exactly one of four branches.
type ExecOutcome struct {
	Kind OutcomeKind

	// Success fields.
	FilesModified  []taskdoc.FileChange
	Commits        []taskdoc.Commit
	Summary        string
	ChangesSummary string

	// NeedsHandoff fields.
	HandoffReason string

	// Failed / TimedOut fields.
	ErrMessage string
}

// classifyResult maps a codingtool.Result onto the tagged ExecOutcome
// the execution procedure branches on. Timeout is distinguished from a
// generic failure by the fixed message Execute reports for it.
func classifyResult(r codingtool.Result) ExecOutcome {
	if !r.Success && strings.HasPrefix(r.Error, "Task timed out after") {
		return ExecOutcome{Kind: OutcomeTimedOut, ErrMessage: r.Error}
	}
	if r.NeedsHandoff {
		return ExecOutcome{Kind: OutcomeNeedsHandoff}
	}
	if r.Success {
		return ExecOutcome{Kind: OutcomeSuccess}
	}
	errMsg := r.Error
	if errMsg == "" {
		errMsg = "coding tool reported failure with no error message"
	}
	return ExecOutcome{Kind: OutcomeFailed, ErrMessage: errMsg}
}
