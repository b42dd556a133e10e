// Package taskerr defines the closed set of error kinds the orchestrator
// and agent loop branch on. Callers use errors.Is against the sentinel
// Kind values and errors.As against *Error to recover the wrapped cause.
package taskerr

import (
	"errors"
	"fmt"
)

// Kind identifies one of the named error categories from the task
// lifecycle. Kind values are comparable with errors.Is.
type Kind string

const (
	// DocumentCorrupt indicates a tasking/reporting document failed to
	// parse. The orchestrator aborts the affected task; a worker logs
	// and idles rather than crashing its loop.
	DocumentCorrupt Kind = "document_corrupt"

	// WorkspaceSetupFailed indicates a version-control operation
	// (clone, fetch, worktree add, checkout) returned a nonzero exit.
	WorkspaceSetupFailed Kind = "workspace_setup_failed"

	// ToolUnavailable indicates the configured coding-tool binary could
	// not be located on PATH or at a known install location.
	ToolUnavailable Kind = "tool_unavailable"

	// ToolTimeout indicates a coding-tool invocation exceeded its
	// deadline and was killed.
	ToolTimeout Kind = "tool_timeout"

	// HandoffRequested is an advisory signal surfaced by a coding tool
	// asking to be retried under a different tool. Not itself a failure.
	HandoffRequested Kind = "handoff_requested"

	// DependencyNotMet indicates a task's depends_on set is not yet
	// satisfied. Transient: the task remains eligible and is
	// re-evaluated on the next cycle. Not logged as an error.
	DependencyNotMet Kind = "dependency_not_met"

	// ContainerProvisionFailed indicates the container/worker
	// provisioner could not stand up a worker. The orchestrator retries
	// once before failing the task.
	ContainerProvisionFailed Kind = "container_provision_failed"

	// SecretStoreUnavailable indicates the external secret store could
	// not be reached. Credential injection is skipped; the affected
	// coding tool reports itself unavailable rather than the worker
	// refusing to start.
	SecretStoreUnavailable Kind = "secret_store_unavailable"
)

// Error wraps a Kind with a message and an optional underlying cause.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the same Kind, so errors.Is(err,
// taskerr.New(DocumentCorrupt, "", nil)) style checks aren't required —
// callers instead compare against Kind via Is(err, kind).
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// New builds an *Error of the given kind.
func New(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf returns the Kind carried by err, and false if err does not
// wrap a *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}
