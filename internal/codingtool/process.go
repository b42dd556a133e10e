package codingtool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/cloudcode/orchestrator/internal/log"
	"github.com/cloudcode/orchestrator/internal/taskerr"
)

// spec describes one coding-CLI variant's external command line: how
// to locate its binary, how to turn a prompt into argv, and what
// additional environment it needs beyond the inherited process
// environment (secret-store-injected API keys, tool-specific config).
type spec struct {
	// name is the registry key, e.g. "claude-code" — not necessarily
	// the binary's own filename.
	name string
	// binName is the executable LocateBinary looks for on disk.
	binName     string
	envOverride string
	knownDirs   []string
	buildArgs   func(prompt string) []string
	extraEnv    func() []string
}

// process is the spec-driven Tool implementation shared by all six
// variants; only the spec differs between them.
type process struct {
	spec spec
}

func newProcess(s spec) *process {
	return &process{spec: s}
}

func (p *process) Name() string { return p.spec.name }

func (p *process) locate() (string, error) {
	return LocateBinary(p.spec.binName, p.spec.envOverride, p.spec.knownDirs)
}

func (p *process) IsAvailable() bool {
	_, err := p.locate()
	return err == nil
}

func (p *process) Execute(ctx context.Context, prompt, workspace string, timeoutSeconds int) (Result, error) {
	binPath, err := p.locate()
	if err != nil {
		return Result{}, taskerr.New(taskerr.ToolUnavailable, fmt.Sprintf("%s binary not found", p.spec.name), err)
	}

	timeout := time.Duration(timeoutSeconds) * time.Second
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := p.spec.buildArgs(prompt)
	cmd := exec.CommandContext(runCtx, binPath, args...) //nolint:gosec // binPath resolved via LocateBinary, args are built by this package
	cmd.Dir = workspace
	if extra := p.spec.extraEnv(); len(extra) > 0 {
		cmd.Env = append(cmd.Environ(), extra...)
	}

	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	runErr := cmd.Run()
	output := combined.String()

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		log.Warn(log.CatCodingTool, "coding tool timed out", "tool", p.spec.name, "timeout_seconds", timeoutSeconds)
		return Result{
			Success: false,
			Output:  output,
			Error:   fmt.Sprintf("Task timed out after %d seconds", timeoutSeconds),
		}, nil
	}

	result := Result{
		Success:      runErr == nil,
		Output:       output,
		NeedsHandoff: scanForHandoff(output),
	}
	if runErr != nil {
		result.Error = runErr.Error()
	}
	return result, nil
}

var _ Tool = (*process)(nil)
