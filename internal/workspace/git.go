package workspace

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// SubprocessGitRunner runs git commands via the git binary on PATH.
type SubprocessGitRunner struct{}

// Run implements GitRunner by shelling out to `git <args...>` with cwd
// set to dir (unless dir is empty, e.g. for `git clone`).
func (SubprocessGitRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// git reports some refusals (e.g. "nothing to commit") on
		// stdout, so both streams go into the error.
		return "", fmt.Errorf("git %v: %w: %s%s", args, err, stderr.String(), stdout.String())
	}
	return stdout.String(), nil
}

var _ GitRunner = SubprocessGitRunner{}
