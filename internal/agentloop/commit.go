package agentloop

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudcode/orchestrator/internal/taskdoc"
)

// commitChanges stages everything and creates a single commit with
// message "feat: {title}\n\nTask ID: {id}". Returns nil, nil if there
// is nothing to commit (git commit --allow-empty is intentionally
// never used — a no-op run yields zero commits).
func commitChanges(ctx context.Context, git GitRunner, workspacePath string, t taskdoc.Task) ([]taskdoc.Commit, error) {
	if _, err := git.Run(ctx, workspacePath, "add", "-A"); err != nil {
		return nil, fmt.Errorf("git add -A: %w", err)
	}

	message := fmt.Sprintf("feat: %s\n\nTask ID: %s", t.Title, t.ID)
	if _, err := git.Run(ctx, workspacePath, "commit", "-m", message); err != nil {
		// Nothing staged is not a failure: a run that made no file
		// changes still completes with zero commits.
		if strings.Contains(err.Error(), "nothing to commit") {
			return nil, nil
		}
		return nil, fmt.Errorf("git commit: %w", err)
	}

	sha, err := git.Run(ctx, workspacePath, "rev-parse", "--short", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("git rev-parse --short HEAD: %w", err)
	}
	sha = strings.TrimSpace(sha)

	return []taskdoc.Commit{{SHA: sha, Message: fmt.Sprintf("feat: %s", t.Title)}}, nil
}
