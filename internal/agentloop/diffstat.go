package agentloop

import (
	"context"
	"fmt"
	"strings"

	dmp "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/cloudcode/orchestrator/internal/codingtool"
	"github.com/cloudcode/orchestrator/internal/log"
	"github.com/cloudcode/orchestrator/internal/taskdoc"
	"github.com/cloudcode/orchestrator/internal/workspace"
)

// GitRunner is the subset of workspace.GitRunner this package needs to
// inspect and commit a workspace's working tree.
type GitRunner = workspace.GitRunner

// changedFiles runs `git status --porcelain` in workspacePath and
// decodes each two-character status code into a codingtool.FileChange.
func changedFiles(ctx context.Context, git GitRunner, workspacePath string) ([]codingtool.FileChange, error) {
	out, err := git.Run(ctx, workspacePath, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("git status --porcelain: %w", err)
	}

	var changes []codingtool.FileChange
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(line) < 4 {
			continue
		}
		status := strings.TrimSpace(line[:2])
		path := strings.TrimSpace(line[3:])

		changeType := "modified"
		switch {
		case strings.Contains(status, "A"), strings.Contains(status, "?"):
			changeType = "created"
		case strings.Contains(status, "D"):
			changeType = "deleted"
		}
		changes = append(changes, codingtool.FileChange{Path: path, ChangeType: changeType})
	}
	return changes, nil
}

// lineStats diffs a file's HEAD content against its current working-tree
// content and returns (linesAdded, linesRemoved), using go-diff's
// line-mode diff (chars-per-line tokenization, then a standard Myers
// diff over the token stream, per diffmatchpatch's own recommended
// pattern for line-granular text).
func lineStats(before, after string) (added, removed int) {
	d := dmp.New()
	runesBefore, runesAfter, lines := d.DiffLinesToRunes(before, after)
	diffs := d.DiffMainRunes(runesBefore, runesAfter, false)
	diffs = d.DiffCharsToLines(diffs, lines)

	for _, diff := range diffs {
		lineCount := strings.Count(diff.Text, "\n")
		if !strings.HasSuffix(diff.Text, "\n") && diff.Text != "" {
			lineCount++
		}
		switch diff.Type {
		case dmp.DiffInsert:
			added += lineCount
		case dmp.DiffDelete:
			removed += lineCount
		}
	}
	return added, removed
}

// fileContentAtHEAD returns a file's content at HEAD, or "" if the
// file is untracked/new (git show fails).
func fileContentAtHEAD(ctx context.Context, git GitRunner, workspacePath, path string) string {
	out, err := git.Run(ctx, workspacePath, "show", "HEAD:"+path)
	if err != nil {
		return ""
	}
	return out
}

// annotateLineStats fills in LinesAdded/LinesRemoved for each change by
// diffing its HEAD content against the current working-tree content.
// Deleted files compare their HEAD content against empty; created
// files compare empty against their current content.
func annotateLineStats(ctx context.Context, git GitRunner, workspacePath string, changes []codingtool.FileChange, readCurrent func(path string) (string, error)) []taskdoc.FileChange {
	out := make([]taskdoc.FileChange, 0, len(changes))
	for _, c := range changes {
		before := fileContentAtHEAD(ctx, git, workspacePath, c.Path)
		var after string
		if c.ChangeType != "deleted" {
			if content, err := readCurrent(c.Path); err == nil {
				after = content
			} else {
				log.Warn(log.CatAgent, "failed to read changed file for line stats", "path", c.Path, "error", err.Error())
			}
		}
		added, removed := lineStats(before, after)
		out = append(out, taskdoc.FileChange{
			Path:         c.Path,
			ChangeType:   taskdoc.ChangeType(c.ChangeType),
			LinesAdded:   added,
			LinesRemoved: removed,
		})
	}
	return out
}
