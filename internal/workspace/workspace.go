// Package workspace provisions and reclaims the three kinds of git
// checkout a task can run in: shared (worktree over a cached clone),
// isolated (fresh clone per task), and copy_on_write (byte-copy of the
// cached clone). Every workspace gets a ".cloud-code/" directory
// before any task is dispatched into it.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cloudcode/orchestrator/internal/log"
	"github.com/cloudcode/orchestrator/internal/taskdoc"
	"github.com/cloudcode/orchestrator/internal/taskerr"
)

// Mode is an alias of taskdoc.WorkspaceMode, so a task's
// workspace_mode passes straight through to GetWorkspace.
type Mode = taskdoc.WorkspaceMode

const (
	Shared      = taskdoc.WorkspaceShared
	Isolated    = taskdoc.WorkspaceIsolated
	CopyOnWrite = taskdoc.WorkspaceCopyOnWrite
)

// Info describes a provisioned workspace.
type Info struct {
	Path    string
	Mode    Mode
	Owner   string
	Repo    string
	Branch  string
	TaskID  string
	Ready   bool
}

// GitRunner executes a git subcommand in a working directory. The
// default implementation shells out to the git binary on PATH; tests
// substitute a fake to avoid touching the filesystem/network.
type GitRunner interface {
	Run(ctx context.Context, dir string, args ...string) (output string, err error)
}

// Manager provisions and reclaims workspaces under a root directory.
type Manager struct {
	root string
	git  GitRunner
}

// NewManager returns a Manager rooted at workspacesDir, creating it if
// absent.
func NewManager(workspacesDir string, git GitRunner) (*Manager, error) {
	if err := os.MkdirAll(workspacesDir, 0o750); err != nil {
		return nil, fmt.Errorf("create workspaces root: %w", err)
	}
	return &Manager{root: workspacesDir, git: git}, nil
}

// GetWorkspace provisions (or returns the existing) workspace for a
// task, dispatching to the mode-specific strategy. Idempotent per
// task: calling it twice with the same (owner, repo, taskID, mode)
// returns the same path.
func (m *Manager) GetWorkspace(ctx context.Context, owner, repo, taskID, branch, baseCommit, cloneURL string, mode Mode) (Info, error) {
	switch mode {
	case Shared:
		return m.getSharedWorkspace(ctx, owner, repo, taskID, branch, baseCommit, cloneURL)
	case Isolated:
		return m.getIsolatedWorkspace(ctx, owner, repo, taskID, branch, cloneURL)
	case CopyOnWrite:
		return m.getCOWWorkspace(ctx, owner, repo, taskID, branch, cloneURL)
	default:
		return Info{}, taskerr.New(taskerr.WorkspaceSetupFailed, fmt.Sprintf("unknown workspace mode %q", mode), nil)
	}
}

func (m *Manager) mainClonePath(owner, repo string) string {
	return filepath.Join(m.root, fmt.Sprintf("%s-%s", owner, repo))
}

func defaultCloneURL(owner, repo, cloneURL string) string {
	if cloneURL != "" {
		return cloneURL
	}
	return fmt.Sprintf("https://github.com/%s/%s.git", owner, repo)
}

func (m *Manager) getSharedWorkspace(ctx context.Context, owner, repo, taskID, branch, baseCommit, cloneURL string) (Info, error) {
	mainClone := m.mainClonePath(owner, repo)
	worktreeDir := mainClone + ".worktrees"
	taskWorktree := filepath.Join(worktreeDir, "task-"+taskID)

	if !pathExists(mainClone) {
		if err := m.cloneRepo(ctx, defaultCloneURL(owner, repo, cloneURL), mainClone, ""); err != nil {
			return Info{}, err
		}
	} else if err := m.fetchRepo(ctx, mainClone); err != nil {
		return Info{}, err
	}

	if !pathExists(taskWorktree) {
		if err := os.MkdirAll(worktreeDir, 0o750); err != nil {
			return Info{}, taskerr.New(taskerr.WorkspaceSetupFailed, "create worktree dir", err)
		}
		if err := m.createWorktree(ctx, mainClone, taskWorktree, branch, baseCommit); err != nil {
			return Info{}, err
		}
	}

	if err := taskdoc.EnsureCloudCodeDir(taskWorktree); err != nil {
		return Info{}, taskerr.New(taskerr.WorkspaceSetupFailed, "create .cloud-code dir", err)
	}

	return Info{Path: taskWorktree, Mode: Shared, Owner: owner, Repo: repo, Branch: branch, TaskID: taskID, Ready: true}, nil
}

func (m *Manager) getIsolatedWorkspace(ctx context.Context, owner, repo, taskID, branch, cloneURL string) (Info, error) {
	isolatedDir := filepath.Join(m.root, "isolated")
	taskDir := filepath.Join(isolatedDir, "task-"+taskID)

	if pathExists(taskDir) {
		if err := os.RemoveAll(taskDir); err != nil {
			return Info{}, taskerr.New(taskerr.WorkspaceSetupFailed, "remove stale isolated workspace", err)
		}
	}
	if err := os.MkdirAll(taskDir, 0o750); err != nil {
		return Info{}, taskerr.New(taskerr.WorkspaceSetupFailed, "create isolated workspace dir", err)
	}

	if err := m.cloneRepo(ctx, defaultCloneURL(owner, repo, cloneURL), taskDir, branch); err != nil {
		return Info{}, err
	}
	if err := taskdoc.EnsureCloudCodeDir(taskDir); err != nil {
		return Info{}, taskerr.New(taskerr.WorkspaceSetupFailed, "create .cloud-code dir", err)
	}

	return Info{Path: taskDir, Mode: Isolated, Owner: owner, Repo: repo, Branch: branch, TaskID: taskID, Ready: true}, nil
}

func (m *Manager) getCOWWorkspace(ctx context.Context, owner, repo, taskID, branch, cloneURL string) (Info, error) {
	mainClone := m.mainClonePath(owner, repo)
	cowDir := filepath.Join(m.root, "copy_on_write")
	taskDir := filepath.Join(cowDir, "task-"+taskID)

	if !pathExists(mainClone) {
		if err := m.cloneRepo(ctx, defaultCloneURL(owner, repo, cloneURL), mainClone, ""); err != nil {
			return Info{}, err
		}
	} else if err := m.fetchRepo(ctx, mainClone); err != nil {
		return Info{}, err
	}

	if pathExists(taskDir) {
		if err := os.RemoveAll(taskDir); err != nil {
			return Info{}, taskerr.New(taskerr.WorkspaceSetupFailed, "remove stale copy-on-write workspace", err)
		}
	}
	if err := os.MkdirAll(cowDir, 0o750); err != nil {
		return Info{}, taskerr.New(taskerr.WorkspaceSetupFailed, "create copy-on-write root", err)
	}
	if err := copyTree(mainClone, taskDir); err != nil {
		return Info{}, taskerr.New(taskerr.WorkspaceSetupFailed, "copy cached clone", err)
	}

	if _, err := m.git.Run(ctx, taskDir, "checkout", "-B", branch); err != nil {
		return Info{}, taskerr.New(taskerr.WorkspaceSetupFailed, "checkout branch in copy", err)
	}
	if err := taskdoc.EnsureCloudCodeDir(taskDir); err != nil {
		return Info{}, taskerr.New(taskerr.WorkspaceSetupFailed, "create .cloud-code dir", err)
	}

	return Info{Path: taskDir, Mode: CopyOnWrite, Owner: owner, Repo: repo, Branch: branch, TaskID: taskID, Ready: true}, nil
}

// CleanupWorkspace reclaims a workspace after its task reaches a
// terminal state. Shared-mode workspaces are removed via `git worktree
// remove`; isolated and copy-on-write directories are just deleted.
func (m *Manager) CleanupWorkspace(ctx context.Context, owner, repo, taskID string, mode Mode) error {
	switch mode {
	case Shared:
		mainClone := m.mainClonePath(owner, repo)
		taskWorktree := filepath.Join(mainClone+".worktrees", "task-"+taskID)
		if !pathExists(taskWorktree) {
			return nil
		}
		if pathExists(mainClone) {
			if _, err := m.git.Run(ctx, mainClone, "worktree", "remove", "--force", taskWorktree); err != nil {
				log.Warn(log.CatWorkspace, "git worktree remove failed, falling back to rmtree", "task_id", taskID, "error", err.Error())
				return os.RemoveAll(taskWorktree)
			}
			return nil
		}
		return os.RemoveAll(taskWorktree)
	case Isolated:
		return os.RemoveAll(filepath.Join(m.root, "isolated", "task-"+taskID))
	case CopyOnWrite:
		return os.RemoveAll(filepath.Join(m.root, "copy_on_write", "task-"+taskID))
	default:
		return taskerr.New(taskerr.WorkspaceSetupFailed, fmt.Sprintf("unknown workspace mode %q", mode), nil)
	}
}

func (m *Manager) cloneRepo(ctx context.Context, url, dest, branch string) error {
	args := []string{"clone"}
	if branch != "" {
		args = append(args, "-b", branch)
	}
	args = append(args, url, dest)

	if _, err := m.git.Run(ctx, "", args...); err != nil {
		return taskerr.New(taskerr.WorkspaceSetupFailed, "git clone failed", err)
	}
	log.Info(log.CatWorkspace, "cloned repository", "dest", dest)
	return nil
}

func (m *Manager) fetchRepo(ctx context.Context, repoDir string) error {
	if _, err := m.git.Run(ctx, repoDir, "fetch", "--all", "--prune"); err != nil {
		return taskerr.New(taskerr.WorkspaceSetupFailed, "git fetch failed", err)
	}
	return nil
}

func (m *Manager) createWorktree(ctx context.Context, mainClone, worktreePath, branch, baseCommit string) error {
	base := baseCommit
	if base == "" {
		base = "HEAD"
	}
	if _, err := m.git.Run(ctx, mainClone, "worktree", "add", "-b", branch, worktreePath, base); err != nil {
		return taskerr.New(taskerr.WorkspaceSetupFailed, "git worktree add failed", err)
	}
	return nil
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
