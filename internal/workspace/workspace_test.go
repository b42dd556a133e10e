package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeGit records invocations and fakes `git clone`/`worktree add` by
// creating the destination directory, so tests never touch the
// network or a real git binary.
type fakeGit struct {
	mu    sync.Mutex
	calls [][]string
}

func (f *fakeGit) Run(_ context.Context, dir string, args ...string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{dir}, args...))
	f.mu.Unlock()

	switch args[0] {
	case "clone":
		dest := args[len(args)-1]
		return "", os.MkdirAll(dest, 0o750)
	case "worktree":
		if args[1] == "add" {
			dest := args[3]
			return "", os.MkdirAll(dest, 0o750)
		}
		return "", nil
	default:
		return "", nil
	}
}

func TestGetWorkspace_Shared_CreatesMainCloneAndWorktree(t *testing.T) {
	root := t.TempDir()
	git := &fakeGit{}
	m, err := NewManager(root, git)
	require.NoError(t, err)

	info, err := m.GetWorkspace(context.Background(), "acme", "app", "t1", "cloud-code/issue-1", "", "", Shared)
	require.NoError(t, err)
	require.True(t, info.Ready)
	require.DirExists(t, info.Path)
	require.DirExists(t, filepath.Join(info.Path, ".cloud-code"))
}

func TestGetWorkspace_Shared_IdempotentSamePath(t *testing.T) {
	root := t.TempDir()
	git := &fakeGit{}
	m, err := NewManager(root, git)
	require.NoError(t, err)

	info1, err := m.GetWorkspace(context.Background(), "acme", "app", "t1", "b", "", "", Shared)
	require.NoError(t, err)
	info2, err := m.GetWorkspace(context.Background(), "acme", "app", "t1", "b", "", "", Shared)
	require.NoError(t, err)

	require.Equal(t, info1.Path, info2.Path)
}

func TestGetWorkspace_Isolated_CreatesFreshDir(t *testing.T) {
	root := t.TempDir()
	git := &fakeGit{}
	m, err := NewManager(root, git)
	require.NoError(t, err)

	info, err := m.GetWorkspace(context.Background(), "acme", "app", "t2", "b", "", "", Isolated)
	require.NoError(t, err)
	require.True(t, info.Ready)
	require.DirExists(t, filepath.Join(info.Path, ".cloud-code"))
}

func TestGetWorkspace_CopyOnWrite_ChecksOutBranch(t *testing.T) {
	root := t.TempDir()
	git := &fakeGit{}
	m, err := NewManager(root, git)
	require.NoError(t, err)

	info, err := m.GetWorkspace(context.Background(), "acme", "app", "t3", "feature-x", "", "", CopyOnWrite)
	require.NoError(t, err)
	require.True(t, info.Ready)

	found := false
	for _, c := range git.calls {
		if len(c) >= 3 && c[1] == "checkout" && c[2] == "-B" {
			found = true
		}
	}
	require.True(t, found, "expected a checkout -B call")
}

func TestGetWorkspace_UnknownMode(t *testing.T) {
	root := t.TempDir()
	m, err := NewManager(root, &fakeGit{})
	require.NoError(t, err)

	_, err = m.GetWorkspace(context.Background(), "acme", "app", "t4", "b", "", "", Mode("bogus"))
	require.Error(t, err)
}

func TestCleanupWorkspace_Isolated_RemovesDirectory(t *testing.T) {
	root := t.TempDir()
	git := &fakeGit{}
	m, err := NewManager(root, git)
	require.NoError(t, err)

	info, err := m.GetWorkspace(context.Background(), "acme", "app", "t5", "b", "", "", Isolated)
	require.NoError(t, err)

	require.NoError(t, m.CleanupWorkspace(context.Background(), "acme", "app", "t5", Isolated))
	require.NoDirExists(t, info.Path)
}
