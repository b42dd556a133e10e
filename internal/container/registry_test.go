package container

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_UpsertGetListDelete(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "workers.db")
	reg, err := OpenRegistry(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })

	ctx := context.Background()
	w := &Worker{
		Name:          "cloud-code-backend-1",
		ContainerID:   "abc123",
		AgentType:     "backend",
		CodingTool:    "claude-code",
		WorkspacePath: "/ws/task-1",
		Busy:          false,
	}
	require.NoError(t, reg.Upsert(ctx, w))

	got, err := reg.Get(ctx, w.Name)
	require.NoError(t, err)
	require.Equal(t, *w, got)

	w.Busy = true
	w.WorkspacePath = "/ws/task-2"
	require.NoError(t, reg.Upsert(ctx, w))

	got, err = reg.Get(ctx, w.Name)
	require.NoError(t, err)
	require.True(t, got.Busy)
	require.Equal(t, "/ws/task-2", got.WorkspacePath)

	all, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, reg.Delete(ctx, w.Name))
	_, err = reg.Get(ctx, w.Name)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRegistry_DeleteAbsentRowIsNoop(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "workers.db")
	reg, err := OpenRegistry(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })

	require.NoError(t, reg.Delete(context.Background(), "nonexistent"))
}
