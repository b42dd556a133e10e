package taskgraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectCycle_NoCycleOnDAG(t *testing.T) {
	g := New()
	g.AddEdge("b", "a")
	g.AddEdge("c", "a")
	g.AddEdge("c", "b")

	require.NoError(t, g.DetectCycle())
}

func TestDetectCycle_DetectsSimpleCycle(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")

	err := g.DetectCycle()
	require.Error(t, err)
	var cycleErr *ErrCycle
	require.True(t, errors.As(err, &cycleErr))
}

func TestDetectCycle_DetectsSelfLoop(t *testing.T) {
	g := New()
	g.AddEdge("a", "a")

	require.Error(t, g.DetectCycle())
}

func TestSatisfied_AllDependenciesCompleted(t *testing.T) {
	g := New()
	g.AddEdge("b", "a")

	require.False(t, g.Satisfied("b", map[string]bool{}))
	require.True(t, g.Satisfied("b", map[string]bool{"a": true}))
}

func TestSatisfied_NoDependenciesAlwaysTrue(t *testing.T) {
	g := New()
	g.AddEdge("other-edge-unrelated", "x")

	require.True(t, g.Satisfied("isolated", map[string]bool{}))
}

func TestAddEdge_Idempotent(t *testing.T) {
	g := New()
	g.AddEdge("b", "a")
	g.AddEdge("b", "a")

	require.Equal(t, []string{"a"}, g.byTask["b"])
}

func TestFromDependsOn_BuildsGraph(t *testing.T) {
	g := FromDependsOn(map[string][]string{
		"a": {},
		"b": {"a"},
	})

	require.NoError(t, g.DetectCycle())
	require.False(t, g.Satisfied("b", map[string]bool{}))
	require.True(t, g.Satisfied("b", map[string]bool{"a": true}))
}
