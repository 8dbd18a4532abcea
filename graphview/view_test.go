package graphview

import (
	"testing"

	"github.com/corvyn/hxroute/state"
	"github.com/stretchr/testify/require"
)

func lineGraph(n int) *View {
	v := New()
	for i := 0; i < n; i++ {
		v.AddNode(state.NodeId(string(rune('a' + i))))
	}
	for i := 0; i < n-1; i++ {
		v.AddUndirectedEdge(state.NodeId(string(rune('a'+i))), state.NodeId(string(rune('a'+i+1))))
	}
	return v
}

func TestNeighborsStableOrder(t *testing.T) {
	v := New()
	v.AddUndirectedEdge("a", "c")
	v.AddUndirectedEdge("a", "b")
	ns := v.Neighbors("a")
	require.Equal(t, []state.NodeId{"b", "c"}, ns)
}

func TestUnknownNodeNotPresentNotError(t *testing.T) {
	v := New()
	require.Nil(t, v.Neighbors("ghost"))
	require.Equal(t, 0, v.Degree("ghost"))
	require.False(t, v.HasNode("ghost"))
}

func TestBFSDistancesOnLine(t *testing.T) {
	v := lineGraph(5)
	res, err := v.BFS("a", nil)
	require.NoError(t, err)
	require.Equal(t, 0, res.Depth["a"])
	require.Equal(t, 4, res.Depth["e"])
	require.Equal(t, state.NodeId("d"), res.Parent["e"])
}

func TestBFSUnknownSourceIsEmpty(t *testing.T) {
	v := New()
	res, err := v.BFS("ghost", nil)
	require.NoError(t, err)
	require.Empty(t, res.Order)
}

func TestSpanningTreeChildrenSorted(t *testing.T) {
	v := New()
	v.AddUndirectedEdge("root", "c")
	v.AddUndirectedEdge("root", "a")
	v.AddUndirectedEdge("root", "b")
	st, err := v.BuildSpanningTree("root")
	require.NoError(t, err)
	require.Equal(t, []state.NodeId{"a", "b", "c"}, st.Children["root"])
	require.Equal(t, 1, st.Depth["a"])
}

func TestComponentsSplitsDisconnectedGraph(t *testing.T) {
	v := New()
	v.AddUndirectedEdge("a", "b")
	v.AddUndirectedEdge("x", "y")
	comps := v.Components()
	require.Len(t, comps, 2)
	require.Equal(t, []state.NodeId{"a", "b"}, comps[0])
	require.Equal(t, []state.NodeId{"x", "y"}, comps[1])
}

func TestSubgraphExcludesDeadNodes(t *testing.T) {
	v := lineGraph(4) // a-b-c-d
	sub := v.Subgraph(map[state.NodeId]bool{"c": true})
	require.False(t, sub.HasNode("c"))
	require.True(t, sub.HasNode("b"))
	require.Equal(t, []state.NodeId{"a"}, sub.Neighbors("b"))
}

func TestMaxDegreeRootTieBreaksById(t *testing.T) {
	v := New()
	v.AddUndirectedEdge("b", "z")
	v.AddUndirectedEdge("a", "y")
	root, ok := v.MaxDegreeRoot()
	require.True(t, ok)
	require.Equal(t, state.NodeId("a"), root)
}

func TestGenerationIncrementsOnStructuralChange(t *testing.T) {
	v := New()
	g0 := v.Generation()
	v.AddEdge("a", "b")
	require.Greater(t, v.Generation(), g0)
	g1 := v.Generation()
	v.AddEdge("a", "b") // duplicate, no structural change
	require.Equal(t, g1, v.Generation())
}
