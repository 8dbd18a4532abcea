package pie

import (
	"testing"

	"github.com/corvyn/hxroute/graphview"
	"github.com/corvyn/hxroute/hyperbolic"
	"github.com/corvyn/hxroute/state"
	"github.com/stretchr/testify/require"
)

func star(center state.NodeId, leaves ...state.NodeId) *graphview.View {
	v := graphview.New()
	for _, l := range leaves {
		v.AddUndirectedEdge(center, l)
	}
	return v
}

func TestEmbedRootAtOrigin(t *testing.T) {
	v := star("hub", "a", "b", "c")
	res, err := Embed(v)
	require.NoError(t, err)
	require.Equal(t, state.NodeId("hub"), res.Root)
	require.Equal(t, hyperbolic.Origin, res.Coordinates["hub"])
}

func TestEmbedChildrenInsideDisk(t *testing.T) {
	v := star("hub", "a", "b", "c", "d", "e")
	res, err := Embed(v)
	require.NoError(t, err)
	for id, p := range res.Coordinates {
		require.Lessf(t, p.Norm(), 1.0, "node %s escaped the disk", id)
	}
}

func TestEmbedDeeperNodesHaveLargerRadius(t *testing.T) {
	v := graphview.New()
	v.AddUndirectedEdge("root", "mid")
	v.AddUndirectedEdge("root", "x")
	v.AddUndirectedEdge("root", "y")
	v.AddUndirectedEdge("mid", "leaf")
	res, err := Embed(v)
	require.NoError(t, err)
	require.Less(t, res.Coordinates["root"].Norm(), res.Coordinates["mid"].Norm())
	require.Less(t, res.Coordinates["mid"].Norm(), res.Coordinates["leaf"].Norm())
}

func TestEmbedSiblingsGetDistinctAngles(t *testing.T) {
	v := star("hub", "a", "b")
	res, err := Embed(v)
	require.NoError(t, err)
	a, b := res.Coordinates["a"], res.Coordinates["b"]
	require.NotEqual(t, a, b)
}

func TestEmbedReportsUnreachedComponent(t *testing.T) {
	v := graphview.New()
	v.AddUndirectedEdge("a", "b")
	v.AddUndirectedEdge("x", "y")
	res, err := Embed(v)
	require.NoError(t, err)
	require.ElementsMatch(t, []state.NodeId{"x", "y"}, res.Unreached)
}

func TestEmbedComponentsCoversEveryNode(t *testing.T) {
	v := graphview.New()
	v.AddUndirectedEdge("a", "b")
	v.AddUndirectedEdge("x", "y")
	v.AddUndirectedEdge("x", "z")

	results, err := EmbedComponents(v)
	require.NoError(t, err)
	require.Len(t, results, 2)

	total := 0
	for _, r := range results {
		require.Empty(t, r.Unreached)
		total += len(r.Coordinates)
	}
	require.Equal(t, 5, total)
}
