package tzoracle

import (
	"testing"

	"github.com/corvyn/hxroute/graphview"
	"github.com/corvyn/hxroute/state"
	"github.com/stretchr/testify/require"
)

func lineGraph(n int) *graphview.View {
	v := graphview.New()
	for i := 0; i < n; i++ {
		v.AddNode(state.NodeId(string(rune('a' + i))))
	}
	for i := 0; i < n-1; i++ {
		v.AddUndirectedEdge(state.NodeId(string(rune('a'+i))), state.NodeId(string(rune('a'+i+1))))
	}
	return v
}

func TestBuildCoversEveryNode(t *testing.T) {
	v := lineGraph(10)
	o, err := Build(v, 1)
	require.NoError(t, err)
	require.Len(t, o.Nodes, 10)
	require.NotEmpty(t, o.Landmarks)
}

func TestBuildIsDeterministicForSameSeed(t *testing.T) {
	v := lineGraph(12)
	o1, err := Build(v, 7)
	require.NoError(t, err)
	o2, err := Build(v, 7)
	require.NoError(t, err)
	require.Equal(t, o1.Landmarks, o2.Landmarks)
	for id, t1 := range o1.Nodes {
		t2 := o2.Nodes[id]
		require.Equal(t, t1.Bunch, t2.Bunch)
		require.Equal(t, t1.ClosestLandmark, t2.ClosestLandmark)
	}
}

func TestBunchContainsOnlyCloserThanLandmark(t *testing.T) {
	v := lineGraph(16)
	o, err := Build(v, 3)
	require.NoError(t, err)
	for id, nt := range o.Nodes {
		lmDist := nt.ToLandmark[nt.ClosestLandmark].Dist
		for w, entry := range nt.Bunch {
			require.Lessf(t, entry.Dist, lmDist, "node %s bunch entry %s violates bunch invariant", id, w)
		}
	}
}

func TestBuildEmptyGraph(t *testing.T) {
	v := graphview.New()
	o, err := Build(v, 1)
	require.NoError(t, err)
	require.Empty(t, o.Nodes)
}
