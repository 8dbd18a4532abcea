package forwarding

import (
	"testing"

	"github.com/corvyn/hxroute/graphview"
	"github.com/corvyn/hxroute/hyperbolic"
	"github.com/corvyn/hxroute/state"
	"github.com/corvyn/hxroute/tzoracle"
	"github.com/stretchr/testify/require"
)

func buildLineView() *graphview.View {
	v := graphview.New()
	v.AddUndirectedEdge("a", "b")
	v.AddUndirectedEdge("b", "c")
	v.AddUndirectedEdge("c", "d")
	return v
}

// fakeNet is a tiny in-memory Neighborhood for FSM tests: a line topology
// a-b-c-d with coordinates increasing in x toward d.
type fakeNet struct {
	neighbors map[state.NodeId][]state.NodeId
	coords    map[state.NodeId]hyperbolic.Point
	dead      map[state.NodeId]bool
	parent    map[state.NodeId]state.NodeId
	children  map[state.NodeId][]state.NodeId
}

func (f *fakeNet) Neighbors(u state.NodeId) []state.NodeId { return f.neighbors[u] }
func (f *fakeNet) Coordinate(u state.NodeId) (hyperbolic.Point, bool) {
	p, ok := f.coords[u]
	return p, ok
}
func (f *fakeNet) IsAlive(u state.NodeId) bool { return !f.dead[u] }
func (f *fakeNet) TreeParent(u state.NodeId) (state.NodeId, bool) {
	p, ok := f.parent[u]
	return p, ok
}
func (f *fakeNet) TreeChildren(u state.NodeId) []state.NodeId { return f.children[u] }
func (f *fakeNet) Size() int                                  { return len(f.coords) }

func lineNet() *fakeNet {
	return &fakeNet{
		neighbors: map[state.NodeId][]state.NodeId{
			"a": {"b"},
			"b": {"a", "c"},
			"c": {"b", "d"},
			"d": {"c"},
		},
		coords: map[state.NodeId]hyperbolic.Point{
			"a": {X: 0.0, Y: 0},
			"b": {X: 0.2, Y: 0},
			"c": {X: 0.4, Y: 0},
			"d": {X: 0.6, Y: 0},
		},
		dead:     map[state.NodeId]bool{},
		parent:   map[state.NodeId]state.NodeId{},
		children: map[state.NodeId][]state.NodeId{},
	}
}

func TestRouteDeliversAtDestination(t *testing.T) {
	net := lineNet()
	p := state.NewPacket("a", "b", 0.2, 0, 10)
	d := Route("b", p, net, nil)
	require.Equal(t, DecisionDeliver, d.Kind)
}

func TestRouteTTLExpired(t *testing.T) {
	net := lineNet()
	p := state.NewPacket("a", "d", 0.6, 0, 0)
	d := Route("a", p, net, nil)
	require.Equal(t, DecisionFail, d.Kind)
	require.Equal(t, FailTTLExpired, d.Reason)
}

func TestGravityForwardsTowardDestination(t *testing.T) {
	net := lineNet()
	p := state.NewPacket("a", "d", 0.6, 0, 10)
	d := Route("a", p, net, nil)
	require.Equal(t, DecisionForward, d.Kind)
	require.Equal(t, state.NodeId("b"), d.NextHop)
	require.Equal(t, state.ModeGravity, p.Mode)
}

func TestGravityFallsBackToPressureAtLocalMinimum(t *testing.T) {
	net := lineNet()
	// a is a local minimum w.r.t. a destination coordinate placed behind it.
	net.coords["a"] = hyperbolic.Point{X: -0.5, Y: 0}
	net.coords["b"] = hyperbolic.Point{X: 0.5, Y: 0}
	p := state.NewPacket("a", "d", -0.9, 0, 10)
	d := Route("a", p, net, nil)
	require.Equal(t, state.ModePressure, p.Mode)
	require.Equal(t, DecisionForward, d.Kind)
}

func TestPressureStickyRecoveryReturnsToGravity(t *testing.T) {
	net := lineNet()
	p := state.NewPacket("a", "d", 0.6, 0, 10)
	p.Mode = state.ModePressure
	p.RecoveryThreshold = 10 // any current distance is far below this
	p.PressureBudget = 5
	d := Route("a", p, net, nil)
	require.Equal(t, state.ModeGravity, p.Mode)
	require.Equal(t, DecisionForward, d.Kind)
}

func TestTreeDFSVisitsUnvisitedNeighborFirst(t *testing.T) {
	net := lineNet()
	p := state.NewPacket("a", "d", 0.6, 0, 10)
	p.Mode = state.ModeTree
	p.RecoveryThreshold = -1000 // never triggers sticky-recovery
	p.Visit("a")
	d := Route("a", p, net, nil)
	require.Equal(t, DecisionForward, d.Kind)
	require.Equal(t, state.NodeId("b"), d.NextHop)
}

func TestTreeDFSBacktracksWhenStuck(t *testing.T) {
	net := lineNet()
	net.dead["c"] = true // d's only route is cut off past b
	p := state.NewPacket("b", "d", 0.6, 0, 10)
	p.Mode = state.ModeTree
	p.RecoveryThreshold = -1000
	p.Visit("b")
	p.Visit("a")
	p.DFSStack = []state.NodeId{"a"}
	d := Route("b", p, net, nil)
	require.Equal(t, DecisionForward, d.Kind)
	require.Equal(t, state.NodeId("a"), d.NextHop)
}

func TestTZModeUsesOracleWhenAvailable(t *testing.T) {
	net := lineNet()
	o, err := tzoracle.Build(buildLineView(), 1)
	require.NoError(t, err)

	p := state.NewPacket("a", "d", 0.6, 0, 10)
	p.Mode = state.ModeTZ
	d := Route("a", p, net, o)
	require.Equal(t, DecisionForward, d.Kind)
	require.Equal(t, state.ModeTZ, d.Mode)
}

func TestEveryHopDecrementsNothingAtFSMLevel(t *testing.T) {
	// TTL decrement is the caller's responsibility per hop (the FSM only
	// checks TTL==0); verify Route does not itself mutate TTL.
	net := lineNet()
	p := state.NewPacket("a", "d", 0.6, 0, 10)
	Route("a", p, net, nil)
	require.Equal(t, uint32(10), p.TTL)
}
