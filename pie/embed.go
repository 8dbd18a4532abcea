// Package pie implements the PIE (Polar Increasing-angle Embedding)
// greedy embedder (§4.C): it builds a BFS spanning tree over a graph
// view and assigns every node a routing coordinate in the Poincaré disk,
// with radius converging to the boundary by depth and angle subdividing
// the parent's angular window among siblings. The tree-building and
// angle-window-subdivision shape is grounded on the original PIE
// implementation's embed() walk (breadth-first, parent window split
// evenly across children); the radius law itself follows the distilled
// redesign's r_d = tanh(c*d/2) rather than the original's exponential
// 1-base^d law, since the two are spiritually equivalent (both converge
// monotonically to the boundary) and the tanh form is what this system
// specifies.
package pie

import (
	"math"
	"time"

	"github.com/corvyn/hxroute/graphview"
	"github.com/corvyn/hxroute/hyperbolic"
	"github.com/corvyn/hxroute/perf"
	"github.com/corvyn/hxroute/state"
)

// Result is the outcome of one embedding pass: a routing coordinate per
// node plus the spanning tree it was derived from, and the set of node
// ids that were not reachable from the chosen root (members of other
// connected components, per §4.C's disconnected-graph failure mode).
type Result struct {
	Root        state.NodeId
	Tree        *graphview.SpanningTree
	Coordinates map[state.NodeId]hyperbolic.Point
	Unreached   []state.NodeId
}

// Embed runs the PIE algorithm over v: selects the max-degree root (ties
// by id), builds a BFS spanning tree, and assigns every reached node a
// polar coordinate. Nodes outside the root's component are reported in
// Result.Unreached rather than embedded — the caller (typically the
// churn controller) is expected to partition by component and call Embed
// once per component if every node needs a coordinate (§4.C).
func Embed(v *graphview.View) (*Result, error) {
	start := time.Now()
	defer func() { perf.EmbedLatency.Add(float64(time.Since(start).Microseconds())) }()

	root, ok := v.MaxDegreeRoot()
	if !ok {
		return &Result{Coordinates: map[state.NodeId]hyperbolic.Point{}}, nil
	}

	tree, err := v.BuildSpanningTree(root)
	if err != nil {
		return nil, err
	}

	coords := map[state.NodeId]hyperbolic.Point{
		root: hyperbolic.Origin,
	}

	type window struct {
		id         state.NodeId
		startAngle float64
		endAngle   float64
	}
	queue := []window{{root, 0, 2 * math.Pi}}

	for len(queue) > 0 {
		w := queue[0]
		queue = queue[1:]

		depth := tree.Depth[w.id]
		angle := (w.startAngle + w.endAngle) / 2
		radius := depthRadius(depth)
		if w.id != root {
			coords[w.id] = hyperbolic.Clamp(hyperbolic.Point{
				X: radius * math.Cos(angle),
				Y: radius * math.Sin(angle),
			})
		}

		children := tree.Children[w.id]
		n := len(children)
		if n == 0 {
			continue
		}
		span := (w.endAngle - w.startAngle) / float64(n)
		gap := span * windowGapFraction
		for i, child := range children {
			childStart := w.startAngle + float64(i)*span
			queue = append(queue, window{child, childStart + gap/2, childStart + span - gap/2})
		}
	}

	var unreached []state.NodeId
	for _, id := range v.Nodes() {
		if _, ok := coords[id]; !ok {
			unreached = append(unreached, id)
		}
	}

	return &Result{
		Root:        root,
		Tree:        tree,
		Coordinates: coords,
		Unreached:   unreached,
	}, nil
}

// windowGapFraction reserves a slice of each child's angular window as a
// safety margin from its siblings (§4.C: "a small safety gap between
// sibling windows"), split evenly between both edges of each child's
// window: adjacent children are one full gap apart, and the first and last
// child each leave half a gap at the ends of the parent's span.
const windowGapFraction = 0.1

// depthRadius is r_d = tanh(c*d/2), converging to the disk boundary as
// depth grows (§4.C).
func depthRadius(depth int) float64 {
	c := state.PieDepthConstant
	return math.Tanh(c * float64(depth) / 2)
}

// EmbedComponents runs Embed once per connected component of v, returning
// one Result per component in the same order as graphview.Components
// (smallest-id-first). Disconnected graphs are the expected input for
// this entry point — it never reports Unreached nodes, since each call is
// scoped to a single component (§4.C's "must be embedded separately").
func EmbedComponents(v *graphview.View) ([]*Result, error) {
	var results []*Result
	for _, comp := range v.Components() {
		excluded := make(map[state.NodeId]bool, v.Len())
		in := make(map[state.NodeId]bool, len(comp))
		for _, id := range comp {
			in[id] = true
		}
		for _, id := range v.Nodes() {
			if !in[id] {
				excluded[id] = true
			}
		}
		sub := v.Subgraph(excluded)
		res, err := Embed(sub)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}
