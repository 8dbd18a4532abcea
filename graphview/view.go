// Package graphview implements the adjacency model shared by the PIE
// embedder and the TZ oracle builder (§4.B): neighbor iteration in stable
// order, BFS, spanning-tree construction, and subgraph-by-exclusion for
// churn recomputation. The traversal shape is grounded on the donor
// graph library's BFS (options struct with enqueue/dequeue/visit hooks,
// a Result carrying Order/Depth/Parent/Visited), adapted here to the
// unweighted, string-id, directed-adjacency-map model this spec needs
// rather than that library's *Vertex-based graph.
package graphview

import (
	"context"
	"sort"

	"github.com/corvyn/hxroute/state"
)

// View is a directed, multiset-free adjacency mapping from node id to an
// ordered sequence of neighbors (§3). Generation is incremented on every
// structural change so callers holding a stale oracle handle can detect
// that the view it was built from has moved on.
type View struct {
	adj        map[state.NodeId][]state.NodeId
	generation uint64
}

// New returns an empty view.
func New() *View {
	return &View{adj: make(map[state.NodeId][]state.NodeId)}
}

// Generation returns the current structural-change counter.
func (v *View) Generation() uint64 {
	return v.generation
}

// AddNode ensures id is present in the view, with no neighbors if new.
func (v *View) AddNode(id state.NodeId) {
	if _, ok := v.adj[id]; ok {
		return
	}
	v.adj[id] = nil
	v.generation++
}

// AddEdge adds a directed edge u->v, creating either endpoint if absent.
// Duplicate edges are not inserted twice (multiset-free, per §3).
func (v *View) AddEdge(u, w state.NodeId) {
	v.AddNode(u)
	v.AddNode(w)
	for _, n := range v.adj[u] {
		if n == w {
			return
		}
	}
	v.adj[u] = append(v.adj[u], w)
	v.generation++
}

// AddUndirectedEdge adds both directions of u<->w.
func (v *View) AddUndirectedEdge(u, w state.NodeId) {
	v.AddEdge(u, w)
	v.AddEdge(w, u)
}

// HasNode reports whether id is present.
func (v *View) HasNode(id state.NodeId) bool {
	_, ok := v.adj[id]
	return ok
}

// Neighbors returns id's neighbors in stable (sorted) order. An unknown id
// yields a nil slice rather than an error, per §4.B's not-present contract.
func (v *View) Neighbors(id state.NodeId) []state.NodeId {
	ns, ok := v.adj[id]
	if !ok {
		return nil
	}
	out := make([]state.NodeId, len(ns))
	copy(out, ns)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Degree returns the number of outgoing neighbors of id, or 0 if id is
// absent.
func (v *View) Degree(id state.NodeId) int {
	return len(v.adj[id])
}

// Nodes returns every node id in the view, in sorted order.
func (v *View) Nodes() []state.NodeId {
	out := make([]state.NodeId, 0, len(v.adj))
	for id := range v.adj {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len reports the number of nodes in the view.
func (v *View) Len() int {
	return len(v.adj)
}

// BFSOptions configures a traversal. All fields are optional.
type BFSOptions struct {
	// Ctx aborts the traversal when done, mirroring the donor's
	// cancellable BFS.
	Ctx context.Context

	// OnVisit is called the moment a node is dequeued (it was marked
	// visited when first enqueued), before its neighbors are enqueued. A
	// non-nil error aborts the traversal immediately.
	OnVisit func(id state.NodeId, depth int) error
}

// BFSResult holds the outcome of a single-source BFS (§4.B: yields
// (distance, parent) arrays).
type BFSResult struct {
	Order   []state.NodeId
	Depth   map[state.NodeId]int
	Parent  map[state.NodeId]state.NodeId
	Visited map[state.NodeId]bool
}

// BFS performs an O(|V|+|E|) breadth-first search from source. An unknown
// source yields an empty result rather than an error (§4.B).
func (v *View) BFS(source state.NodeId, opts *BFSOptions) (*BFSResult, error) {
	res := &BFSResult{
		Depth:   make(map[state.NodeId]int),
		Parent:  make(map[state.NodeId]state.NodeId),
		Visited: make(map[state.NodeId]bool),
	}
	if !v.HasNode(source) {
		return res, nil
	}

	ctx := context.Background()
	var onVisit func(state.NodeId, int) error
	if opts != nil {
		if opts.Ctx != nil {
			ctx = opts.Ctx
		}
		onVisit = opts.OnVisit
	}

	type item struct {
		id    state.NodeId
		depth int
	}
	queue := []item{{source, 0}}
	res.Visited[source] = true
	res.Depth[source] = 0

	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		it := queue[0]
		queue = queue[1:]
		res.Order = append(res.Order, it.id)

		if onVisit != nil {
			if err := onVisit(it.id, it.depth); err != nil {
				return res, err
			}
		}

		for _, n := range v.Neighbors(it.id) {
			if res.Visited[n] {
				continue
			}
			res.Visited[n] = true
			res.Parent[n] = it.id
			res.Depth[n] = it.depth + 1
			queue = append(queue, item{n, it.depth + 1})
		}
	}
	return res, nil
}

// Distances returns the BFS distance from source to every reachable node.
func (v *View) Distances(source state.NodeId) (map[state.NodeId]int, error) {
	res, err := v.BFS(source, nil)
	if err != nil {
		return nil, err
	}
	return res.Depth, nil
}

// SpanningTree is a rooted tree with parent pointers and per-node depth,
// built by BFS from root (§3).
type SpanningTree struct {
	Root     state.NodeId
	Parent   map[state.NodeId]state.NodeId
	Depth    map[state.NodeId]int
	Children map[state.NodeId][]state.NodeId
}

// BuildSpanningTree runs BFS from root and records parent/depth/children.
// Children of each node are returned in sorted order for deterministic
// downstream traversal (the PIE embedder's angular subdivision depends on
// this; the Tree forwarding mode walks graph neighbors, not these children).
func (v *View) BuildSpanningTree(root state.NodeId) (*SpanningTree, error) {
	res, err := v.BFS(root, nil)
	if err != nil {
		return nil, err
	}
	st := &SpanningTree{
		Root:     root,
		Parent:   res.Parent,
		Depth:    res.Depth,
		Children: make(map[state.NodeId][]state.NodeId),
	}
	for child, parent := range res.Parent {
		st.Children[parent] = append(st.Children[parent], child)
	}
	for p := range st.Children {
		children := st.Children[p]
		sort.Slice(children, func(i, j int) bool { return children[i] < children[j] })
		st.Children[p] = children
	}
	return st, nil
}

// Components partitions the view's nodes into connected components
// (treating edges as undirected reachability for the purpose of grouping),
// each given in sorted order and the component list itself ordered by
// each component's smallest id for determinism.
func (v *View) Components() [][]state.NodeId {
	seen := make(map[state.NodeId]bool)
	undirected := v.undirectedAdjacency()
	var comps [][]state.NodeId
	for _, id := range v.Nodes() {
		if seen[id] {
			continue
		}
		var comp []state.NodeId
		queue := []state.NodeId{id}
		seen[id] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			comp = append(comp, cur)
			for _, n := range undirected[cur] {
				if !seen[n] {
					seen[n] = true
					queue = append(queue, n)
				}
			}
		}
		sort.Slice(comp, func(i, j int) bool { return comp[i] < comp[j] })
		comps = append(comps, comp)
	}
	sort.Slice(comps, func(i, j int) bool { return comps[i][0] < comps[j][0] })
	return comps
}

func (v *View) undirectedAdjacency() map[state.NodeId][]state.NodeId {
	out := make(map[state.NodeId][]state.NodeId, len(v.adj))
	for u, ns := range v.adj {
		out[u] = append(out[u], ns...)
		for _, w := range ns {
			out[w] = append(out[w], u)
		}
	}
	return out
}

// Subgraph returns a new view containing every node not in excluded, with
// edges restricted to surviving endpoints. Used by the churn controller to
// recompute B-D on the surviving subgraph (§4.B, §4.G).
func (v *View) Subgraph(excluded map[state.NodeId]bool) *View {
	out := New()
	for _, id := range v.Nodes() {
		if excluded[id] {
			continue
		}
		out.AddNode(id)
	}
	for _, u := range v.Nodes() {
		if excluded[u] {
			continue
		}
		for _, w := range v.adj[u] {
			if excluded[w] {
				continue
			}
			out.AddEdge(u, w)
		}
	}
	return out
}

// MaxDegreeRoot selects the deterministic root for PIE/tree-mode
// construction: the node of maximum out-degree, ties broken by the
// smaller id (§3, §4.C).
func (v *View) MaxDegreeRoot() (state.NodeId, bool) {
	nodes := v.Nodes()
	if len(nodes) == 0 {
		return "", false
	}
	best := nodes[0]
	bestDeg := v.Degree(best)
	for _, id := range nodes[1:] {
		d := v.Degree(id)
		if d > bestDeg {
			best, bestDeg = id, d
		}
	}
	return best, true
}
