// Package harness implements the core portion of the experiment harness
// (§4.H): seeded reproducible topology generation and per-trial routing
// instrumentation. The topology kinds are the ones named in
// state.ExperimentCfg.Topology; generation here is new code (no example
// in the retrieval pack builds graphs this way), grounded instead on the
// config surface itself and on §4.H's "all randomness is seed-driven and
// reproducible" requirement, using math/rand's seeded source the same way
// the TZ builder's landmark sampling does.
package harness

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/corvyn/hxroute/graphview"
	"github.com/corvyn/hxroute/state"
)

// GenerateTopology builds a graph view of cfg.Nodes nodes according to
// cfg.Topology, using cfg.Seed for every random decision so identical
// configs always produce identical graphs.
func GenerateTopology(cfg *state.ExperimentCfg) (*graphview.View, error) {
	seed := int64(cfg.Seed)
	switch cfg.Topology {
	case state.TopologyBarabasiAlbert:
		return barabasiAlbert(cfg.Nodes, cfg.Degree, seed), nil
	case state.TopologyWattsStrogatz:
		return wattsStrogatz(cfg.Nodes, cfg.Degree, cfg.RewireProb, seed), nil
	case state.TopologyGrid:
		return grid(cfg.GridSide), nil
	case state.TopologyErdosRenyi:
		return erdosRenyi(cfg.Nodes, cfg.EdgeProb, seed), nil
	default:
		return nil, fmt.Errorf("harness: unknown topology %q", cfg.Topology)
	}
}

func nodeID(i int) state.NodeId {
	return state.NodeId(fmt.Sprintf("n%d", i))
}

// barabasiAlbert grows a preferential-attachment graph: start from a
// small clique, then attach each new node to m existing nodes chosen with
// probability proportional to their current degree.
func barabasiAlbert(n, m int, seed int64) *graphview.View {
	if m < 1 {
		m = 1
	}
	if n < m+1 {
		n = m + 1
	}
	rng := rand.New(rand.NewSource(seed))
	v := graphview.New()

	targets := make([]int, 0, n*m*2)
	for i := 0; i <= m; i++ {
		v.AddNode(nodeID(i))
		for j := 0; j < i; j++ {
			v.AddUndirectedEdge(nodeID(i), nodeID(j))
			targets = append(targets, i, j)
		}
	}

	for i := m + 1; i < n; i++ {
		v.AddNode(nodeID(i))
		chosen := make(map[int]bool, m)
		for len(chosen) < m && len(chosen) < len(targets) {
			pick := targets[rng.Intn(len(targets))]
			if pick == i {
				continue
			}
			chosen[pick] = true
		}
		picked := make([]int, 0, len(chosen))
		for t := range chosen {
			picked = append(picked, t)
		}
		sort.Ints(picked)
		for _, t := range picked {
			v.AddUndirectedEdge(nodeID(i), nodeID(t))
			targets = append(targets, i, t)
		}
	}
	return v
}

// wattsStrogatz builds a ring lattice of degree k (k/2 neighbors each
// side) and rewires each edge with probability rewireProb.
func wattsStrogatz(n, k int, rewireProb float64, seed int64) *graphview.View {
	if k < 2 {
		k = 2
	}
	if k%2 != 0 {
		k++
	}
	if n < k+1 {
		n = k + 1
	}
	rng := rand.New(rand.NewSource(seed))
	v := graphview.New()
	for i := 0; i < n; i++ {
		v.AddNode(nodeID(i))
	}

	type edge struct{ a, b int }
	var edges []edge
	for i := 0; i < n; i++ {
		for j := 1; j <= k/2; j++ {
			edges = append(edges, edge{i, (i + j) % n})
		}
	}

	present := make(map[edge]bool, len(edges))
	for _, e := range edges {
		a, b := e.a, e.b
		if rng.Float64() < rewireProb {
			b = rng.Intn(n)
			for b == a || present[edge{min2(a, b), max2(a, b)}] {
				b = rng.Intn(n)
			}
		}
		key := edge{min2(a, b), max2(a, b)}
		present[key] = true
		v.AddUndirectedEdge(nodeID(a), nodeID(b))
	}
	return v
}

func min2(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max2(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// grid builds a side*side 2-D lattice with edges to horizontal and
// vertical neighbors.
func grid(side int) *graphview.View {
	if side < 1 {
		side = 1
	}
	v := graphview.New()
	id := func(x, y int) state.NodeId {
		return nodeID(y*side + x)
	}
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			v.AddNode(id(x, y))
			if x > 0 {
				v.AddUndirectedEdge(id(x, y), id(x-1, y))
			}
			if y > 0 {
				v.AddUndirectedEdge(id(x, y), id(x, y-1))
			}
		}
	}
	return v
}

// erdosRenyi includes each of the n*(n-1)/2 possible edges independently
// with probability edgeProb.
func erdosRenyi(n int, edgeProb float64, seed int64) *graphview.View {
	rng := rand.New(rand.NewSource(seed))
	v := graphview.New()
	for i := 0; i < n; i++ {
		v.AddNode(nodeID(i))
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if rng.Float64() < edgeProb {
				v.AddUndirectedEdge(nodeID(i), nodeID(j))
			}
		}
	}
	return v
}
