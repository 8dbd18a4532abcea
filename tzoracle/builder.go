// Package tzoracle implements the Thorup-Zwick compact routing oracle
// (§4.D, §4.E): landmark sampling, per-landmark BFS trees, bunch
// computation, and the stretch-<=3 next-hop query. The landmark/bunch
// structures and the build sequence (BFS from every landmark, then BFS
// from every node to find which nodes land inside its bunch) are grounded
// on the original Thorup-Zwick implementation's TZRoutingTable::build;
// this version replaces its per-node closest-landmark-only next hop with
// full per-landmark routing info (P(v) for every landmark, not just the
// nearest), matching the stronger query contract in §4.E and §3.
package tzoracle

import (
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/corvyn/hxroute/graphview"
	"github.com/corvyn/hxroute/perf"
	"github.com/corvyn/hxroute/state"
)

// BunchEntry is one member of a node's bunch: a node closer than any
// landmark, with its distance and first-hop-toward-it (§3).
type BunchEntry struct {
	Dist    int
	NextHop state.NodeId
}

// LandmarkEntry is a node's routing info toward one landmark: its
// distance and first hop on the shortest path there (§3, P(v)).
type LandmarkEntry struct {
	Dist    int
	NextHop state.NodeId
}

// NodeTable is the per-node TZ routing table (§3).
type NodeTable struct {
	ClosestLandmark state.NodeId
	Bunch           map[state.NodeId]BunchEntry
	ToLandmark      map[state.NodeId]LandmarkEntry
}

// Oracle is the built TZ routing table over a single connected component.
// Immutable once returned by Build; the churn controller swaps the whole
// pointer rather than mutating one in place (§3's oracle handle).
type Oracle struct {
	Landmarks []state.NodeId
	Nodes     map[state.NodeId]*NodeTable
}

// Build runs the Thorup-Zwick construction over v using seed to select
// landmarks deterministically. v is assumed to be connected; callers with
// a disconnected graph should build once per component, same as the PIE
// embedder (§4.D's "partial oracle for the largest connected component").
func Build(v *graphview.View, seed int64) (*Oracle, error) {
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		perf.OracleBuildLatency.Add(float64(elapsed.Microseconds()))
		if state.DBG_log_oracle {
			slog.Debug("tz oracle built", "nodes", v.Len(), "elapsed", elapsed)
		}
	}()

	n := v.Len()
	if n == 0 {
		return &Oracle{Nodes: map[state.NodeId]*NodeTable{}}, nil
	}

	landmarks := selectLandmarks(v, seed)

	// Step 2: per-landmark BFS trees, embarrassingly parallel over L.
	landmarkDist := make([]map[state.NodeId]int, len(landmarks))
	landmarkParent := make([]map[state.NodeId]state.NodeId, len(landmarks))
	if err := parallelFor(len(landmarks), func(i int) error {
		res, err := v.BFS(landmarks[i], nil)
		if err != nil {
			return err
		}
		landmarkDist[i] = res.Depth
		landmarkParent[i] = res.Parent
		return nil
	}); err != nil {
		return nil, err
	}

	nodes := v.Nodes()
	closest := make([]state.NodeId, len(nodes))
	closestDist := make([]int, len(nodes))
	for idx, id := range nodes {
		best := -1
		bestDist := math.MaxInt
		for li := range landmarks {
			if d, ok := landmarkDist[li][id]; ok && d < bestDist {
				bestDist = d
				best = li
			}
		}
		if best == -1 {
			best = 0
			bestDist = math.MaxInt
		}
		closest[idx] = landmarks[best]
		closestDist[idx] = bestDist
	}

	// Step 3: per-node bunch computation, embarrassingly parallel over V.
	tables := make([]*NodeTable, len(nodes))
	if err := parallelFor(len(nodes), func(idx int) error {
		id := nodes[idx]
		res, err := v.BFS(id, nil)
		if err != nil {
			return err
		}
		bunch := make(map[state.NodeId]BunchEntry)
		mu := closestDist[idx]
		for w, d := range res.Depth {
			if d < mu {
				bunch[w] = BunchEntry{Dist: d, NextHop: firstHop(id, w, res.Parent)}
			}
		}

		toLandmark := make(map[state.NodeId]LandmarkEntry, len(landmarks))
		for li, lm := range landmarks {
			d, ok := landmarkDist[li][id]
			if !ok {
				continue
			}
			toLandmark[lm] = LandmarkEntry{
				Dist:    d,
				NextHop: nextTowardRoot(id, landmarkParent[li]),
			}
		}

		tables[idx] = &NodeTable{
			ClosestLandmark: closest[idx],
			Bunch:           bunch,
			ToLandmark:      toLandmark,
		}
		return nil
	}); err != nil {
		return nil, err
	}

	out := make(map[state.NodeId]*NodeTable, len(nodes))
	for idx, id := range nodes {
		out[id] = tables[idx]
	}

	return &Oracle{Landmarks: landmarks, Nodes: out}, nil
}

// selectLandmarks draws |L| = ceil(k*sqrt(n)) distinct ids from a seeded
// PRNG over sorted id order, per §3 ("deterministic sampling from a
// seeded PRNG over id order"). Starting from a sorted base order (rather
// than Go's randomized map iteration) keeps the shuffle itself the only
// source of variation, so identical graph + identical seed always yields
// byte-identical landmark sets.
func selectLandmarks(v *graphview.View, seed int64) []state.NodeId {
	nodes := v.Nodes() // already sorted
	n := len(nodes)
	count := int(math.Ceil(state.LandmarkDensity * math.Sqrt(float64(n))))
	if count < 1 {
		count = 1
	}
	if count > n {
		count = n
	}

	rng := rand.New(rand.NewSource(seed))
	shuffled := make([]state.NodeId, n)
	copy(shuffled, nodes)
	rng.Shuffle(n, func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	landmarks := make([]state.NodeId, count)
	copy(landmarks, shuffled[:count])
	sort.Slice(landmarks, func(i, j int) bool { return landmarks[i] < landmarks[j] })
	return landmarks
}

// firstHop walks the parent chain of a BFS tree rooted at "from" back
// from "to" until it reaches a node whose parent is "from", giving the
// first hop on the from->to shortest path. Grounded on the original
// implementation's find_next_hop_from_parents.
func firstHop(from, to state.NodeId, parent map[state.NodeId]state.NodeId) state.NodeId {
	if from == to {
		return to
	}
	cur := to
	for {
		p, ok := parent[cur]
		if !ok {
			return to
		}
		if p == from {
			return cur
		}
		cur = p
	}
}

// nextTowardRoot returns the first hop from "from" toward the root of a
// BFS tree given by parentFromRoot (parent[v] = v's parent in the tree
// rooted at that root) — i.e. simply from's own parent entry, since the
// tree is already rooted at the destination.
func nextTowardRoot(from state.NodeId, parentFromRoot map[state.NodeId]state.NodeId) state.NodeId {
	if p, ok := parentFromRoot[from]; ok {
		return p
	}
	return from
}
