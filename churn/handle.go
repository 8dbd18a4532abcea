// Package churn implements the heartbeat-driven failure detector and the
// single-writer rebuild pipeline that recomputes the graph view, PIE
// embedding, and TZ oracle on the surviving subgraph (§4.G). The
// dispatch-channel single-writer discipline and ScheduleTask/RepeatTask
// usage are grounded directly on the donor's state/scheduler.go, which
// this module reuses unmodified as its concurrency primitive.
package churn

import (
	"sync/atomic"
	"time"

	"github.com/corvyn/hxroute/graphview"
	"github.com/corvyn/hxroute/hyperbolic"
	"github.com/corvyn/hxroute/pie"
	"github.com/corvyn/hxroute/state"
	"github.com/corvyn/hxroute/tzoracle"
)

// Snapshot is the generation-tagged, read-mostly (coords, TZ tables,
// spanning tree) triple §3 calls the oracle handle. Every field is
// immutable once published; a reader holding a *Snapshot never observes a
// torn update.
type Snapshot struct {
	Generation  uint64
	View        *graphview.View
	Coordinates map[state.NodeId]hyperbolic.Point
	Trees       map[state.NodeId]*graphview.SpanningTree // keyed by component root
	Oracles     map[state.NodeId]*tzoracle.Oracle         // keyed by component root
}

// ComponentOracle returns the TZ oracle covering u's component, or nil if
// u is not present in this snapshot (e.g. it was declared dead before the
// rebuild that produced it).
func (s *Snapshot) ComponentOracle(u state.NodeId) *tzoracle.Oracle {
	for _, o := range s.Oracles {
		if o.Has(u) {
			return o
		}
	}
	return nil
}

// Handle is the atomic, generation-tagged pointer swapped by the churn
// controller on every rebuild (§3, §5: "the oracle handle is the only
// shared mutable object"). Readers acquire-load; the writer release-
// stores — both are free on a Go atomic.Pointer.
type Handle struct {
	p atomic.Pointer[Snapshot]
}

// NewHandle creates a handle from an initial snapshot.
func NewHandle(initial *Snapshot) *Handle {
	h := &Handle{}
	h.p.Store(initial)
	return h
}

// Load returns the currently published snapshot.
func (h *Handle) Load() *Snapshot {
	return h.p.Load()
}

// Swap atomically installs next as the current snapshot and returns the
// previous one. Readers in flight against the previous snapshot keep
// using it until their decision completes, per §5's ordering guarantee.
func (h *Handle) Swap(next *Snapshot) *Snapshot {
	return h.p.Swap(next)
}

// buildSnapshot runs PIE and TZ over every connected component of v and
// assembles a new immutable Snapshot, grounded on §4.C/§4.D's per-
// component build requirement for disconnected graphs.
func buildSnapshot(generation uint64, v *graphview.View, seed int64) (*Snapshot, error) {
	snap := &Snapshot{
		Generation:  generation,
		View:        v,
		Coordinates: make(map[state.NodeId]hyperbolic.Point),
		Trees:       make(map[state.NodeId]*graphview.SpanningTree),
		Oracles:     make(map[state.NodeId]*tzoracle.Oracle),
	}

	results, err := pie.EmbedComponents(v)
	if err != nil {
		return nil, err
	}
	for _, res := range results {
		for id, pt := range res.Coordinates {
			snap.Coordinates[id] = pt
		}
		snap.Trees[res.Root] = res.Tree
	}

	for _, comp := range v.Components() {
		excluded := excludeAllBut(v, comp)
		sub := v.Subgraph(excluded)
		root, ok := sub.MaxDegreeRoot()
		if !ok {
			continue
		}
		o, err := tzoracle.Build(sub, seed+int64(generation))
		if err != nil {
			return nil, err
		}
		snap.Oracles[root] = o
	}

	return snap, nil
}

// BuildStandaloneSnapshot runs the same PIE+TZ build buildSnapshot does,
// for callers that need a one-off snapshot without a live Controller (the
// experiment harness, §4.H).
func BuildStandaloneSnapshot(v *graphview.View, seed int64) (*Snapshot, error) {
	return buildSnapshot(0, v, seed)
}

func excludeAllBut(v *graphview.View, comp []state.NodeId) map[state.NodeId]bool {
	in := make(map[state.NodeId]bool, len(comp))
	for _, id := range comp {
		in[id] = true
	}
	excluded := make(map[state.NodeId]bool, v.Len())
	for _, id := range v.Nodes() {
		if !in[id] {
			excluded[id] = true
		}
	}
	return excluded
}

// heartbeatClock is a per-neighbor single-word atomic liveness timestamp
// (§5: "the liveness clock per neighbor is a single-word atomic"),
// storing the last-heard-from time as a Unix-nanosecond int64.
type heartbeatClock struct {
	lastSeen atomic.Int64
}

func newHeartbeatClock() *heartbeatClock {
	c := &heartbeatClock{}
	c.touch()
	return c
}

func (c *heartbeatClock) touch() {
	c.lastSeen.Store(time.Now().UnixNano())
}

func (c *heartbeatClock) idleFor(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, c.lastSeen.Load()))
}
