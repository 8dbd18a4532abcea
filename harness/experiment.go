package harness

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/corvyn/hxroute/churn"
	"github.com/corvyn/hxroute/forwarding"
	"github.com/corvyn/hxroute/graphview"
	"github.com/corvyn/hxroute/hyperbolic"
	"github.com/corvyn/hxroute/state"
)

// TrialResult is the outcome of routing one packet end to end: the hop
// count, the mode histogram it passed through, whether it was delivered,
// and the stretch ratio against the BFS-optimal hop count. Grounded on
// the original Gravity-Pressure router's simulate_delivery, which tallies
// per-mode hop counters across a trial; the TZ counter here is new, added
// for the redesigned four-mode FSM.
type TrialResult struct {
	Source, Destination state.NodeId
	Delivered            bool
	FailReason           forwarding.FailReason
	Hops, OptimalHops    int
	Stretch              float64
	ModeHops             map[state.Mode]int
}


// snapshotNeighborhood adapts a churn.Snapshot into forwarding.Neighborhood,
// treating every node in the snapshot's view as alive (the harness has no
// separate liveness layer of its own — churn decides aliveness upstream
// of a snapshot build).
type snapshotNeighborhood struct {
	snap *churn.Snapshot
}

func (n *snapshotNeighborhood) Neighbors(u state.NodeId) []state.NodeId {
	return n.snap.View.Neighbors(u)
}

func (n *snapshotNeighborhood) Coordinate(u state.NodeId) (hyperbolic.Point, bool) {
	p, ok := n.snap.Coordinates[u]
	return p, ok
}

func (n *snapshotNeighborhood) IsAlive(u state.NodeId) bool {
	return n.snap.View.HasNode(u)
}

func (n *snapshotNeighborhood) TreeParent(u state.NodeId) (state.NodeId, bool) {
	for _, t := range n.snap.Trees {
		if p, ok := t.Parent[u]; ok {
			return p, true
		}
	}
	return "", false
}

func (n *snapshotNeighborhood) TreeChildren(u state.NodeId) []state.NodeId {
	for _, t := range n.snap.Trees {
		if c, ok := t.Children[u]; ok {
			return c
		}
	}
	return nil
}

func (n *snapshotNeighborhood) Size() int {
	return n.snap.View.Len()
}

// RunTrial routes one packet from source to destination over snap,
// stepping the FSM hop by hop until delivery, TTL exhaustion, or a
// terminal failure (§4.H).
func RunTrial(snap *churn.Snapshot, source, destination state.NodeId, ttl uint32) TrialResult {
	destCoord, ok := snap.Coordinates[destination]
	if !ok {
		return TrialResult{Source: source, Destination: destination, FailReason: forwarding.FailUnknownNode, ModeHops: map[state.Mode]int{}}
	}

	optimal := -1
	if dist, err := snap.View.Distances(source); err == nil {
		if d, ok := dist[destination]; ok {
			optimal = d
		}
	}

	nb := &snapshotNeighborhood{snap: snap}
	oracle := snap.ComponentOracle(source)
	packet := state.NewPacket(source, destination, destCoord.X, destCoord.Y, ttl)

	modeHops := make(map[state.Mode]int)
	cur := source
	for {
		d := forwarding.Route(cur, packet, nb, oracle)
		switch d.Kind {
		case forwarding.DecisionDeliver:
			return finish(source, destination, packet.Mode, modeHops, packet, true, 0, optimal)
		case forwarding.DecisionFail:
			return finish(source, destination, packet.Mode, modeHops, packet, false, d.Reason, optimal)
		case forwarding.DecisionForward:
			modeHops[d.Mode]++
			packet.TTL--
			cur = d.NextHop
			oracle = snap.ComponentOracle(cur)
		}
	}
}

func finish(source, dest state.NodeId, _ state.Mode, modeHops map[state.Mode]int, packet *state.Packet, delivered bool, reason forwarding.FailReason, optimal int) TrialResult {
	hops := 0
	for _, c := range modeHops {
		hops += c
	}
	stretch := 0.0
	if delivered && optimal > 0 {
		stretch = float64(hops) / float64(optimal)
	}
	return TrialResult{
		Source:      source,
		Destination: dest,
		Delivered:   delivered,
		FailReason:  reason,
		Hops:        hops,
		OptimalHops: optimal,
		Stretch:     stretch,
		ModeHops:    modeHops,
	}
}

// Summary aggregates a batch of trials (§4.H: mode distribution, stretch,
// preprocessing time).
type Summary struct {
	Trials         int
	Delivered      int
	MeanStretch    float64
	ModeHopTotals  map[state.Mode]int
	PreprocessTime time.Duration
}

// RunExperiment generates a topology, builds an initial snapshot, and
// runs cfg.Trials random source/destination trials, using a monotonic
// clock for the preprocessing timer and cfg.Seed-derived randomness for
// trial selection (§4.H: "all timing uses a monotonic clock; all
// randomness is seed-driven and reproducible").
func RunExperiment(cfg *state.ExperimentCfg) (*Summary, error) {
	start := time.Now()
	v, err := GenerateTopology(cfg)
	if err != nil {
		return nil, err
	}

	snap, err := buildSnapshotForHarness(v, int64(cfg.Seed))
	if err != nil {
		return nil, err
	}
	preprocess := time.Since(start)

	nodes := v.Nodes()
	if len(nodes) < 2 {
		return nil, fmt.Errorf("harness: need at least 2 nodes to run trials")
	}
	rng := rand.New(rand.NewSource(int64(cfg.Seed) + 1))

	summary := &Summary{ModeHopTotals: make(map[state.Mode]int), PreprocessTime: preprocess}
	var stretchSum float64
	for i := 0; i < cfg.Trials; i++ {
		src := nodes[rng.Intn(len(nodes))]
		dst := nodes[rng.Intn(len(nodes))]
		for dst == src {
			dst = nodes[rng.Intn(len(nodes))]
		}
		res := RunTrial(snap, src, dst, cfg.TTL)
		summary.Trials++
		if res.Delivered {
			summary.Delivered++
			stretchSum += res.Stretch
		}
		for mode, n := range res.ModeHops {
			summary.ModeHopTotals[mode] += n
		}
	}
	if summary.Delivered > 0 {
		summary.MeanStretch = stretchSum / float64(summary.Delivered)
	}
	return summary, nil
}

// buildSnapshotForHarness mirrors churn's private buildSnapshot but lives
// here since the harness builds a one-off snapshot rather than driving a
// live Controller.
func buildSnapshotForHarness(v *graphview.View, seed int64) (*churn.Snapshot, error) {
	return churn.BuildStandaloneSnapshot(v, seed)
}
