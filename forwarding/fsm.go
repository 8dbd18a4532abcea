// Package forwarding implements the multi-mode forwarding state machine
// (§4.F): Gravity -> Pressure -> TZ -> Tree, with sticky-recovery
// hysteresis, pressure budgeting/decay, and a DFS-backtrack Tree mode.
// The strict per-mode branching and the Gravity/Pressure/Tree mechanics
// are grounded on the original GPRouter.route implementation; TZ is
// inserted between Pressure and Tree as the spec's deliberate four-mode
// redesign of that three-mode original.
package forwarding

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/corvyn/hxroute/hyperbolic"
	"github.com/corvyn/hxroute/perf"
	"github.com/corvyn/hxroute/state"
	"github.com/corvyn/hxroute/tzoracle"
)

// FailReason enumerates why a routing decision could not be made (§4.F,
// §9's Decision-sum-type convention).
type FailReason int

const (
	FailTTLExpired FailReason = iota
	FailUnknownNode
	FailDisconnected
)

func (r FailReason) String() string {
	switch r {
	case FailTTLExpired:
		return "ttl expired"
	case FailUnknownNode:
		return "unknown node"
	case FailDisconnected:
		return "graph disconnected"
	default:
		return "unknown failure"
	}
}

// DecisionKind tags the Decision sum type.
type DecisionKind int

const (
	DecisionDeliver DecisionKind = iota
	DecisionForward
	DecisionFail
)

// Decision is the result of routing one packet at one node (§4.F). Only
// the field matching Kind is meaningful, matching the donor's
// enum-of-structs RoutingDecision.
type Decision struct {
	Kind    DecisionKind
	NextHop state.NodeId
	Mode    state.Mode
	Reason  FailReason
}

// Neighborhood is the local view a forwarding decision consults: the
// node's neighbors, their routing coordinates, and which of them are
// currently believed alive (§1: "a forwarding decision consults: the
// local adjacency, the destination coordinate, the local bunch/TZ
// entries, and per-packet state").
type Neighborhood interface {
	Neighbors(u state.NodeId) []state.NodeId
	Coordinate(u state.NodeId) (hyperbolic.Point, bool)
	IsAlive(u state.NodeId) bool
	TreeParent(u state.NodeId) (state.NodeId, bool)
	TreeChildren(u state.NodeId) []state.NodeId

	// Size is the total node count of the graph the packet is routed
	// over, used to scale the Pressure-mode search budget (§4.F,
	// original_source/src/routing.rs:224's node_count()/2) — deliberately
	// the whole graph, not u's local degree.
	Size() int
}

// Route makes one hop's forwarding decision for packet at node u, given
// the neighborhood and the current TZ oracle (nil is valid — Gravity and
// Pressure never need it, only TZ mode does). Route mutates packet
// in place, same as the donor's &mut PacketHeader signature; every
// SPEC_FULL operation names it as the only forwarding entry point.
func Route(u state.NodeId, packet *state.Packet, nb Neighborhood, oracle *tzoracle.Oracle) (decision Decision) {
	start := time.Now()
	defer func() {
		perf.RouteDecisionLatency.Add(float64(time.Since(start).Microseconds()))
		if state.DBG_log_fsm {
			slog.Debug("forwarding decision", "node", u, "dest", packet.Destination, "mode", decision.Mode, "kind", decision.Kind, "next", decision.NextHop)
		}
		switch decision.Kind {
		case DecisionDeliver:
			perf.DeliveredPerSecond.Add(1)
		case DecisionFail:
			perf.FailedPerSecond.Add(1)
		case DecisionForward:
			perf.RoutesPerSecond.Add(1)
			switch decision.Mode {
			case state.ModeGravity:
				perf.GravityHops.Add(1)
			case state.ModePressure:
				perf.PressureHops.Add(1)
			case state.ModeTZ:
				perf.TZHops.Add(1)
			case state.ModeTree:
				perf.TreeHops.Add(1)
			}
		}
	}()

	if packet.TTL == 0 {
		return Decision{Kind: DecisionFail, Reason: FailTTLExpired}
	}
	if u == packet.Destination {
		return Decision{Kind: DecisionDeliver}
	}

	coord, ok := nb.Coordinate(u)
	if !ok {
		return Decision{Kind: DecisionFail, Reason: FailUnknownNode}
	}

	if packet.Mode != state.ModeTree {
		packet.Visit(u)
	}

	dest := hyperbolic.Point{X: packet.DestX, Y: packet.DestY}
	currentDist := hyperbolic.Dist(coord, dest)

	switch packet.Mode {
	case state.ModeGravity:
		if d, ok := tryGravity(u, packet, nb, dest); ok {
			return d
		}
		packet.Mode = state.ModePressure
		packet.RecoveryThreshold = currentDist
		// pressure budget is half the whole graph's node count, per
		// original_source/src/routing.rs:224
		packet.PressureBudget = nb.Size() / 2
		for k := range packet.Pressure {
			delete(packet.Pressure, k)
		}
		return pressureStep(u, packet, nb, oracle, dest)

	case state.ModePressure:
		if currentDist < packet.RecoveryThreshold-state.StickyRecoveryMargin {
			packet.Mode = state.ModeGravity
			packet.RecoveryThreshold = 0
			packet.PressureBudget = 0
			if d, ok := tryGravity(u, packet, nb, dest); ok {
				return d
			}
			packet.Mode = state.ModePressure
			packet.RecoveryThreshold = currentDist
		}

		if packet.PressureBudget <= 0 {
			return enterTZ(u, packet, nb, oracle, dest)
		}
		packet.PressureBudget--
		return pressureStep(u, packet, nb, oracle, dest)

	case state.ModeTZ:
		if oracle != nil {
			if next, ok := oracle.NextHop(u, packet.Destination); ok && nb.IsAlive(next) {
				return Decision{Kind: DecisionForward, NextHop: next, Mode: state.ModeTZ}
			}
		}
		return enterTree(u, packet, nb, dest)

	case state.ModeTree:
		if currentDist < packet.RecoveryThreshold-state.StickyRecoveryMargin {
			packet.Mode = state.ModeGravity
			packet.RecoveryThreshold = 0
			packet.DFSStack = nil
			for k := range packet.Visited {
				delete(packet.Visited, k)
			}
			if d, ok := tryGravity(u, packet, nb, dest); ok {
				return d
			}
			packet.Mode = state.ModeTree
			packet.RecoveryThreshold = currentDist
			for k := range packet.Visited {
				delete(packet.Visited, k)
			}
			packet.Visit(u)
			packet.DFSStack = nil
		}
		if d, ok := dfsStep(u, packet, nb); ok {
			return d
		}
		return Decision{Kind: DecisionFail, Reason: FailDisconnected}

	default:
		panic(fmt.Sprintf("forwarding: unknown mode %v", packet.Mode))
	}
}

// tryGravity picks the unvisited, alive neighbor of u strictly closer to
// dest than u itself, per §4.F. Grounded on try_gravity_routing.
func tryGravity(u state.NodeId, packet *state.Packet, nb Neighborhood, dest hyperbolic.Point) (Decision, bool) {
	uCoord, ok := nb.Coordinate(u)
	if !ok {
		return Decision{}, false
	}
	bestDist := hyperbolic.Dist(uCoord, dest)
	var best state.NodeId
	found := false

	for _, n := range nb.Neighbors(u) {
		if packet.HasVisited(n) || !nb.IsAlive(n) {
			continue
		}
		nc, ok := nb.Coordinate(n)
		if !ok {
			continue
		}
		d := hyperbolic.Dist(nc, dest)
		if d < bestDist {
			bestDist = d
			best = n
			found = true
		}
	}
	if !found {
		return Decision{}, false
	}
	return Decision{Kind: DecisionForward, NextHop: best, Mode: state.ModeGravity}, true
}

// pressureStep scores every unvisited alive neighbor by distance+pressure
// (lower is better), forwards to the best, then increments that
// neighbor's pressure and decays the whole map. Grounded on
// pressure_routing; the increment-then-decay-all order matches the
// original's per-hop update sequence.
func pressureStep(u state.NodeId, packet *state.Packet, nb Neighborhood, oracle *tzoracle.Oracle, dest hyperbolic.Point) Decision {
	var best state.NodeId
	bestScore := math.Inf(1)
	found := false

	for _, n := range nb.Neighbors(u) {
		if packet.HasVisited(n) || !nb.IsAlive(n) {
			continue
		}
		nc, ok := nb.Coordinate(n)
		if !ok {
			continue
		}
		score := hyperbolic.Dist(nc, dest) + packet.Pressure[n]
		if score < bestScore {
			bestScore = score
			best = n
			found = true
		}
	}

	if !found {
		// Every neighbor already visited — the original's "all neighbors
		// visited" escape forces the same TZ transition budget
		// exhaustion would eventually reach.
		packet.PressureBudget = 0
		return enterTZ(u, packet, nb, oracle, dest)
	}

	packet.Pressure[best] += state.PressureIncrement
	for k := range packet.Pressure {
		packet.Pressure[k] *= state.PressureDecay
	}
	return Decision{Kind: DecisionForward, NextHop: best, Mode: state.ModePressure}
}

func enterTZ(u state.NodeId, packet *state.Packet, nb Neighborhood, oracle *tzoracle.Oracle, dest hyperbolic.Point) Decision {
	packet.Mode = state.ModeTZ
	if oracle != nil {
		if next, ok := oracle.NextHop(u, packet.Destination); ok && nb.IsAlive(next) {
			return Decision{Kind: DecisionForward, NextHop: next, Mode: state.ModeTZ}
		}
	}
	return enterTree(u, packet, nb, dest)
}

// enterTree transitions into Tree mode and takes its first DFS step,
// re-rooting the packet's walk at the current node.
func enterTree(u state.NodeId, packet *state.Packet, nb Neighborhood, dest hyperbolic.Point) Decision {
	packet.Mode = state.ModeTree
	for k := range packet.Visited {
		delete(packet.Visited, k)
	}
	packet.Visit(u)
	packet.DFSStack = nil
	if d, ok := dfsStep(u, packet, nb); ok {
		return d
	}
	return Decision{Kind: DecisionFail, Reason: FailDisconnected}
}

// dfsStep advances the Tree-mode depth-first traversal: forward to the
// first unvisited neighbor in sorted order, pushing u onto the backtrack
// stack, or pop the stack to backtrack if every neighbor has been
// visited. Grounded on traverse_graph_dfs.
func dfsStep(u state.NodeId, packet *state.Packet, nb Neighborhood) (Decision, bool) {
	packet.Visit(u)

	for _, n := range nb.Neighbors(u) {
		if !packet.HasVisited(n) && nb.IsAlive(n) {
			packet.DFSStack = append(packet.DFSStack, u)
			return Decision{Kind: DecisionForward, NextHop: n, Mode: state.ModeTree}, true
		}
	}

	if len(packet.DFSStack) > 0 {
		prev := packet.DFSStack[len(packet.DFSStack)-1]
		packet.DFSStack = packet.DFSStack[:len(packet.DFSStack)-1]
		return Decision{Kind: DecisionForward, NextHop: prev, Mode: state.ModeTree}, true
	}

	return Decision{}, false
}
