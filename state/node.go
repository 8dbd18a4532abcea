package state

import (
	"hash/fnv"
	"math"
)

// NodeId is an opaque, equality-comparable, hashable node identifier (§3).
type NodeId string

// AnchorCoordinate derives a deterministic point on the circle of radius
// 0.95 from a node id alone, independent of topology. It never changes for
// the lifetime of a node and is never touched by the forwarding FSM — only
// the PIE routing coordinate (pie.Result.Coordinates) is used for greedy
// routing.
// Used for application-level rendezvous, per the coordinate-id paradox
// resolution in §9.
func AnchorCoordinate(id NodeId) (x, y float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	hv := h.Sum64()
	theta := (float64(hv) / float64(math.MaxUint64)) * 2 * math.Pi
	const anchorRadius = 0.95
	return anchorRadius * math.Cos(theta), anchorRadius * math.Sin(theta)
}
