// Package hyperbolic implements the Poincaré-disk metric kernel (§4.A):
// pure, stateless functions operating on points in the open unit disk.
// Nothing here allocates beyond its return value and nothing is shared
// across calls, mirroring the donor's crypto primitives in
// state/distribution.go, which are likewise pure functions over byte
// slices with no package-level state.
package hyperbolic

import "math"

// Point is a pair of reals with the invariant x²+y² < 1-ε (§3). Callers
// that construct a Point from an external source (a deserialized packet,
// a coordinate derived from untrusted input) must run it through Clamp
// before using it in a distance computation.
type Point struct {
	X, Y float64
}

// Origin is the center of the disk, where the PIE embedder places its
// root node.
var Origin = Point{0, 0}

// NormSq returns x²+y².
func (p Point) NormSq() float64 {
	return p.X*p.X + p.Y*p.Y
}

// Norm returns ‖p‖.
func (p Point) Norm() float64 {
	return math.Sqrt(p.NormSq())
}

func (p Point) sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}
