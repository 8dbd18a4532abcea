package tzoracle

import "github.com/corvyn/hxroute/state"

// NextHop implements the §4.E query: given the current node u and
// destination v, return the next hop to forward toward, and whether u
// can resolve a hop at all. Two cases, in order:
//
//  1. v is in u's bunch: return the bunch's stored next hop directly.
//  2. Otherwise: route toward v's own designated landmark (the landmark
//     closest to v), using u's routing info for that landmark. Subsequent
//     hops from the landmark reach v via the landmark's reverse tree or
//     v's bunch, which is how the Thorup-Zwick stretch-<=3 bound holds.
func (o *Oracle) NextHop(u, v state.NodeId) (state.NodeId, bool) {
	if u == v {
		return u, true
	}
	ut, ok := o.Nodes[u]
	if !ok {
		return "", false
	}
	if entry, ok := ut.Bunch[v]; ok {
		return entry.NextHop, true
	}

	vt, ok := o.Nodes[v]
	if !ok {
		return "", false
	}
	lm := vt.ClosestLandmark
	// When u is on v's tree path to lm (lm included), step down toward v.
	for cur := v; cur != lm; {
		up, ok := o.Nodes[cur].ToLandmark[lm]
		if !ok || up.NextHop == cur {
			break
		}
		if up.NextHop == u {
			return cur, true
		}
		cur = up.NextHop
	}
	entry, ok := ut.ToLandmark[lm]
	if !ok {
		return "", false
	}
	return entry.NextHop, true
}

// Distance returns u's best known distance to v: its bunch distance if v
// is in the bunch, or the sum of u's distance to v's landmark plus v's
// distance to that same landmark otherwise. The forwarding FSM and the
// experiment harness do not call it; the harness takes stretch against
// BFS distances.
func (o *Oracle) Distance(u, v state.NodeId) (int, bool) {
	if u == v {
		return 0, true
	}
	ut, ok := o.Nodes[u]
	if !ok {
		return 0, false
	}
	if entry, ok := ut.Bunch[v]; ok {
		return entry.Dist, true
	}
	vt, ok := o.Nodes[v]
	if !ok {
		return 0, false
	}
	uToLandmark, ok := ut.ToLandmark[vt.ClosestLandmark]
	if !ok {
		return 0, false
	}
	return uToLandmark.Dist + vt.ToLandmark[vt.ClosestLandmark].Dist, true
}

// Has reports whether u has any routing info at all (was part of the
// component this oracle was built over).
func (o *Oracle) Has(u state.NodeId) bool {
	_, ok := o.Nodes[u]
	return ok
}
