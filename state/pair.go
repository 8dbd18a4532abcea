package state

// Pair is a small generic tuple, used by the dispatch loop's DispatchWait
// to carry a (result, error) pair back over a channel without declaring a
// one-off struct for it.
type Pair[Ty1, Ty2 any] struct {
	V1 Ty1
	V2 Ty2
}
