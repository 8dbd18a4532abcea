package tzoracle

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// parallelThreshold is the minimum item count to bother with a worker
// pool at all; below it the per-goroutine dispatch overhead costs more
// than the sequential loop it would replace.
//
// maxWorkers caps concurrency regardless of GOMAXPROCS; oracle builds are
// bounded by graph size, not CPU availability, so a wide fan-out buys
// nothing past a handful of workers. Both constants are grounded on the
// donor corpus's parallel-BFS worker pool (jinterlante1206-AleutianLocal's
// graph/parallel.go: parallelThreshold=32, maxParallelWorkers=8).
const (
	parallelThreshold = 32
	maxWorkers         = 8
)

// parallelFor runs fn(i) for every i in [0,n) and returns the first error
// encountered. Below parallelThreshold it runs sequentially in index
// order, same as the grounding source's level-size fallback; at or above
// it, fn(i) is fanned out across a bounded errgroup worker pool; an error
// does not stop the other calls, and the first one is returned after all
// of them have finished. This is the only concurrency
// primitive the TZ builder needs: step 2 (per-landmark BFS) and step 3
// (per-node bunch computation) are each embarrassingly parallel over an
// index range with no inter-task synchronization, per §4.D.
func parallelFor(n int, fn func(i int) error) error {
	if n == 0 {
		return nil
	}

	if n < parallelThreshold {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	workers := min(n, min(runtime.NumCPU(), maxWorkers))

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			return fn(i)
		})
	}
	return g.Wait()
}
