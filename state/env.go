package state

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/corvyn/hxroute/perf"
)

// Env is the process-wide, read-from-any-goroutine handle shared by every
// subsystem: the churn controller, the scheduler, and anything driving the
// CLI commands. It carries nothing mutable of its own besides the dispatch
// channel; all mutable routing state lives behind State, which is only ever
// touched on the single dispatch goroutine.
type Env struct {
	DispatchChannel chan<- func(*State) error
	Context         context.Context
	Cancel          context.CancelCauseFunc
	Log             *slog.Logger
}

// State is what every dispatched task receives: the shared Env plus the
// local node's identity. The oracle handle and the liveness clocks live in
// churn.Controller, not here. Only the goroutine draining DispatchChannel
// may read or write its fields.
type State struct {
	*Env
	Self NodeId
}

// NewDispatchLoop starts the single-writer loop that owns State and returns
// the channel callers dispatch work onto. Mirrors the donor's main-loop
// dispatch channel: churn rebuilds, each ending in its oracle-handle swap,
// funnel through here so they can never interleave. A task that panics
// cancels the environment instead of crashing the process.
func NewDispatchLoop(ctx context.Context, s *State) chan<- func(*State) error {
	ch := make(chan func(*State) error, 64)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case fn := <-ch:
				start := time.Now()
				err := func() (err error) {
					defer func() {
						if r := recover(); r != nil && s.Cancel != nil {
							s.Cancel(fmt.Errorf("panic: %v", r))
						}
					}()
					return fn(s)
				}()
				perf.DispatchLatency.Add(float64(time.Since(start).Microseconds()))
				if err != nil && s.Log != nil {
					s.Log.Error("dispatched task failed", "err", err)
				}
			}
		}
	}()
	return ch
}
