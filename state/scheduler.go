// Package state's dispatch loop is the single-writer serialization
// primitive churn's rebuild pipeline runs on (§4.G): churn rebuilds are
// funneled through one channel so at most one swaps the live snapshot at a
// time. Heartbeats and Tick take the controller's mutex instead, and the
// CLI's route trace does not use the channel.
package state

import (
	"fmt"
	"time"

	"github.com/corvyn/hxroute/perf"
)

// Dispatch enqueues fn to run on the single dispatch goroutine without
// blocking the caller. The time spent blocked on the channel send is
// recorded as queueing delay (perf.DispatchQueueLatency) — distinct from
// the task's own execution time, which NewDispatchLoop records — so a
// rebuild storm that backs up the dispatch channel shows up separately
// from a single slow task. A panicking fn cancels the environment rather
// than taking the goroutine down with it (the recover sits in
// NewDispatchLoop, where fn runs), since a dropped rebuild would otherwise
// silently stall all routing over the node.
func (e *Env) Dispatch(fn func(*State) error) {
	defer func() {
		if r := recover(); r != nil {
			e.Cancel(fmt.Errorf("panic: %v", r))
		}
	}()
	start := time.Now()
	e.DispatchChannel <- fn
	perf.DispatchQueueLatency.Add(float64(time.Since(start).Microseconds()))
}

// DispatchWait enqueues fn and blocks until it has run on the dispatch
// goroutine, returning its result, for callers that need to observe a
// task's outcome rather than just fire it and move on (nothing in this
// module calls it yet). The full round trip — queue wait plus
// execution — is recorded under the same queueing metric as Dispatch,
// since a caller blocked in DispatchWait cares about wall-clock latency
// end to end, not just the enqueue step.
func (e *Env) DispatchWait(fn func(*State) (any, error)) (any, error) {
	start := time.Now()
	result := make(chan Pair[any, error])
	e.DispatchChannel <- func(s *State) error {
		res, err := fn(s)
		result <- Pair[any, error]{res, err}
		return err
	}
	select {
	case r := <-result:
		perf.DispatchQueueLatency.Add(float64(time.Since(start).Microseconds()))
		return r.V1, r.V2
	case <-e.Context.Done():
		return nil, e.Context.Err()
	}
}

// ScheduleTask runs fn on the dispatch goroutine after delay — churn's
// ScheduleRebuild uses this with state.RebuildDebounce. Each call
// dispatches fn once; calls are not merged.
func (e *Env) ScheduleTask(fn func(*State) error, delay time.Duration) {
	time.AfterFunc(delay, func() {
		e.Dispatch(fn)
	})
}

func (e *Env) repeatedTask(fn func(*State) error, period time.Duration) {
	for e.Context.Err() == nil {
		e.Dispatch(fn)
		time.Sleep(period)
	}
}

// RepeatTask runs fn on the dispatch goroutine every period until the
// environment is canceled. Nothing in this module schedules
// churn.Controller.Tick with it; Tick is called by the controller's owner.
func (e *Env) RepeatTask(fn func(*State) error, period time.Duration) {
	go e.repeatedTask(fn, period)
}
