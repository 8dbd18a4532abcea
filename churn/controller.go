package churn

import (
	"log/slog"
	"sync"
	"time"

	"github.com/corvyn/hxroute/graphview"
	"github.com/corvyn/hxroute/perf"
	"github.com/corvyn/hxroute/state"
	"github.com/jellydator/ttlcache/v3"
)

// Controller owns the liveness clocks, the dead-set, and schedules
// rebuilds through the single-writer dispatch channel (§4.G). One
// Controller per node; it is driven by state.Env/State exactly the way
// the donor's link_manager.go drives its own heartbeat loop.
type Controller struct {
	env    *state.Env
	handle *Handle
	seed   int64

	mu      sync.Mutex
	clocks  map[state.NodeId]*heartbeatClock
	dead    map[state.NodeId]bool
	baseGen uint64

	// suspectLogDedup suppresses repeated "neighbor suspect" log lines for
	// the same neighbor within one suspect window, the same
	// suppress-duplicates-within-a-TTL role the donor's router.go plays
	// with its SeqnoDedup cache.
	suspectLogDedup *ttlcache.Cache[state.NodeId, struct{}]

	onGenerationChange []func(gen uint64)
}

// NewController wires a Controller to an initial snapshot and the process
// dispatch environment. Rebuilds are scheduled on env.DispatchChannel, so
// at most one is ever in flight (§5: "an internal mutex ensures at most
// one rebuild is in flight per node" — here the single-writer dispatch
// channel plays that role instead of a literal mutex).
func NewController(env *state.Env, initial *Snapshot, seed int64) *Controller {
	dedup := ttlcache.New[state.NodeId, struct{}](
		ttlcache.WithTTL[state.NodeId, struct{}](time.Duration(state.SuspectMultiplier)*state.HeartbeatPeriod),
		ttlcache.WithDisableTouchOnHit[state.NodeId, struct{}](),
	)
	go dedup.Start()
	return &Controller{
		env:             env,
		handle:          NewHandle(initial),
		seed:            seed,
		clocks:          make(map[state.NodeId]*heartbeatClock),
		dead:            make(map[state.NodeId]bool),
		suspectLogDedup: dedup,
	}
}

// Close stops the suspect-log dedup cache's background eviction
// goroutine. Callers that own a Controller for a test or a short-lived
// CLI invocation should call this when done with it.
func (c *Controller) Close() {
	c.suspectLogDedup.Stop()
}

// Handle returns the live oracle handle readers should consult.
func (c *Controller) Handle() *Handle {
	return c.handle
}

// OnGenerationChange registers a callback invoked after every successful
// rebuild swap, with the new generation number (§4.G step 5: "emit a
// generation-change event consumed by the transport collaborator").
func (c *Controller) OnGenerationChange(fn func(gen uint64)) {
	c.onGenerationChange = append(c.onGenerationChange, fn)
}

// Heartbeat records a liveness signal from neighbor, resurrecting it from
// the dead-set if it was previously marked dead (a node rejoining after
// a transient partition).
func (c *Controller) Heartbeat(neighbor state.NodeId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	clk, ok := c.clocks[neighbor]
	if !ok {
		clk = newHeartbeatClock()
		c.clocks[neighbor] = clk
		return
	}
	clk.touch()
	delete(c.dead, neighbor)
	perf.HeartbeatsPerSecond.Add(1)
}

// Tick is called periodically (state.HeartbeatPeriod) to check every
// known neighbor against the suspect/dead thresholds and dispatch a
// rebuild if new deaths are found. Grounded on §4.G's suspect/dead
// multipliers of the heartbeat period.
func (c *Controller) Tick(v *graphview.View) {
	now := time.Now()
	newlyDead := c.scanForDeaths(now)
	if len(newlyDead) == 0 {
		return
	}
	c.ScheduleRebuild(v)
}

func (c *Controller) scanForDeaths(now time.Time) []state.NodeId {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadThreshold := time.Duration(state.DeadMultiplier) * state.HeartbeatPeriod
	var newlyDead []state.NodeId
	for id, clk := range c.clocks {
		if c.dead[id] {
			continue
		}
		if clk.idleFor(now) >= deadThreshold {
			c.dead[id] = true
			newlyDead = append(newlyDead, id)
		}
	}
	return newlyDead
}

// IsSuspect reports whether neighbor has missed heartbeats past
// T_suspect but not yet T_dead.
func (c *Controller) IsSuspect(neighbor state.NodeId, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	clk, ok := c.clocks[neighbor]
	if !ok {
		return false
	}
	idle := clk.idleFor(now)
	suspectThreshold := time.Duration(state.SuspectMultiplier) * state.HeartbeatPeriod
	deadThreshold := time.Duration(state.DeadMultiplier) * state.HeartbeatPeriod
	suspect := idle >= suspectThreshold && idle < deadThreshold
	if suspect && state.DBG_log_churn && c.suspectLogDedup.Get(neighbor) == nil {
		c.suspectLogDedup.Set(neighbor, struct{}{}, ttlcache.DefaultTTL)
		slog.Warn("neighbor suspect", "neighbor", neighbor, "idle", idle)
	}
	return suspect
}

// deadSnapshot copies the current dead-set so a rebuild always works off
// a consistent view even if Heartbeat/Tick run concurrently (§4.G:
// "re-reads the liveness state at rebuild start and uses the current
// dead-set snapshot").
func (c *Controller) deadSnapshot() map[state.NodeId]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[state.NodeId]bool, len(c.dead))
	for id := range c.dead {
		out[id] = true
	}
	return out
}

// ScheduleRebuild dispatches a rebuild task onto the single-writer
// channel after state.RebuildDebounce. Every call schedules its own
// rebuild; concurrent calls are not merged, but each rebuild works off the
// dead-set as it stands when that rebuild starts (§4.G).
func (c *Controller) ScheduleRebuild(v *graphview.View) {
	c.env.ScheduleTask(func(_ *state.State) error {
		return c.rebuild(v)
	}, state.RebuildDebounce)
}

// rebuild constructs the surviving subgraph from the current dead-set
// snapshot, rebuilds PIE+TZ on it, and swaps the oracle handle. Runs on
// the dispatch goroutine, so it never races another rebuild.
func (c *Controller) rebuild(v *graphview.View) error {
	start := time.Now()
	defer func() { perf.RebuildLatency.Add(float64(time.Since(start).Microseconds())) }()
	perf.RebuildsPerSecond.Add(1)

	dead := c.deadSnapshot()
	survivors := v.Subgraph(dead)

	c.mu.Lock()
	gen := c.baseGen + 1
	c.baseGen = gen
	c.mu.Unlock()

	next, err := buildSnapshot(gen, survivors, c.seed)
	if err != nil {
		return err
	}

	c.handle.Swap(next)
	if state.DBG_log_churn {
		slog.Info("churn rebuild complete", "generation", gen, "dead", len(dead))
	}
	for _, fn := range c.onGenerationChange {
		fn(gen)
	}

	// If new deaths landed while this rebuild was running, the dead-set
	// has grown past what this snapshot accounts for; schedule another
	// pass immediately rather than waiting for the next Tick.
	if len(c.deadSnapshot()) > len(dead) {
		c.ScheduleRebuild(v)
	}
	return nil
}
