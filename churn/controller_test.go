package churn

import (
	"context"
	"testing"
	"time"

	"github.com/corvyn/hxroute/graphview"
	"github.com/corvyn/hxroute/state"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestController(t *testing.T, env *state.Env, initial *Snapshot, seed int64) *Controller {
	c := NewController(env, initial, seed)
	t.Cleanup(c.Close)
	return c
}

func testEnv(t *testing.T) *state.Env {
	ctx, cancel := context.WithCancelCause(context.Background())
	t.Cleanup(func() { cancel(nil) })
	env := &state.Env{Context: ctx, Cancel: cancel}
	st := &state.State{Env: env, Self: "self"}
	env.DispatchChannel = state.NewDispatchLoop(ctx, st)
	return env
}

func starView() *graphview.View {
	v := graphview.New()
	v.AddUndirectedEdge("hub", "a")
	v.AddUndirectedEdge("hub", "b")
	v.AddUndirectedEdge("hub", "c")
	return v
}

func TestHeartbeatResurrectsDeadNeighbor(t *testing.T) {
	env := testEnv(t)
	c := newTestController(t, env, &Snapshot{}, 1)
	c.Heartbeat("a")
	c.mu.Lock()
	c.dead["a"] = true
	c.mu.Unlock()
	c.Heartbeat("a")
	require.False(t, c.dead["a"])
}

func TestScheduleRebuildSwapsHandle(t *testing.T) {
	env := testEnv(t)
	initial := &Snapshot{Generation: 0}
	c := newTestController(t, env, initial, 7)
	v := starView()

	var gotGen uint64
	done := make(chan struct{})
	c.OnGenerationChange(func(gen uint64) {
		gotGen = gen
		close(done)
	})

	c.ScheduleRebuild(v)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("rebuild did not complete in time")
	}

	require.Equal(t, uint64(1), gotGen)
	snap := c.Handle().Load()
	require.Equal(t, uint64(1), snap.Generation)
	require.NotSame(t, initial, snap)
	require.Contains(t, snap.Coordinates, state.NodeId("hub"))
}

func TestIsSuspectBeforeDead(t *testing.T) {
	env := testEnv(t)
	c := newTestController(t, env, &Snapshot{}, 1)
	c.Heartbeat("a")
	c.mu.Lock()
	c.clocks["a"].lastSeen.Store(time.Now().Add(-4 * state.HeartbeatPeriod).UnixNano())
	c.mu.Unlock()
	require.True(t, c.IsSuspect("a", time.Now()))
}

func TestTickDispatchesRebuildOnNewDeath(t *testing.T) {
	env := testEnv(t)
	initial := &Snapshot{Generation: 0}
	c := newTestController(t, env, initial, 3)
	v := starView()
	c.Heartbeat("a")
	c.mu.Lock()
	c.clocks["a"].lastSeen.Store(time.Now().Add(-10 * state.HeartbeatPeriod).UnixNano())
	c.mu.Unlock()

	done := make(chan struct{})
	c.OnGenerationChange(func(uint64) { close(done) })
	c.Tick(v)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected rebuild after dead neighbor detected")
	}
}
