package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	hxchurn "github.com/corvyn/hxroute/churn"
	"github.com/corvyn/hxroute/graphview"
	"github.com/corvyn/hxroute/harness"
	"github.com/corvyn/hxroute/state"
	"github.com/spf13/cobra"
)

// measureDelivery runs cfg.Trials random-pair trials against snap
// directly, without regenerating the topology — used to compare delivery
// before and after a churn rebuild on the same graph.
func measureDelivery(snap *hxchurn.Snapshot, cfg *state.ExperimentCfg) (delivered, trials int) {
	nodes := snap.View.Nodes()
	if len(nodes) < 2 {
		return 0, 0
	}
	rng := rand.New(rand.NewSource(int64(cfg.Seed) + 1))
	for i := 0; i < cfg.Trials; i++ {
		src := nodes[rng.Intn(len(nodes))]
		dst := nodes[rng.Intn(len(nodes))]
		for dst == src {
			dst = nodes[rng.Intn(len(nodes))]
		}
		trials++
		if harness.RunTrial(snap, src, dst, cfg.TTL).Delivered {
			delivered++
		}
	}
	return delivered, trials
}

var (
	churnKillFraction float64
	churnTargeted     bool
)

var churnCmd = &cobra.Command{
	Use:     "churn",
	Short:   "Generate a topology, kill a fraction of nodes, rebuild, and report delivery vs. rebuild latency",
	GroupID: "measure",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		v, err := harness.GenerateTopology(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancelCause(context.Background())
		defer cancel(nil)
		env := &state.Env{Context: ctx, Cancel: cancel}
		st := &state.State{Env: env, Self: v.Nodes()[0]}
		env.DispatchChannel = state.NewDispatchLoop(ctx, st)

		initial, err := hxchurn.BuildStandaloneSnapshot(v, int64(cfg.Seed))
		if err != nil {
			return err
		}
		controller := hxchurn.NewController(env, initial, int64(cfg.Seed))

		beforeDelivered, beforeTrials := measureDelivery(initial, cfg)

		victims := chooseVictims(v.Nodes(), churnKillFraction, churnTargeted, v, int64(cfg.Seed))
		fmt.Printf("killing %d/%d nodes (targeted=%v)\n", len(victims), v.Len(), churnTargeted)

		start := time.Now()
		done := make(chan struct{})
		controller.OnGenerationChange(func(gen uint64) {
			fmt.Printf("rebuild complete: generation=%d latency=%s\n", gen, time.Since(start))
			close(done)
		})

		excluded := make(map[state.NodeId]bool, len(victims))
		for _, id := range victims {
			excluded[id] = true
		}
		survivors := v.Subgraph(excluded)
		controller.ScheduleRebuild(survivors)

		select {
		case <-done:
		case <-time.After(10 * time.Second):
			return fmt.Errorf("rebuild did not complete in time")
		}

		afterDelivered, afterTrials := measureDelivery(controller.Handle().Load(), cfg)

		fmt.Printf("delivery before: %d/%d\n", beforeDelivered, beforeTrials)
		fmt.Printf("delivery after:  %d/%d\n", afterDelivered, afterTrials)
		return nil
	},
}

// chooseVictims picks a deterministic set of nodes to kill: the
// highest-degree nodes when targeted, otherwise a seeded random sample.
func chooseVictims(nodes []state.NodeId, fraction float64, targeted bool, v *graphview.View, seed int64) []state.NodeId {
	count := int(fraction * float64(len(nodes)))
	if count <= 0 {
		return nil
	}
	ordered := append([]state.NodeId(nil), nodes...)
	if targeted {
		sort.Slice(ordered, func(i, j int) bool {
			return v.Degree(ordered[i]) > v.Degree(ordered[j])
		})
	} else {
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(ordered), func(i, j int) { ordered[i], ordered[j] = ordered[j], ordered[i] })
	}
	if count > len(ordered) {
		count = len(ordered)
	}
	return ordered[:count]
}

func init() {
	churnCmd.Flags().Float64Var(&churnKillFraction, "kill-fraction", 0.1, "fraction of nodes to kill")
	churnCmd.Flags().BoolVar(&churnTargeted, "targeted", false, "kill the highest-degree nodes instead of a random sample")
	rootCmd.AddCommand(churnCmd)
}
