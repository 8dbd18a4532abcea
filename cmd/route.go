package cmd

import (
	"fmt"

	"github.com/corvyn/hxroute/churn"
	"github.com/corvyn/hxroute/forwarding"
	"github.com/corvyn/hxroute/harness"
	"github.com/corvyn/hxroute/hyperbolic"
	"github.com/corvyn/hxroute/state"
	"github.com/spf13/cobra"
)

var (
	routeFrom string
	routeTo   string
)

// traceNeighborhood adapts a churn.Snapshot into forwarding.Neighborhood,
// the same shape the harness package builds internally for its trial
// runner, exposed here so the CLI can trace one route interactively.
type traceNeighborhood struct {
	snap *churn.Snapshot
}

func (n *traceNeighborhood) Neighbors(u state.NodeId) []state.NodeId {
	return n.snap.View.Neighbors(u)
}

func (n *traceNeighborhood) Coordinate(u state.NodeId) (hyperbolic.Point, bool) {
	p, ok := n.snap.Coordinates[u]
	return p, ok
}

func (n *traceNeighborhood) IsAlive(u state.NodeId) bool {
	return n.snap.View.HasNode(u)
}

func (n *traceNeighborhood) TreeParent(u state.NodeId) (state.NodeId, bool) {
	for _, t := range n.snap.Trees {
		if p, ok := t.Parent[u]; ok {
			return p, true
		}
	}
	return "", false
}

func (n *traceNeighborhood) TreeChildren(u state.NodeId) []state.NodeId {
	for _, t := range n.snap.Trees {
		if c, ok := t.Children[u]; ok {
			return c
		}
	}
	return nil
}

func (n *traceNeighborhood) Size() int {
	return n.snap.View.Len()
}

var routeCmd = &cobra.Command{
	Use:     "route",
	Short:   "Build an oracle and trace one route, printing hop and mode transitions",
	GroupID: "explore",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if routeFrom == "" || routeTo == "" {
			return fmt.Errorf("--from and --to are required")
		}

		v, err := harness.GenerateTopology(cfg)
		if err != nil {
			return err
		}
		snap, err := churn.BuildStandaloneSnapshot(v, int64(cfg.Seed))
		if err != nil {
			return err
		}

		src, dst := state.NodeId(routeFrom), state.NodeId(routeTo)
		destCoord, ok := snap.Coordinates[dst]
		if !ok {
			return fmt.Errorf("unknown destination %q", dst)
		}

		nb := &traceNeighborhood{snap: snap}
		oracle := snap.ComponentOracle(src)
		packet := state.NewPacket(src, dst, destCoord.X, destCoord.Y, cfg.TTL)

		cur := src
		fmt.Printf("%s (%s)\n", cur, packet.Mode)
		for {
			d := forwarding.Route(cur, packet, nb, oracle)
			switch d.Kind {
			case forwarding.DecisionDeliver:
				fmt.Println("delivered")
				return nil
			case forwarding.DecisionFail:
				fmt.Printf("failed: %s\n", d.Reason)
				return nil
			case forwarding.DecisionForward:
				packet.TTL--
				cur = d.NextHop
				oracle = snap.ComponentOracle(cur)
				fmt.Printf("-> %s (%s)\n", cur, d.Mode)
			}
		}
	},
}

func init() {
	routeCmd.Flags().StringVar(&routeFrom, "from", "", "source node id")
	routeCmd.Flags().StringVar(&routeTo, "to", "", "destination node id")
	rootCmd.AddCommand(routeCmd)
}
