package cmd

import (
	"fmt"

	"github.com/corvyn/hxroute/harness"
	"github.com/corvyn/hxroute/pie"
	"github.com/spf13/cobra"
)

var embedCmd = &cobra.Command{
	Use:     "embed",
	Short:   "Run the PIE embedder standalone and print the coordinate registry",
	GroupID: "explore",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		v, err := harness.GenerateTopology(cfg)
		if err != nil {
			return err
		}
		results, err := pie.EmbedComponents(v)
		if err != nil {
			return err
		}
		for i, res := range results {
			fmt.Printf("component %d: root=%s nodes=%d unreached=%d\n", i, res.Root, len(res.Coordinates), len(res.Unreached))
			for _, id := range v.Nodes() {
				if pt, ok := res.Coordinates[id]; ok {
					fmt.Printf("  %s -> (%.4f, %.4f)\n", id, pt.X, pt.Y)
				}
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(embedCmd)
}
