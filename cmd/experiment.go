package cmd

import (
	"fmt"

	"github.com/corvyn/hxroute/harness"
	"github.com/spf13/cobra"
)

var experimentCmd = &cobra.Command{
	Use:     "experiment",
	Short:   "Run the full harness: N trials, stretch/hop/mode histograms, seeded and reproducible",
	GroupID: "measure",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		summary, err := harness.RunExperiment(cfg)
		if err != nil {
			return err
		}

		fmt.Printf("preprocessing: %s\n", summary.PreprocessTime)
		fmt.Printf("trials: %d delivered: %d (%.1f%%)\n", summary.Trials, summary.Delivered, 100*float64(summary.Delivered)/float64(summary.Trials))
		fmt.Printf("mean stretch: %.3f\n", summary.MeanStretch)
		fmt.Println("mode hop totals:")
		for mode, n := range summary.ModeHopTotals {
			fmt.Printf("  %s: %d\n", mode, n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(experimentCmd)
}
