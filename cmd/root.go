// Package cmd implements the hxroute CLI: a cobra command tree wrapping
// the embed/route/churn/experiment operations, grounded on the donor's
// cmd/root.go + cmd/run.go tree.
package cmd

import (
	"log/slog"
	"os"

	"github.com/corvyn/hxroute/state"
	"github.com/encodeous/tint"
	"github.com/goccy/go-yaml"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logPath    string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "hxroute",
	Short: "Compact-routing engine for dynamic graphs",
	Long: `hxroute combines a hyperbolic greedy embedding, a Thorup-Zwick
compact routing oracle, a multi-mode forwarding FSM, and a churn-response
subsystem into a single reproducible experiment harness.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

// Execute adds all child commands to the root command and runs it. It is
// called exactly once by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging wires the console handler plus an optional file fan-out,
// grounded on the donor's core/entrypoint.go logger assembly.
func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handlers := []slog.Handler{
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		}),
	}

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
		if err == nil {
			handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
		}
	}

	slog.SetDefault(slog.New(slogmulti.Fanout(handlers...)))
}

func init() {
	rootCmd.AddGroup(&cobra.Group{
		ID:    "explore",
		Title: "Explore a single topology",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "measure",
		Title: "Measure aggregate behavior",
	})

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "experiment.yaml", "experiment config file")
	rootCmd.PersistentFlags().StringVar(&logPath, "log-file", "", "also write logs to this file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	rootCmd.PersistentFlags().BoolVarP(&state.DBG_log_fsm, "lfsm", "f", false, "log every forwarding decision")
	rootCmd.PersistentFlags().BoolVarP(&state.DBG_log_churn, "lchurn", "u", false, "log churn rebuilds")
	rootCmd.PersistentFlags().BoolVarP(&state.DBG_log_oracle, "loracle", "o", false, "log TZ oracle builds")
}

func loadConfig() (*state.ExperimentCfg, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg state.ExperimentCfg
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.WithDefaults()
	if err := state.ValidateExperimentCfg(&cfg); err != nil {
		return nil, err
	}
	cfg.Apply()
	return &cfg, nil
}
