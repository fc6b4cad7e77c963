package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/newthinker/zhanfa/internal/feature"
	"github.com/newthinker/zhanfa/internal/logger"
	"github.com/newthinker/zhanfa/internal/tactic"
	"github.com/spf13/cobra"
)

var tacticsFeatures bool

var tacticsCmd = &cobra.Command{
	Use:   "tactics",
	Short: "List available tactics",
	Long:  "List the built-in tactics plus those loaded from run.tactic_dir.",
	RunE:  runTactics,
}

func init() {
	tacticsCmd.Flags().BoolVar(&tacticsFeatures, "features", false, "also list the feature catalog usable in clauses")
	rootCmd.AddCommand(tacticsCmd)
}

func runTactics(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	registry, err := tactic.Load(cfg.Run.TacticDir, log)
	if err != nil {
		return fmt.Errorf("loading tactics: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTIMEFRAME\tPOLICY\tTIERS\tSOURCE\tTITLE")
	for _, t := range registry.GetAll() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			t.Name, t.Timeframe, t.Policy, len(t.Tiers), t.Source, t.Title)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if tacticsFeatures {
		fmt.Fprintln(cmd.OutOrStdout())
		w = tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FEATURE\tDESCRIPTION")
		for _, f := range feature.Describe() {
			fmt.Fprintf(w, "%s\t%s\n", f[0], f[1])
		}
		return w.Flush()
	}
	return nil
}
