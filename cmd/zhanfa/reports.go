package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/newthinker/zhanfa/internal/report"
	"github.com/newthinker/zhanfa/internal/storage/archive"
	"github.com/spf13/cobra"
)

// NoReportsMessage is printed when the archive holds no matching report
const NoReportsMessage = "no reports"

var (
	reportsOut    string
	reportsTactic string
	reportsMonth  string
	pruneKeep     int
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List archived reports",
	Long: `List the reports in the configured output (local directory or S3 bucket),
oldest first.`,
	Args: cobra.NoArgs,
	RunE: runReports,
}

var reportsShowCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Print an archived report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportsShow,
}

var reportsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest reports of each tactic",
	Args:  cobra.NoArgs,
	RunE:  runReportsPrune,
}

func init() {
	reportsCmd.PersistentFlags().StringVar(&reportsOut, "out", "", "local report directory (overrides output.path)")
	reportsCmd.PersistentFlags().StringVar(&reportsTactic, "tactic", "", "only reports of this tactic")
	reportsCmd.Flags().StringVar(&reportsMonth, "month", "", "only reports of this month, YYYYMM")
	reportsPruneCmd.Flags().IntVar(&pruneKeep, "keep", 10, "reports to keep per tactic")

	reportsCmd.AddCommand(reportsShowCmd, reportsPruneCmd)
	rootCmd.AddCommand(reportsCmd)
}

func openArchive(cmd *cobra.Command) (*report.Archive, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("out") {
		cfg.Output.Type = archive.TypeLocal
		cfg.Output.Path = reportsOut
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	return report.NewArchive(store, loc), nil
}

func runReports(cmd *cobra.Command, args []string) error {
	a, err := openArchive(cmd)
	if err != nil {
		return err
	}
	entries, err := a.List(cmd.Context(), reportsMonth, reportsTactic)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, NoReportsMessage)
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tTACTIC\tPATH\tLOCATION")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.At.Format("2006-01-02 15:04:05"), e.Tactic, e.Path, a.Location(e.Path))
	}
	return w.Flush()
}

func runReportsShow(cmd *cobra.Command, args []string) error {
	a, err := openArchive(cmd)
	if err != nil {
		return err
	}
	data, err := a.Read(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runReportsPrune(cmd *cobra.Command, args []string) error {
	a, err := openArchive(cmd)
	if err != nil {
		return err
	}
	deleted, err := a.Prune(cmd.Context(), pruneKeep, reportsTactic)
	out := cmd.OutOrStdout()
	for _, e := range deleted {
		fmt.Fprintf(out, "deleted %s\n", a.Location(e.Path))
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "pruned %d reports\n", len(deleted))
	return nil
}
