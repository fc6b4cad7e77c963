package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/newthinker/zhanfa/internal/config"
	"github.com/newthinker/zhanfa/internal/core"
	"github.com/newthinker/zhanfa/internal/loader"
	"github.com/newthinker/zhanfa/internal/logger"
	"github.com/newthinker/zhanfa/internal/metrics"
	"github.com/newthinker/zhanfa/internal/report"
	"github.com/newthinker/zhanfa/internal/screen"
	"github.com/newthinker/zhanfa/internal/storage/archive"
	"github.com/newthinker/zhanfa/internal/tactic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NoResultsMessage is printed when a tactic admits no symbol
const NoResultsMessage = "no qualifying symbols today"

// previewRows caps the console table; the report holds every row
const previewRows = 10

var (
	runDataDir string
	runNames   string
	runOut     string
	runWorkers int
	runTop     int
)

var runCmd = &cobra.Command{
	Use:   "run [tactic...]",
	Short: "Screen the data directory with one or more tactics",
	Long: `Screen every symbol file in the data directory and write one report per
tactic. Without arguments the tactics listed in run.tactics are used.`,
	RunE: runScreen,
}

func init() {
	runCmd.Flags().StringVar(&runDataDir, "data-dir", "", "directory of per-symbol CSV files (overrides data.dir)")
	runCmd.Flags().StringVar(&runNames, "names", "", "code,name CSV (overrides data.names_file)")
	runCmd.Flags().StringVar(&runOut, "out", "", "local report directory (overrides output.path)")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "concurrent symbol tasks, 0 for one per CPU (overrides run.workers)")
	runCmd.Flags().IntVar(&runTop, "top", 0, "keep only the best N rows of each report (overrides run.top)")

	rootCmd.AddCommand(runCmd)
}

// loadConfig reads --config, or defaults plus environment when unset
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// openStore opens the report sink named by output.type
func openStore(cfg *config.Config) (archive.Storage, error) {
	store, err := archive.New(cfg.Output.Type, cfg.Output.Path, archive.S3Config{
		Bucket:    cfg.Output.S3.Bucket,
		Endpoint:  cfg.Output.S3.Endpoint,
		Region:    cfg.Output.S3.Region,
		AccessKey: cfg.Output.S3.AccessKey,
		SecretKey: cfg.Output.S3.SecretKey,
		Prefix:    cfg.Output.S3.Prefix,
	})
	if err != nil {
		return nil, core.WrapError(core.ErrReportFailed, err)
	}
	return store, nil
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.Data.Dir = runDataDir
	}
	if flags.Changed("names") {
		cfg.Data.NamesFile = runNames
	}
	if flags.Changed("out") {
		cfg.Output.Type = archive.TypeLocal
		cfg.Output.Path = runOut
	}
	if flags.Changed("workers") {
		cfg.Run.Workers = runWorkers
	}
	if flags.Changed("top") {
		cfg.Run.Top = runTop
	}
}

func runScreen(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	registry, err := tactic.Load(cfg.Run.TacticDir, log)
	if err != nil {
		return fmt.Errorf("loading tactics: %w", err)
	}
	wanted := args
	if len(wanted) == 0 {
		wanted = cfg.Run.Tactics
	}
	if len(wanted) == 0 {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("no tactic given and run.tactics is empty"))
	}
	tactics, err := registry.Resolve(wanted)
	if err != nil {
		return err
	}

	names, err := loader.LoadNames(cfg.Data.NamesFile)
	if err != nil {
		return err
	}
	files, err := loader.SymbolFiles(cfg.Data.Dir)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	job := &screenJob{
		cfg:     cfg,
		names:   names,
		files:   files,
		writer:  report.NewWriter(store, loc),
		metrics: metrics.NewRegistry(),
		runID:   logger.NewRunID(),
		log:     log,
		out:     cmd.OutOrStdout(),
	}

	log.Info("run starting",
		zap.String("run_id", job.runID),
		zap.Strings("tactics", wanted),
		zap.Int("symbols", len(files)),
		zap.String("data_dir", cfg.Data.Dir),
	)

	var runErr error
	for _, t := range tactics {
		if runErr = job.screenTactic(ctx, t); runErr != nil {
			break
		}
	}

	if cfg.Metrics.Textfile != "" {
		if err := job.metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Warn("writing metrics textfile failed", zap.String("path", cfg.Metrics.Textfile), zap.Error(err))
		}
	}
	return runErr
}

// screenJob carries what every tactic of one invocation shares
type screenJob struct {
	cfg     *config.Config
	names   loader.NameTable
	files   []string
	writer  *report.Writer
	metrics *metrics.Registry
	runID   string
	log     *zap.Logger
	out     io.Writer
}

func (j *screenJob) screenTactic(ctx context.Context, t *tactic.Tactic) error {
	log := logger.ForRun(j.log, j.runID, t.Name)
	start := time.Now()

	s := screen.New(t, j.names,
		screen.WithLogger(log),
		screen.WithMetrics(j.metrics),
		screen.WithWorkers(j.cfg.Run.Workers),
	)
	sum, err := s.Run(ctx, j.files)
	if err != nil {
		j.metrics.RecordRun(t.Name, metrics.StatusFailed, time.Since(start), time.Now())
		log.Error("run aborted", zap.Error(err))
		return err
	}

	rows := report.Aggregate(t, sum.Results, j.names, j.cfg.Run.Top)
	location, err := j.writer.Write(ctx, t, rows)
	if err != nil {
		j.metrics.RecordRun(t.Name, metrics.StatusFailed, time.Since(start), time.Now())
		log.Error("writing report failed", zap.Error(err))
		return err
	}
	j.metrics.RecordRun(t.Name, metrics.StatusOK, time.Since(start), time.Now())

	log.Info("run finished",
		zap.Int("symbols", sum.Total),
		zap.Int("admitted", sum.Admitted()),
		zap.Int("reported", len(rows)),
		zap.Any("skips", skipFields(sum.Skips)),
		zap.Duration("duration", sum.Duration),
		zap.String("report", location),
	)
	printSummary(j.out, t, sum, rows, location)
	return nil
}

func skipFields(skips map[core.SkipReason]int) map[string]int {
	out := make(map[string]int, len(skips))
	for reason, n := range skips {
		out[string(reason)] = n
	}
	return out
}

func printSummary(out io.Writer, t *tactic.Tactic, sum *screen.Summary, rows []core.ScreenResult, location string) {
	title := t.Name
	if t.Title != "" {
		title += " (" + t.Title + ")"
	}
	fmt.Fprintf(out, "=== %s ===\n", title)
	fmt.Fprintf(out, "symbols: %d  admitted: %d\n", sum.Total, sum.Admitted())

	var hist []string
	for _, reason := range core.SkipReasons {
		if n := sum.Skips[reason]; n > 0 {
			hist = append(hist, fmt.Sprintf("%s=%d", reason, n))
		}
	}
	if len(hist) > 0 {
		fmt.Fprintf(out, "skipped: %s\n", strings.Join(hist, " "))
	}

	if len(rows) == 0 {
		fmt.Fprintln(out, NoResultsMessage)
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME\tCLOSE\tSCORE\tTIER\tSIGNALS")
	for i, r := range rows {
		if i == previewRows {
			fmt.Fprintf(w, "...\t%d more\t\t\t\t\n", len(rows)-previewRows)
			break
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\t%s\t%s\n",
			r.Code, r.Name, r.Close, r.Score, r.Tier, strings.Join(r.Signals, report.SignalSeparator))
	}
	w.Flush()
	fmt.Fprintf(out, "report: %s\n", location)
}
