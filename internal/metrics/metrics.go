// Package metrics collects per-run screening counters and exports them in
// the node-exporter textfile format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/newthinker/zhanfa/internal/core"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label value for admitted symbols; skips use their reason
const OutcomeAdmitted = "admitted"

// Run status label values
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	symbolsTotal  *prometheus.CounterVec
	resultsTotal  *prometheus.CounterVec
	runDuration   *prometheus.GaugeVec
	runsTotal     *prometheus.CounterVec
	lastRunFinish *prometheus.GaugeVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		Registry: reg,

		symbolsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zhanfa_symbols_total",
				Help: "Symbols screened, by outcome (admitted or skip reason)",
			},
			[]string{"tactic", "outcome"},
		),
		resultsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zhanfa_results_total",
				Help: "Admitted symbols by strength tier",
			},
			[]string{"tactic", "tier"},
		),
		runDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "zhanfa_run_duration_seconds",
				Help: "Wall time of the last run of a tactic",
			},
			[]string{"tactic"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zhanfa_runs_total",
				Help: "Tactic runs by status",
			},
			[]string{"tactic", "status"},
		),
		lastRunFinish: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "zhanfa_last_run_timestamp_seconds",
				Help: "Unix time the last run of a tactic finished",
			},
			[]string{"tactic"},
		),
	}

	reg.MustRegister(r.symbolsTotal)
	reg.MustRegister(r.resultsTotal)
	reg.MustRegister(r.runDuration)
	reg.MustRegister(r.runsTotal)
	reg.MustRegister(r.lastRunFinish)

	return r
}

// RecordOutcome counts one screened symbol.
func (r *Registry) RecordOutcome(tactic string, o core.Outcome) {
	if o.Admitted() {
		r.symbolsTotal.WithLabelValues(tactic, OutcomeAdmitted).Inc()
		r.resultsTotal.WithLabelValues(tactic, o.Result.Tier).Inc()
		return
	}
	r.symbolsTotal.WithLabelValues(tactic, string(o.Skip)).Inc()
}

// RecordRun records a finished run of a tactic.
func (r *Registry) RecordRun(tactic, status string, duration time.Duration, finished time.Time) {
	r.runsTotal.WithLabelValues(tactic, status).Inc()
	r.runDuration.WithLabelValues(tactic).Set(duration.Seconds())
	r.lastRunFinish.WithLabelValues(tactic).Set(float64(finished.Unix()))
}

// WriteTextfile writes every metric to path for the textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating metrics dir: %w", err)
	}
	return prometheus.WriteToTextfile(path, r)
}
