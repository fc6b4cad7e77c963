package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/newthinker/zhanfa/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// value reads a gathered counter or gauge by its tactic label and, when
// given, the value of its second label
func value(t *testing.T, reg *Registry, name string, labels ...string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			got := make(map[string]string)
			for _, lp := range m.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			if got["tactic"] != labels[0] || (len(labels) > 1 && !hasValue(got, labels[1])) {
				continue
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func hasValue(labels map[string]string, v string) bool {
	for k, lv := range labels {
		if k != "tactic" && lv == v {
			return true
		}
	}
	return false
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NotNil(t, reg)

	// vectors without observations are not gathered
	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Empty(t, mfs)
}

func TestRegistry_RecordOutcome(t *testing.T) {
	reg := NewRegistry()

	reg.RecordOutcome("crash_recovery", core.Outcome{
		Code:   "600000",
		Result: &core.ScreenResult{Code: "600000", Tier: "core strike"},
	})
	reg.RecordOutcome("crash_recovery", core.Skipped("300750", core.SkipBoard, nil))
	reg.RecordOutcome("crash_recovery", core.Skipped("300751", core.SkipBoard, nil))
	reg.RecordOutcome("crash_recovery", core.Skipped("600001", core.SkipReadFailed, errors.New("io")))

	assert.Equal(t, 1.0, value(t, reg, "zhanfa_symbols_total", "crash_recovery", OutcomeAdmitted))
	assert.Equal(t, 2.0, value(t, reg, "zhanfa_symbols_total", "crash_recovery", "board"))
	assert.Equal(t, 1.0, value(t, reg, "zhanfa_symbols_total", "crash_recovery", "read_failed"))
	assert.Equal(t, 1.0, value(t, reg, "zhanfa_results_total", "crash_recovery", "core strike"))
}

func TestRegistry_RecordRun(t *testing.T) {
	reg := NewRegistry()
	finished := time.Date(2025, 1, 2, 7, 0, 0, 0, time.UTC)

	reg.RecordRun("volume_price", StatusOK, 1500*time.Millisecond, finished)

	assert.Equal(t, 1.0, value(t, reg, "zhanfa_runs_total", "volume_price", StatusOK))
	assert.Equal(t, 1.5, value(t, reg, "zhanfa_run_duration_seconds", "volume_price"))
	assert.Equal(t, float64(finished.Unix()), value(t, reg, "zhanfa_last_run_timestamp_seconds", "volume_price"))
}

func TestRegistry_WriteTextfile(t *testing.T) {
	reg := NewRegistry()
	reg.RecordRun("crash_recovery", StatusFailed, time.Second, time.Now())

	path := filepath.Join(t.TempDir(), "textfile", "zhanfa.prom")
	require.NoError(t, reg.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `zhanfa_runs_total{status="failed",tactic="crash_recovery"} 1`)
	assert.Contains(t, string(data), "# TYPE zhanfa_run_duration_seconds gauge")
}

// Ensure the registry implements prometheus.Gatherer interface
func TestRegistry_ImplementsGatherer(t *testing.T) {
	reg := NewRegistry()
	var _ prometheus.Gatherer = reg
}
