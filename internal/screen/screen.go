// Package screen runs a tactic over every symbol file of a data directory.
package screen

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/newthinker/zhanfa/internal/core"
	"github.com/newthinker/zhanfa/internal/feature"
	"github.com/newthinker/zhanfa/internal/indicator"
	"github.com/newthinker/zhanfa/internal/loader"
	"github.com/newthinker/zhanfa/internal/metrics"
	"github.com/newthinker/zhanfa/internal/tactic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LoadFunc reads one symbol file
type LoadFunc func(path, code string, require []string) (core.Series, error)

// Screener applies one tactic to symbol files. It holds no per-symbol state
// and is safe for concurrent use.
type Screener struct {
	tactic  *tactic.Tactic
	names   loader.NameTable
	logger  *zap.Logger
	metrics *metrics.Registry
	workers int
	load    LoadFunc
}

// Option configures a Screener
type Option func(*Screener)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Screener) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records every outcome in reg
func WithMetrics(reg *metrics.Registry) Option {
	return func(s *Screener) { s.metrics = reg }
}

// WithWorkers bounds concurrent symbol tasks. n <= 0 means one per CPU.
func WithWorkers(n int) Option {
	return func(s *Screener) { s.workers = n }
}

// WithLoader replaces the symbol file reader
func WithLoader(fn LoadFunc) Option {
	return func(s *Screener) { s.load = fn }
}

// New creates a screener for t. names may be nil.
func New(t *tactic.Tactic, names loader.NameTable, opts ...Option) *Screener {
	s := &Screener{
		tactic: t,
		names:  names,
		logger: zap.NewNop(),
		load:   loader.LoadSeries,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers <= 0 {
		s.workers = runtime.NumCPU()
	}
	return s
}

// Summary is the outcome of one run
type Summary struct {
	Tactic   string
	Outcomes []core.Outcome // sorted by code
	Results  []core.ScreenResult
	Skips    map[core.SkipReason]int
	Total    int
	Duration time.Duration
}

// Admitted returns the number of symbols that produced a result
func (s *Summary) Admitted() int {
	return len(s.Results)
}

// Run screens files concurrently. Per-symbol failures become skip outcomes;
// only cancellation of ctx fails the run.
func (s *Screener) Run(ctx context.Context, files []string) (*Summary, error) {
	start := time.Now()
	outcomes := make([]core.Outcome, 0, len(files))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, path := range files {
		if gctx.Err() != nil {
			break
		}
		path := path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			o := s.ScreenFile(path)
			if s.metrics != nil {
				s.metrics.RecordOutcome(s.tactic.Name, o)
			}
			mu.Lock()
			outcomes = append(outcomes, o)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sum := summarize(s.tactic.Name, outcomes)
	sum.Duration = time.Since(start)
	return sum, nil
}

func summarize(name string, outcomes []core.Outcome) *Summary {
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Code < outcomes[j].Code })

	sum := &Summary{
		Tactic:   name,
		Outcomes: outcomes,
		Skips:    make(map[core.SkipReason]int),
		Total:    len(outcomes),
	}
	for _, o := range outcomes {
		if o.Admitted() {
			sum.Results = append(sum.Results, *o.Result)
			continue
		}
		sum.Skips[o.Skip]++
	}
	return sum
}

// ScreenFile runs the full cascade for one symbol file. The board rule is
// checked before the file is opened, and again when the file names a
// different code.
func (s *Screener) ScreenFile(path string) (o core.Outcome) {
	code := loader.CodeFromPath(path)
	defer func() {
		if r := recover(); r != nil {
			o = core.Skipped(code, core.SkipMalformed, fmt.Errorf("panic: %v", r))
		}
		if !o.Admitted() {
			s.logger.Debug("symbol skipped",
				zap.String("code", code),
				zap.String("reason", string(o.Skip)),
				zap.Error(o.Err),
			)
		}
	}()

	name, _ := s.names.Lookup(code)
	if !s.tactic.AdmitBoard(code, name) {
		return core.Skipped(code, core.SkipBoard, nil)
	}

	series, err := s.load(path, code, s.tactic.RequiredColumns())
	if err != nil {
		return core.Skipped(code, core.SkipReasonFor(err), err)
	}
	// a code column in the file wins over the file name
	if series.Code != "" && series.Code != code {
		code = series.Code
		name, _ = s.names.Lookup(code)
		if !s.tactic.AdmitBoard(code, name) {
			return core.Skipped(code, core.SkipBoard, nil)
		}
	}
	return s.Screen(code, name, series)
}

// Screen runs the price, history and tactic stages on loaded daily bars.
func (s *Screener) Screen(code, name string, daily core.Series) core.Outcome {
	t := s.tactic
	c := tactic.Candidate{Code: code, Name: name, Daily: daily}
	if ok, reason := tactic.Cascade([]tactic.Filter{t.PriceFilter(), t.HistoryFilter()}, c); !ok {
		return core.Skipped(code, reason, nil)
	}

	bars := daily
	if t.Weekly() {
		bars = indicator.ResampleWeekly(daily)
		if bars.Len() < t.MinWeeklyBars {
			return core.Skipped(code, core.SkipInsufficientHistory, nil)
		}
	}

	f := feature.New(bars)
	v := t.Evaluate(f)
	if !v.Admitted() {
		return core.Skipped(code, v.Skip, nil)
	}

	last := bars.Last()
	return core.Outcome{
		Code: code,
		Result: &core.ScreenResult{
			Code:      code,
			Name:      name,
			Date:      last.Date,
			Close:     last.Close,
			PctChange: last.PctChange,
			Score:     v.Score,
			Tier:      v.Tier,
			Advice:    v.Advice,
			Signals:   v.Signals,
			Values:    t.Snapshot(f),
		},
	}
}
