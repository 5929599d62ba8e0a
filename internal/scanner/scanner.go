package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/codacy/codacy-govet/internal/policy"
	"github.com/codacy/codacy-govet/internal/rules"
	"github.com/codacy/codacy-govet/internal/types"
)

// Plan is the resolved rule configuration of one run.
type Plan struct {
	Catalog     *rules.Catalog
	Policy      *policy.Policy
	SideChannel string
}

// Scanner orchestrates the analysis of a batch of files.
type Scanner struct {
	engine  Engine
	emitter Emitter
	workers int
	logger  *slog.Logger
}

// New creates a new Scanner with the given number of workers.
// If workers <= 0, it defaults to runtime.NumCPU().
func New(e Engine, out Emitter, workers int) *Scanner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Scanner{
		engine:  e,
		emitter: out,
		workers: workers,
		logger:  slog.New(slog.DiscardHandler),
	}
}

// SetLogger sets the logger used for swallowed per-file errors.
func (s *Scanner) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Run analyzes targets and emits the records of each file as soon as the
// file is done. A file that cannot be compiled or evaluated yields one
// failure record and never stops the batch. When ctx is cancelled, workers
// stop picking up files and Run returns the context error; records already
// emitted stay emitted.
func (s *Scanner) Run(ctx context.Context, targets []*Target, plan Plan) (*types.RunStats, error) {
	start := time.Now()

	if err := s.engine.Configure(plan.SideChannel); err != nil {
		return nil, fmt.Errorf("configuring engine: %w", err)
	}
	active := plan.Policy.ActiveRules(plan.Catalog)
	gate := plan.Policy.Gate(plan.Catalog)

	// Fan-out files to workers
	fileCh := make(chan *Target, len(targets))
	for _, t := range targets {
		fileCh <- t
	}
	close(fileCh)

	var (
		mu      sync.Mutex
		stats   types.RunStats
		emitErr error
		wg      sync.WaitGroup
	)

	for range s.workers {
		wg.Go(func() {
			for target := range fileCh {
				if ctx.Err() != nil {
					return
				}
				records, outcome := s.analyze(ctx, target, active, gate, plan.Policy)
				if outcome.cancelled {
					return
				}
				err := s.emitter.Emit(records)

				mu.Lock()
				stats.FilesAnalyzed++
				stats.Records += len(records)
				stats.Suppressed += outcome.suppressed
				if outcome.failed {
					stats.FilesFailed++
				}
				if err != nil && emitErr == nil {
					emitErr = err
				}
				mu.Unlock()
			}
		})
	}

	wg.Wait()
	stats.Duration = time.Since(start)

	if err := ctx.Err(); err != nil {
		return &stats, err
	}
	if emitErr != nil {
		return &stats, fmt.Errorf("writing results: %w", emitErr)
	}
	return &stats, nil
}

type outcome struct {
	failed     bool
	cancelled  bool
	suppressed int
}

// analyze runs one file through compile, evaluate and the emission gate.
func (s *Scanner) analyze(ctx context.Context, target *Target, active []*rules.Rule, gate policy.Gate, p *policy.Policy) ([]types.Result, outcome) {
	unit, err := s.engine.Compile(target.Path, target.RelPath)
	if err != nil {
		s.logger.Debug("could not compile file", "file", target.RelPath, "error", err)
		return []types.Result{types.FailureResult(target.RelPath)}, outcome{failed: true}
	}

	findings, err := s.engine.Evaluate(ctx, unit, active, gate)
	if err != nil {
		if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return nil, outcome{cancelled: true}
		}
		s.logger.Debug("could not analyze file", "file", target.RelPath, "error", err)
		return []types.Result{types.FailureResult(target.RelPath)}, outcome{failed: true}
	}

	var (
		records []types.Result
		out     outcome
	)
	for _, f := range findings {
		if !p.ShouldReport(f.RuleID) {
			out.suppressed++
			continue
		}
		records = append(records, types.NewResult(target.RelPath, f))
	}
	return records, out
}
