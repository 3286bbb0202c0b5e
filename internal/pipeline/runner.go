// Package pipeline runs the engine over many series: each job loads bars,
// applies the orchestrator, derives a deterministic run record and hands the
// table to every configured sink. Jobs share no mutable state and run on a
// bounded number of goroutines.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/idhash"
	"market-structure-lab/internal/normalization"
	"market-structure-lab/internal/observability"
	"market-structure-lab/internal/orchestrator"
	"market-structure-lab/internal/sink"
	"market-structure-lab/internal/storage"
)

// Job statuses reported to metrics.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrNoSource is returned when a job has no input file and the runner has
// no bar store.
var ErrNoSource = errors.New("no bar source")

// Job is one series to process.
type Job struct {
	Symbol    string
	Timeframe string
	// Input is a CSV file. Empty loads the series from the bar store.
	Input string
	// StartMs and EndMs restrict a store load when EndMs > 0.
	StartMs, EndMs int64

	Features   []orchestrator.Feature
	PivotRange int
}

func (j Job) String() string {
	return j.Symbol + "/" + j.Timeframe
}

// JobResult is the outcome of one job.
type JobResult struct {
	Job      Job
	Run      *domain.RunRecord
	Table    *domain.FeatureTable
	Warnings []error
	Duration time.Duration
	Err      error
}

// Options for creating Runner.
type Options struct {
	Engine *orchestrator.Orchestrator
	// Bars is required for jobs without an Input file.
	Bars  storage.BarStore
	Sinks []sink.Sink
	// Workers bounds concurrent jobs. Values < 1 mean 1.
	Workers int
	// KeepTables keeps each feature table in its JobResult.
	KeepTables bool
	Logger     *zerolog.Logger
	Metrics    *observability.Metrics
	// Clock stamps run records. Defaults to time.Now.
	Clock func() time.Time
}

// Runner processes jobs.
type Runner struct {
	engine     *orchestrator.Orchestrator
	loader     *normalization.Runner
	sinks      []sink.Sink
	workers    int
	keepTables bool
	logger     zerolog.Logger
	metrics    *observability.Metrics
	clock      func() time.Time
}

// New creates a Runner.
func New(opts Options) (*Runner, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("pipeline: engine is required")
	}
	r := &Runner{
		engine:     opts.Engine,
		sinks:      opts.Sinks,
		workers:    max(opts.Workers, 1),
		keepTables: opts.KeepTables,
		logger:     zerolog.Nop(),
		metrics:    opts.Metrics,
		clock:      opts.Clock,
	}
	if opts.Bars != nil {
		r.loader = normalization.NewRunner(opts.Bars)
	}
	if opts.Logger != nil {
		r.logger = *opts.Logger
	}
	r.logger = r.logger.With().Str("component", "pipeline").Logger()
	if r.clock == nil {
		r.clock = time.Now
	}
	return r, nil
}

// Run processes jobs on up to Workers goroutines. Results are returned in
// job order. A failed job does not stop the others; the returned error
// joins every job error. Cancellation is checked before each job starts.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]JobResult, error) {
	results := make([]JobResult, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, job := range jobs {
		results[i].Job = job
		if err := gctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i] = r.runJob(gctx, job)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("job %s: %w", res.Job, res.Err))
		}
	}
	return results, errors.Join(errs...)
}

func (r *Runner) runJob(ctx context.Context, job Job) JobResult {
	start := time.Now()
	log := r.logger.With().Str("symbol", job.Symbol).Str("timeframe", job.Timeframe).Logger()

	res := r.process(ctx, job, log)
	res.Duration = time.Since(start)

	status := StatusSuccess
	if res.Err != nil {
		status = StatusError
		log.Error().Err(res.Err).Dur("elapsed", res.Duration).Msg("job failed")
	} else {
		log.Info().
			Str("run_id", res.Run.RunID).
			Int("bars", res.Run.BarCount).
			Int("warnings", len(res.Warnings)).
			Dur("elapsed", res.Duration).
			Msg("job completed")
	}
	r.metrics.RecordJob(job.Symbol, status, res.Duration)
	return res
}

func (r *Runner) process(ctx context.Context, job Job, log zerolog.Logger) JobResult {
	res := JobResult{Job: job}

	series, err := r.load(ctx, job)
	if err != nil {
		res.Err = err
		return res
	}
	log.Debug().Int("bars", series.Len()).Msg("bars loaded")

	req := orchestrator.Request{Features: job.Features, PivotRange: job.PivotRange}
	out, err := r.engine.Apply(series, req)
	if err != nil {
		res.Err = fmt.Errorf("apply: %w", err)
		return res
	}
	res.Warnings = out.Warnings

	run, err := r.runRecord(series, req, out)
	if err != nil {
		res.Err = err
		return res
	}
	res.Run = run

	for _, s := range r.sinks {
		err := s.Write(ctx, run, out.Table)
		r.metrics.RecordSinkWrite(s.Name(), err)
		if err != nil {
			res.Err = fmt.Errorf("sink %s: %w", s.Name(), err)
			return res
		}
		log.Debug().Str("sink", s.Name()).Msg("sink written")
	}
	if r.keepTables {
		res.Table = out.Table
	}
	return res
}

func (r *Runner) load(ctx context.Context, job Job) (*domain.BarSeries, error) {
	if job.Input != "" {
		return normalization.ReadCSVFile(job.Input, job.Symbol, job.Timeframe)
	}
	if r.loader == nil {
		return nil, ErrNoSource
	}
	return r.loader.LoadSeries(ctx, job.Symbol, job.Timeframe, job.StartMs, job.EndMs)
}

// runRecord derives the run record. The run ID hashes the series, the
// executed features and the effective parameters, so identical inputs
// always map to the same run.
func (r *Runner) runRecord(series *domain.BarSeries, req orchestrator.Request, out *orchestrator.Result) (*domain.RunRecord, error) {
	cfg := r.engine.EffectiveConfig(req)
	params, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	features := orchestrator.Strings(out.Executed)

	run := &domain.RunRecord{
		RunID:       idhash.ComputeRunID(series.Symbol, series.Timeframe, features, string(params), idhash.SeriesDigest(series)),
		Symbol:      series.Symbol,
		Timeframe:   series.Timeframe,
		Features:    features,
		PivotRange:  cfg.PivotRange,
		ParamsJSON:  string(params),
		BarCount:    series.Len(),
		TableDigest: idhash.TableDigest(out.Table),
		ATRComputed: out.ATRComputed,
		CreatedAt:   r.clock().UnixMilli(),
	}
	if n := series.Len(); n > 0 {
		run.FirstBarMs = series.Bars[0].TimestampMs
		run.LastBarMs = series.Bars[n-1].TimestampMs
	}
	return run, nil
}
