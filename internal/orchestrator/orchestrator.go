// Package orchestrator validates a requested feature set against the stage
// dependency graph, runs the stages in dependency order and merges their
// columns onto a copy of the input bars.
package orchestrator

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/observability"
	"market-structure-lab/internal/structure"
)

// Orchestrator runs feature stages over a bar series.
type Orchestrator struct {
	registry Registry
	order    []Feature
	config   structure.Config
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// Options for creating Orchestrator.
type Options struct {
	// Config holds stage parameters. Zero value means structure.DefaultConfig().
	Config *structure.Config
	// Registry overrides the built-in stages.
	Registry Registry
	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
	// Metrics is optional.
	Metrics *observability.Metrics
}

// New creates an Orchestrator. It fails when the registry graph has an
// unknown dependency or a cycle.
func New(opts Options) (*Orchestrator, error) {
	reg := opts.Registry
	if reg == nil {
		reg = DefaultRegistry()
	}
	order, err := executionOrder(reg)
	if err != nil {
		return nil, fmt.Errorf("validate registry: %w", err)
	}
	cfg := structure.DefaultConfig()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Orchestrator{
		registry: reg,
		order:    order,
		config:   cfg,
		logger:   logger.With().Str("component", "orchestrator").Logger(),
		metrics:  opts.Metrics,
	}, nil
}

// Order returns the execution order of every registered feature.
func (o *Orchestrator) Order() []Feature {
	return append([]Feature(nil), o.order...)
}

// EffectiveConfig returns the stage parameters Apply uses for req.
func (o *Orchestrator) EffectiveConfig(req Request) structure.Config {
	cfg := o.config
	if req.PivotRange > 0 {
		cfg.PivotRange = req.PivotRange
	}
	return cfg
}

// Request describes one Apply call.
type Request struct {
	Features []Feature
	// PivotRange overrides the configured pivot range when > 0.
	PivotRange int
	// ReturnContext keeps the per-stage outputs in the result.
	ReturnContext bool
}

// Result is the merged feature table.
type Result struct {
	Table *domain.FeatureTable
	// Context is set only when requested.
	Context *StageContext
	// Warnings holds non-fatal conditions, e.g. ErrMissingIndicator.
	Warnings []error
	// Executed lists features in the order they ran.
	Executed    []Feature
	ATRComputed bool
}

// Apply validates the request and runs the enabled stages in dependency
// order, never in request order. The caller's series is not modified.
func (o *Orchestrator) Apply(series *domain.BarSeries, req Request) (*Result, error) {
	if err := validateRequest(o.registry, req.Features); err != nil {
		return nil, err
	}

	cfg := o.EffectiveConfig(req)
	work := series.Clone()
	if work == nil {
		work = &domain.BarSeries{}
	}
	log := o.logger.With().Str("symbol", work.Symbol).Str("timeframe", work.Timeframe).Logger()

	result := &Result{}
	if structure.EnsureATR(work, cfg.ATRPeriod) {
		result.ATRComputed = true
		result.Warnings = append(result.Warnings,
			fmt.Errorf("%w: atr column absent, computed ATR(%d) internally", ErrMissingIndicator, cfg.ATRPeriod))
		log.Warn().
			Str("indicator", "atr").
			Int("period", cfg.ATRPeriod).
			Msg("indicator missing, computing internally")
		o.metrics.RecordATRFallback()
	}

	enabled := make(map[Feature]bool, len(req.Features))
	for _, f := range req.Features {
		enabled[f] = true
	}

	sc := newStageContext(work, cfg)
	table := domain.NewFeatureTable(work)
	for _, f := range o.order {
		if !enabled[f] {
			continue
		}
		start := time.Now()
		out, err := o.registry[f].Run(sc)
		o.metrics.RecordStage(string(f), time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", f, err)
		}
		sc.set(f, out)
		cols := out.Columns()
		for _, col := range cols {
			if err := table.Add(col); err != nil {
				return nil, fmt.Errorf("stage %s: %w", f, err)
			}
		}
		o.recordOutput(out)
		result.Executed = append(result.Executed, f)
		log.Debug().
			Str("feature", string(f)).
			Int("columns", len(cols)).
			Dur("elapsed", time.Since(start)).
			Msg("stage completed")
	}
	o.metrics.RecordBars(work.Len())

	result.Table = table
	if req.ReturnContext {
		result.Context = sc
	}
	return result, nil
}

func (o *Orchestrator) recordOutput(out Output) {
	switch v := out.(type) {
	case *structure.PivotSeries:
		counts := make(map[structure.PivotKind]int)
		for _, p := range v.Pivots {
			counts[p.Kind]++
		}
		for k, n := range counts {
			o.metrics.RecordPivots(k.String(), n)
		}
	case *structure.PriceActionSeries:
		for _, key := range structure.EventKeys {
			o.metrics.RecordEvents(key.Prefix(), len(v.Stream(key).Events))
		}
	}
}
