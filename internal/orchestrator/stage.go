package orchestrator

import (
	"fmt"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/structure"
)

// Output is the typed result of a stage.
type Output interface {
	Columns() []domain.Column
}

// Stage computes one feature from the bar series and upstream outputs.
type Stage interface {
	Feature() Feature
	Requires() []Feature
	Run(sc *StageContext) (Output, error)
}

// Registry maps features to their stage implementations.
type Registry map[Feature]Stage

// StageContext carries the input series, parameters and every output
// produced so far. It is returned to callers that ask for it.
type StageContext struct {
	Series  *domain.BarSeries
	Config  structure.Config
	outputs map[Feature]Output
	order   []Feature
}

func newStageContext(series *domain.BarSeries, cfg structure.Config) *StageContext {
	return &StageContext{Series: series, Config: cfg, outputs: make(map[Feature]Output)}
}

// Output returns the raw output of a feature.
func (sc *StageContext) Output(f Feature) (Output, bool) {
	out, ok := sc.outputs[f]
	return out, ok
}

// Features returns the features with an output in execution order.
func (sc *StageContext) Features() []Feature {
	return append([]Feature(nil), sc.order...)
}

func (sc *StageContext) set(f Feature, out Output) {
	if _, ok := sc.outputs[f]; !ok {
		sc.order = append(sc.order, f)
	}
	sc.outputs[f] = out
}

// upstream fetches a typed upstream output.
func upstream[T Output](sc *StageContext, f Feature) (T, error) {
	var zero T
	out, ok := sc.outputs[f]
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrMissingOutput, f)
	}
	typed, ok := out.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s has type %T", ErrMissingOutput, f, out)
	}
	return typed, nil
}

// Pivots returns the pivot output, nil if absent.
func (sc *StageContext) Pivots() *structure.PivotSeries {
	p, _ := upstream[*structure.PivotSeries](sc, FeaturePivots)
	return p
}

// PriceAction returns the event streams, nil if absent.
func (sc *StageContext) PriceAction() *structure.PriceActionSeries {
	p, _ := upstream[*structure.PriceActionSeries](sc, FeaturePriceAction)
	return p
}

// FollowThrough returns the follow-through output, nil if absent.
func (sc *StageContext) FollowThrough() *structure.FollowThroughSeries {
	f, _ := upstream[*structure.FollowThroughSeries](sc, FeatureFollowThrough)
	return f
}

// StructVol returns the structural volatility output, nil if absent.
func (sc *StageContext) StructVol() *structure.StructVolSeries {
	s, _ := upstream[*structure.StructVolSeries](sc, FeatureStructuralVol)
	return s
}

// Trend returns the trend regime output, nil if absent.
func (sc *StageContext) Trend() *structure.TrendSeries {
	t, _ := upstream[*structure.TrendSeries](sc, FeatureTrendRegime)
	return t
}

// DefaultRegistry returns the built-in stages.
func DefaultRegistry() Registry {
	stages := []Stage{
		pivotStage{},
		relationsStage{},
		fiboStage{},
		priceActionStage{},
		followThroughStage{},
		liquidityStage{},
		structVolStage{},
		trendStage{},
		paContextStage{},
	}
	r := make(Registry, len(stages))
	for _, s := range stages {
		r[s.Feature()] = s
	}
	return r
}

type pivotStage struct{}

func (pivotStage) Feature() Feature    { return FeaturePivots }
func (pivotStage) Requires() []Feature { return Dependencies[FeaturePivots] }
func (pivotStage) Run(sc *StageContext) (Output, error) {
	return structure.NewPivotDetector(sc.Config.PivotRange).Detect(sc.Series), nil
}

type relationsStage struct{}

func (relationsStage) Feature() Feature    { return FeatureRelations }
func (relationsStage) Requires() []Feature { return Dependencies[FeatureRelations] }
func (relationsStage) Run(sc *StageContext) (Output, error) {
	p, err := upstream[*structure.PivotSeries](sc, FeaturePivots)
	if err != nil {
		return nil, err
	}
	return structure.DetectRelations(p, sc.Series.ATRs(), sc.Config.Relations.EqATRMult), nil
}

type fiboStage struct{}

func (fiboStage) Feature() Feature    { return FeatureFibo }
func (fiboStage) Requires() []Feature { return Dependencies[FeatureFibo] }
func (fiboStage) Run(sc *StageContext) (Output, error) {
	p, err := upstream[*structure.PivotSeries](sc, FeaturePivots)
	if err != nil {
		return nil, err
	}
	return structure.ProjectFibo(p, sc.Series.Closes(), sc.Config.Fibo.Ratios), nil
}

type priceActionStage struct{}

func (priceActionStage) Feature() Feature    { return FeaturePriceAction }
func (priceActionStage) Requires() []Feature { return Dependencies[FeaturePriceAction] }
func (priceActionStage) Run(sc *StageContext) (Output, error) {
	p, err := upstream[*structure.PivotSeries](sc, FeaturePivots)
	if err != nil {
		return nil, err
	}
	return structure.DetectPriceAction(p, sc.Series.Closes()), nil
}

type followThroughStage struct{}

func (followThroughStage) Feature() Feature    { return FeatureFollowThrough }
func (followThroughStage) Requires() []Feature { return Dependencies[FeatureFollowThrough] }
func (followThroughStage) Run(sc *StageContext) (Output, error) {
	pa, err := upstream[*structure.PriceActionSeries](sc, FeaturePriceAction)
	if err != nil {
		return nil, err
	}
	return structure.EvaluateFollowThrough(sc.Series, pa, sc.Config.FollowThrough), nil
}

type liquidityStage struct{}

func (liquidityStage) Feature() Feature    { return FeatureLiquidity }
func (liquidityStage) Requires() []Feature { return Dependencies[FeatureLiquidity] }
func (liquidityStage) Run(sc *StageContext) (Output, error) {
	pa, err := upstream[*structure.PriceActionSeries](sc, FeaturePriceAction)
	if err != nil {
		return nil, err
	}
	ft, err := upstream[*structure.FollowThroughSeries](sc, FeatureFollowThrough)
	if err != nil {
		return nil, err
	}
	return structure.EvaluateLiquidity(sc.Series, pa, ft, sc.Config.Liquidity), nil
}

type structVolStage struct{}

func (structVolStage) Feature() Feature    { return FeatureStructuralVol }
func (structVolStage) Requires() []Feature { return Dependencies[FeatureStructuralVol] }
func (structVolStage) Run(sc *StageContext) (Output, error) {
	pa, err := upstream[*structure.PriceActionSeries](sc, FeaturePriceAction)
	if err != nil {
		return nil, err
	}
	return structure.ClassifyStructVol(sc.Series, pa, sc.Config.StructVol), nil
}

type trendStage struct{}

func (trendStage) Feature() Feature    { return FeatureTrendRegime }
func (trendStage) Requires() []Feature { return Dependencies[FeatureTrendRegime] }
func (trendStage) Run(sc *StageContext) (Output, error) {
	p, err := upstream[*structure.PivotSeries](sc, FeaturePivots)
	if err != nil {
		return nil, err
	}
	pa, err := upstream[*structure.PriceActionSeries](sc, FeaturePriceAction)
	if err != nil {
		return nil, err
	}
	ft, err := upstream[*structure.FollowThroughSeries](sc, FeatureFollowThrough)
	if err != nil {
		return nil, err
	}
	sv, err := upstream[*structure.StructVolSeries](sc, FeatureStructuralVol)
	if err != nil {
		return nil, err
	}
	return structure.ClassifyTrend(p, pa, ft, sv, sc.Config.Trend), nil
}

type paContextStage struct{}

func (paContextStage) Feature() Feature    { return FeaturePAContext }
func (paContextStage) Requires() []Feature { return Dependencies[FeaturePAContext] }
func (paContextStage) Run(sc *StageContext) (Output, error) {
	pa, err := upstream[*structure.PriceActionSeries](sc, FeaturePriceAction)
	if err != nil {
		return nil, err
	}
	return structure.BuildPAContext(sc.Series, pa, sc.Config.PAContext), nil
}
