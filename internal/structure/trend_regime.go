package structure

import (
	"market-structure-lab/internal/domain"
)

// TrendSeries is the fused trend regime.
type TrendSeries struct {
	StructBias []int
	EventBias  []int
	FTBias     []int
	Bias       []int
	Strength   []float64
	Regime     []Regime
}

// ClassifyTrend sums three held ±1 biases and gates the label on structural
// volatility. sv may be nil when the gate is disabled.
func ClassifyTrend(p *PivotSeries, pa *PriceActionSeries, ft *FollowThroughSeries, sv *StructVolSeries, cfg TrendConfig) *TrendSeries {
	n := p.Len()
	out := &TrendSeries{
		StructBias: make([]int, n),
		EventBias:  make([]int, n),
		FTBias:     make([]int, n),
		Bias:       make([]int, n),
		Strength:   make([]float64, n),
		Regime:     make([]Regime, n),
	}
	var structBias, eventBias, ftBias int
	for i := 0; i < n; i++ {
		if b := p.Kind[i].Bias(); b != 0 {
			structBias = b
		}
		if b := eventDirection(pa, i); b != 0 {
			eventBias = b
		}
		if ft != nil {
			if b := followThroughDirection(ft, i); b != 0 {
				ftBias = b
			}
		}
		bias := structBias + eventBias + ftBias
		highVol := cfg.DisableVolGate || (sv != nil && sv.HighAt(i))

		out.StructBias[i] = structBias
		out.EventBias[i] = eventBias
		out.FTBias[i] = ftBias
		out.Bias[i] = bias
		out.Strength[i] = min(float64(absInt(bias))/3, 1)
		out.Regime[i] = resolveRegime(bias, highVol)
	}
	return out
}

// resolveRegime picks exactly one label. Trend labels take priority over
// transition when the volatility gate holds.
func resolveRegime(bias int, highVol bool) Regime {
	switch {
	case bias >= 1 && highVol:
		return RegimeTrendUp
	case bias <= -1 && highVol:
		return RegimeTrendDown
	case absInt(bias) >= 1:
		return RegimeTransition
	default:
		return RegimeRange
	}
}

// eventDirection returns +1 for a bull BOS/MSS at bar i, -1 for a bear one.
// Bear wins when both fire.
func eventDirection(pa *PriceActionSeries, i int) int {
	dir := 0
	if pa.Stream(EventKey{BOS, Bull}).Fired[i] || pa.Stream(EventKey{MSS, Bull}).Fired[i] {
		dir = 1
	}
	if pa.Stream(EventKey{BOS, Bear}).Fired[i] || pa.Stream(EventKey{MSS, Bear}).Fired[i] {
		dir = -1
	}
	return dir
}

func followThroughDirection(ft *FollowThroughSeries, i int) int {
	dir := 0
	if ft.Stream(EventKey{BOS, Bull}).Valid[i] || ft.Stream(EventKey{MSS, Bull}).Valid[i] {
		dir = 1
	}
	if ft.Stream(EventKey{BOS, Bear}).Valid[i] || ft.Stream(EventKey{MSS, Bear}).Valid[i] {
		dir = -1
	}
	return dir
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Columns returns the trend columns.
func (s *TrendSeries) Columns() []domain.Column {
	n := len(s.Bias)
	bias := make([]*int, n)
	strength := make([]*float64, n)
	labels := make([]string, n)
	for i := 0; i < n; i++ {
		bias[i] = ptr(s.Bias[i])
		strength[i] = ptr(s.Strength[i])
		labels[i] = s.Regime[i].String()
	}
	return []domain.Column{
		domain.IntColumn("trend_bias", bias),
		domain.FloatColumn("trend_strength", strength),
		domain.LabelColumn("trend_regime", labels),
	}
}
