package structure

import (
	"testing"
)

func TestResolveRegime(t *testing.T) {
	tests := []struct {
		bias    int
		highVol bool
		want    Regime
	}{
		{0, false, RegimeRange},
		{0, true, RegimeRange},
		{1, true, RegimeTrendUp},
		{3, true, RegimeTrendUp},
		{-1, true, RegimeTrendDown},
		{-3, true, RegimeTrendDown},
		{1, false, RegimeTransition},
		{-2, false, RegimeTransition},
	}
	for _, tt := range tests {
		if got := resolveRegime(tt.bias, tt.highVol); got != tt.want {
			t.Errorf("resolveRegime(%d, %v) = %s, want %s", tt.bias, tt.highVol, got, tt.want)
		}
	}
}

func TestClassifyTrend_HeldBiases(t *testing.T) {
	n := 20
	ps := pivotSeriesFrom(n, Pivot{Kind: HH, Price: 110, BarIndex: 3})
	pa := emptyPriceAction(n)
	fire(pa, bosBull, 5, 110)
	ft := emptyFollowThrough(n, 5)
	ft.Stream(bosBull).Valid[10] = true
	sv := ClassifyStructVol(flat(n, 100, 1), emptyPriceAction(n), DefaultConfig().StructVol)

	tr := ClassifyTrend(ps, pa, ft, sv, TrendConfig{})

	wantBias := map[int]int{0: 0, 2: 0, 3: 1, 4: 1, 5: 2, 9: 2, 10: 3, 19: 3}
	for bar, want := range wantBias {
		if tr.Bias[bar] != want {
			t.Errorf("Bar %d: bias %d, want %d", bar, tr.Bias[bar], want)
		}
	}
	if tr.Regime[0] != RegimeRange {
		t.Errorf("Expected range before any signal, got %s", tr.Regime[0])
	}
	// No structural volatility at all: every signalled bar is a transition.
	for i := 3; i < n; i++ {
		if tr.Regime[i] != RegimeTransition {
			t.Errorf("Bar %d: expected transition, got %s", i, tr.Regime[i])
		}
	}
	if tr.Strength[19] != 1 {
		t.Errorf("Expected strength 1 at full bias, got %v", tr.Strength[19])
	}
}

func TestClassifyTrend_BearEventWinsSameBar(t *testing.T) {
	n := 5
	pa := emptyPriceAction(n)
	fire(pa, mssBull, 2, 100)
	fire(pa, bosBear, 2, 99)

	tr := ClassifyTrend(pivotSeriesFrom(n), pa, emptyFollowThrough(n, 5), nil, TrendConfig{DisableVolGate: true})

	if tr.EventBias[2] != -1 {
		t.Errorf("Expected bear event bias, got %d", tr.EventBias[2])
	}
	if tr.Regime[4] != RegimeTrendDown {
		t.Errorf("Expected trend_down with the gate disabled, got %s", tr.Regime[4])
	}
}

func TestClassifyTrend_TrendNeedsHighVol(t *testing.T) {
	series := flat(20, 100, 1)
	series.Bars[6].High = 105
	pa := emptyPriceAction(20)
	fire(pa, bosBull, 5, 100)
	sv := ClassifyStructVol(series, pa, DefaultConfig().StructVol)

	tr := ClassifyTrend(pivotSeriesFrom(20), pa, emptyFollowThrough(20, 5), sv, TrendConfig{})

	// bar 5: range 2 ATR, high
	if tr.Regime[5] != RegimeTrendUp {
		t.Errorf("Bar 5: expected trend_up, got %s", tr.Regime[5])
	}
	// bar 16 is outside the volatility window
	if tr.Regime[16] != RegimeTransition {
		t.Errorf("Bar 16: expected transition, got %s", tr.Regime[16])
	}
}

func TestTrendSeries_Exclusive(t *testing.T) {
	series := zigzag(300, 100, 0.2, 1)
	cfg := DefaultConfig()
	ps := NewPivotDetector(3).Detect(series)
	pa := DetectPriceAction(ps, series.Closes())
	ft := EvaluateFollowThrough(series, pa, cfg.FollowThrough)
	sv := ClassifyStructVol(series, pa, cfg.StructVol)

	tr := ClassifyTrend(ps, pa, ft, sv, cfg.Trend)

	for i, r := range tr.Regime {
		switch r.String() {
		case "range", "trend_up", "trend_down", "transition":
		default:
			t.Fatalf("Bar %d: unexpected regime %q", i, r)
		}
		if tr.Strength[i] < 0 || tr.Strength[i] > 1 {
			t.Fatalf("Bar %d: strength %v out of range", i, tr.Strength[i])
		}
	}
}
