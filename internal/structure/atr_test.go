package structure

import (
	"math"
	"testing"
)

func TestComputeATR_ConstantRange(t *testing.T) {
	series := flat(30, 100, 0)

	atr := ComputeATR(series, 14)

	for i := 0; i < 14; i++ {
		if atr[i] != nil {
			t.Errorf("Bar %d: expected undefined ATR during warm-up", i)
		}
	}
	for i := 14; i < 30; i++ {
		if atr[i] == nil || math.Abs(*atr[i]-2) > 1e-9 {
			t.Errorf("Bar %d: expected ATR 2, got %v", i, atr[i])
		}
	}
}

func TestComputeATR_ShortSeries(t *testing.T) {
	series := flat(10, 100, 0)

	atr := ComputeATR(series, 14)

	for i, v := range atr {
		if v != nil {
			t.Errorf("Bar %d: expected undefined ATR on a short series", i)
		}
	}
}

func TestEnsureATR(t *testing.T) {
	series := flat(20, 100, 0)
	for i := range series.Bars {
		series.Bars[i].ATR = nil
	}

	if !EnsureATR(series, 0) {
		t.Fatalf("Expected fallback to run when ATR is absent")
	}
	if series.Bars[19].ATR == nil {
		t.Errorf("Expected ATR filled at bar 19")
	}
	if EnsureATR(series, 14) {
		t.Errorf("Expected no fallback when ATR is present")
	}
}
