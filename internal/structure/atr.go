package structure

import (
	talib "github.com/markcheno/go-talib"

	"market-structure-lab/internal/domain"
)

// DefaultATRPeriod is the Wilder ATR period used when the input carries no ATR.
const DefaultATRPeriod = 14

// ComputeATR returns Wilder's ATR over the series. Bars before the first
// full period are undefined.
func ComputeATR(series *domain.BarSeries, period int) []*float64 {
	n := series.Len()
	out := make([]*float64, n)
	if period < 1 || n <= period {
		return out
	}
	values := talib.Atr(series.Highs(), series.Lows(), series.Closes(), period)
	for i := period; i < n && i < len(values); i++ {
		out[i] = ptr(values[i])
	}
	return out
}

// EnsureATR fills the ATR of every bar when the series has none.
// It reports whether the fallback ran. The series is modified in place;
// callers pass a copy.
func EnsureATR(series *domain.BarSeries, period int) bool {
	if series.HasATR() {
		return false
	}
	if period < 1 {
		period = DefaultATRPeriod
	}
	atr := ComputeATR(series, period)
	for i := range series.Bars {
		series.Bars[i].ATR = atr[i]
	}
	return true
}
