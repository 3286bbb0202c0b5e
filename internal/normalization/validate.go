package normalization

import (
	"fmt"
	"math"

	"market-structure-lab/internal/domain"
)

// BarError locates a rejected bar.
type BarError struct {
	Index       int
	TimestampMs int64
	Reason      string
	Err         error
}

func (e *BarError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("bar %d (ts %d): %v", e.Index, e.TimestampMs, e.Err)
	}
	return fmt.Sprintf("bar %d (ts %d): %v: %s", e.Index, e.TimestampMs, e.Err, e.Reason)
}

func (e *BarError) Unwrap() error { return e.Err }

// ValidateBar checks one bar: finite prices, high/low enclosing open and
// close, non-negative volume and ATR.
func ValidateBar(b domain.Bar) error {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value", ErrInvalidBar)
		}
	}
	switch {
	case b.High < b.Low:
		return fmt.Errorf("%w: high %g below low %g", ErrInvalidBar, b.High, b.Low)
	case b.High < math.Max(b.Open, b.Close):
		return fmt.Errorf("%w: high %g below body", ErrInvalidBar, b.High)
	case b.Low > math.Min(b.Open, b.Close):
		return fmt.Errorf("%w: low %g above body", ErrInvalidBar, b.Low)
	case b.Volume < 0:
		return fmt.Errorf("%w: negative volume", ErrInvalidBar)
	}
	if b.ATR != nil && (math.IsNaN(*b.ATR) || math.IsInf(*b.ATR, 0) || *b.ATR < 0) {
		return fmt.Errorf("%w: atr %g", ErrInvalidBar, *b.ATR)
	}
	return nil
}

// Normalize sorts the bars of a series in place and validates them.
// NaN ATR cells are treated as missing.
func Normalize(series *domain.BarSeries) error {
	if series == nil {
		return nil
	}
	for i := range series.Bars {
		if a := series.Bars[i].ATR; a != nil && math.IsNaN(*a) {
			series.Bars[i].ATR = nil
		}
	}
	SortBars(series.Bars)
	for i, b := range series.Bars {
		if err := ValidateBar(b); err != nil {
			return &BarError{Index: i, TimestampMs: b.TimestampMs, Err: err}
		}
	}
	return CheckOrder(series.Bars)
}
