package domain

// Bar is a single OHLC bar. Bars are addressed by their position in a
// BarSeries; TimestampMs is carried for storage and reporting only.
type Bar struct {
	TimestampMs int64    // bar open time, Unix milliseconds
	Open        float64  // open price
	High        float64  // high price
	Low         float64  // low price
	Close       float64  // close price
	Volume      float64  // traded volume, 0 if unknown
	ATR         *float64 // average true range, NULL when not supplied
}

// BarSeries is an ordered, append-only sequence of bars for one instrument.
type BarSeries struct {
	Symbol    string // instrument symbol
	Timeframe string // bar timeframe label, e.g. "M5"
	Bars      []Bar  // ordered by TimestampMs ASC
}

// Len returns the number of bars.
func (s *BarSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// HasATR reports whether the series carries an atr column.
// The column counts as absent only when no bar has a value.
func (s *BarSeries) HasATR() bool {
	if s == nil {
		return false
	}
	for i := range s.Bars {
		if s.Bars[i].ATR != nil {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the series. ATR pointers are re-allocated so
// the copy can be modified without touching the caller's bars.
func (s *BarSeries) Clone() *BarSeries {
	if s == nil {
		return nil
	}
	out := &BarSeries{
		Symbol:    s.Symbol,
		Timeframe: s.Timeframe,
		Bars:      make([]Bar, len(s.Bars)),
	}
	copy(out.Bars, s.Bars)
	for i := range out.Bars {
		if out.Bars[i].ATR != nil {
			v := *out.Bars[i].ATR
			out.Bars[i].ATR = &v
		}
	}
	return out
}

// Truncate returns a copy holding bars [0, n). Used for causality checks.
func (s *BarSeries) Truncate(n int) *BarSeries {
	c := s.Clone()
	if c == nil {
		return nil
	}
	if n < len(c.Bars) {
		c.Bars = c.Bars[:n]
	}
	return c
}

// Opens returns the open column.
func (s *BarSeries) Opens() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Open
	}
	return out
}

// Highs returns the high column.
func (s *BarSeries) Highs() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.High
	}
	return out
}

// Lows returns the low column.
func (s *BarSeries) Lows() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Low
	}
	return out
}

// Closes returns the close column.
func (s *BarSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// ATRs returns the atr column, NULL where a bar has no value.
func (s *BarSeries) ATRs() []*float64 {
	out := make([]*float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.ATR
	}
	return out
}
