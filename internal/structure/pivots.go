package structure

import (
	"market-structure-lab/internal/domain"
)

// Pivot is a confirmed, classified local extremum.
type Pivot struct {
	Kind          PivotKind
	Price         float64
	BodyPrice     *float64 // body extreme around the pivot, nil near the series start
	BarIndex      int      // bar at which the pivot is confirmed
	ExtremumIndex int      // bar holding the extreme, BarIndex - pivot range
}

// HeldLevel is a forward-propagated pivot level and the bar that set it.
type HeldLevel struct {
	Value []*float64
	Index []*int
}

// PivotSeries holds per-bar pivot output.
type PivotSeries struct {
	Range  int
	Kind   []PivotKind // classified pivot confirmed at bar, PivotNone elsewhere
	Price  []*float64  // raw pivot price at every local extremum, classified or not
	Body   []*float64
	HH     HeldLevel
	LL     HeldLevel
	LH     HeldLevel
	HL     HeldLevel
	Pivots []Pivot
}

// Held returns the held series for a pivot kind.
func (s *PivotSeries) Held(k PivotKind) *HeldLevel {
	switch k {
	case HH:
		return &s.HH
	case LL:
		return &s.LL
	case LH:
		return &s.LH
	case HL:
		return &s.HL
	default:
		return nil
	}
}

// Len returns the number of bars.
func (s *PivotSeries) Len() int {
	return len(s.Kind)
}

// PivotDetector confirms local extrema pivot-range bars after they occur.
type PivotDetector struct {
	Range int
}

// NewPivotDetector creates a detector for the given pivot range.
func NewPivotDetector(pivotRange int) *PivotDetector {
	return &PivotDetector{Range: pivotRange}
}

// Detect scans the series once. Bar i confirms the extremum at i-Range when
// it dominates both the Range bars before it and the Range bars after it.
// A bar that is both a local high and a local low takes the low price.
func (d *PivotDetector) Detect(series *domain.BarSeries) *PivotSeries {
	n := series.Len()
	pr := d.Range
	out := &PivotSeries{
		Range: pr,
		Kind:  make([]PivotKind, n),
		Price: make([]*float64, n),
		Body:  make([]*float64, n),
		HH:    newHeldLevel(n),
		LL:    newHeldLevel(n),
		LH:    newHeldLevel(n),
		HL:    newHeldLevel(n),
	}
	if pr < 1 {
		return out
	}

	highs, lows := series.Highs(), series.Lows()
	bodyHigh := make([]float64, n)
	bodyLow := make([]float64, n)
	for i, b := range series.Bars {
		bodyHigh[i] = max(b.Open, b.Close)
		bodyLow[i] = min(b.Open, b.Close)
	}
	maxHigh := rollingMax(highs, pr)
	minLow := rollingMin(lows, pr)
	bodyMax := rollingMax(bodyHigh, pr)
	bodyMin := rollingMin(bodyLow, pr)

	var prevHigh, prevLow Hold[float64]
	held := map[PivotKind]*struct {
		value Hold[float64]
		index Hold[int]
	}{HH: {}, LL: {}, LH: {}, HL: {}}

	for i := 0; i < n; i++ {
		isHigh, isLow := false, false
		if i >= 2*pr {
			x := i - pr
			isHigh = *maxHigh[x-1] <= highs[x] && *maxHigh[i] <= highs[x]
			isLow = *minLow[x-1] >= lows[x] && *minLow[i] >= lows[x]
		}

		var body *float64
		if j := i - pr/2; j >= 0 {
			if isHigh {
				body = bodyMax[j]
			}
			if isLow {
				body = bodyMin[j]
			}
		}

		kind := PivotNone
		if isHigh || isLow {
			price := highs[i-pr]
			if isLow {
				price = lows[i-pr]
			}
			out.Price[i] = ptr(price)
			out.Body[i] = body
			kind = classifyPivot(isHigh, isLow, price, prevHigh.Get(), prevLow.Get())
			if isHigh {
				prevHigh.Set(price)
			}
			if isLow {
				prevLow.Set(price)
			}
			if kind != PivotNone {
				h := held[kind]
				h.value.Set(price)
				h.index.Set(i)
				out.Pivots = append(out.Pivots, Pivot{
					Kind:          kind,
					Price:         price,
					BodyPrice:     body,
					BarIndex:      i,
					ExtremumIndex: i - pr,
				})
			}
		}
		out.Kind[i] = kind

		for _, k := range []PivotKind{HH, LL, LH, HL} {
			lvl := out.Held(k)
			lvl.Value[i] = held[k].value.Get()
			lvl.Index[i] = held[k].index.Get()
		}
	}
	return out
}

// classifyPivot compares the pivot with the previous pivot of the same side.
// When several labels apply, HL beats LH beats LL beats HH.
func classifyPivot(isHigh, isLow bool, price float64, prevHigh, prevLow *float64) PivotKind {
	kind := PivotNone
	if isHigh && prevHigh != nil && price > *prevHigh {
		kind = HH
	}
	if isLow && prevLow != nil && price < *prevLow {
		kind = LL
	}
	if isHigh && prevHigh != nil && price < *prevHigh {
		kind = LH
	}
	if isLow && prevLow != nil && price > *prevLow {
		kind = HL
	}
	return kind
}

func newHeldLevel(n int) HeldLevel {
	return HeldLevel{Value: make([]*float64, n), Index: make([]*int, n)}
}

// Columns returns the pivot feature columns.
func (s *PivotSeries) Columns() []domain.Column {
	n := s.Len()
	codes := make([]*int, n)
	for i, k := range s.Kind {
		if k != PivotNone {
			codes[i] = ptr(k.Code())
		}
	}
	cols := []domain.Column{
		domain.IntColumn("pivot", codes),
		domain.FloatColumn("pivotprice", s.Price),
		domain.FloatColumn("pivot_body", s.Body),
	}
	kinds := []PivotKind{HH, LL, LH, HL}
	for _, k := range kinds {
		cols = append(cols, domain.FloatColumn(k.String(), s.Held(k).Value))
	}
	for _, k := range kinds {
		cols = append(cols, domain.IntColumn(k.String()+"_idx", s.Held(k).Index))
	}
	for _, k := range kinds {
		cols = append(cols, domain.FloatColumn(k.String()+"_shift", shift(s.Held(k).Value, 1)))
	}
	for _, k := range kinds {
		cols = append(cols, domain.IntColumn(k.String()+"_idx_shift", shift(s.Held(k).Index, 1)))
	}
	return cols
}
