package structure

import (
	"strconv"
	"strings"

	"market-structure-lab/internal/domain"
)

// FiboSwingLevel is one ratio of the swing projection. Bull is defined while
// the latest swing is up (high more recent than low), Bear otherwise.
type FiboSwingLevel struct {
	Ratio float64
	Bull  []*float64
	Bear  []*float64
}

// FiboRangeLevel is one ratio of the HH-to-base-LL range projection.
// Ext is only populated for ratios above 1.
type FiboRangeLevel struct {
	Ratio float64
	Level []*float64
	Ext   []*float64
}

// FiboSeries holds swing and range projections plus premium/discount state.
type FiboSeries struct {
	SwingHigh []*float64
	SwingLow  []*float64
	Swing     []FiboSwingLevel
	Range     []FiboRangeLevel
	Mid       []*float64
	Premium   []bool // undefined where Mid is nil
	Discount  []bool // undefined where Mid is nil
}

// ProjectFibo computes fibonacci levels from the held pivot levels.
func ProjectFibo(p *PivotSeries, closes []float64, ratios []float64) *FiboSeries {
	n := p.Len()
	out := &FiboSeries{
		SwingHigh: make([]*float64, n),
		SwingLow:  make([]*float64, n),
		Mid:       make([]*float64, n),
		Premium:   make([]bool, n),
		Discount:  make([]bool, n),
	}
	for _, r := range ratios {
		out.Swing = append(out.Swing, FiboSwingLevel{Ratio: r, Bull: make([]*float64, n), Bear: make([]*float64, n)})
		lvl := FiboRangeLevel{Ratio: r, Level: make([]*float64, n)}
		if r > 1 {
			lvl.Ext = make([]*float64, n)
		}
		out.Range = append(out.Range, lvl)
	}

	var baseLow Hold[float64]
	for i := 0; i < n; i++ {
		high, highIdx := latest(&p.HH, &p.LH, i)
		low, lowIdx := latest(&p.LL, &p.HL, i)
		out.SwingHigh[i] = high
		out.SwingLow[i] = low

		if high != nil && low != nil {
			rise := *high - *low
			up := *highIdx > *lowIdx
			for _, lvl := range out.Swing {
				if up {
					lvl.Bull[i] = ptr(*high - rise*lvl.Ratio)
				} else {
					lvl.Bear[i] = ptr(*low + rise*lvl.Ratio)
				}
			}
			mid := (*high + *low) / 2
			out.Mid[i] = ptr(mid)
			out.Premium[i] = closes[i] > mid
			out.Discount[i] = closes[i] < mid
		}

		hh, hhIdx := p.HH.Value[i], p.HH.Index[i]
		if p.LL.Index[i] != nil && hhIdx != nil && *p.LL.Index[i] < *hhIdx {
			baseLow.Set(*p.LL.Value[i])
		}
		if hh == nil || baseLow.Get() == nil {
			continue
		}
		rise := *hh - *baseLow.Get()
		for _, lvl := range out.Range {
			lvl.Level[i] = ptr(*hh - rise*lvl.Ratio)
			if lvl.Ext != nil {
				lvl.Ext[i] = ptr(*hh + rise*(lvl.Ratio-1))
			}
		}
	}
	return out
}

// latest returns the more recent of two held levels at bar i.
func latest(a, b *HeldLevel, i int) (*float64, *int) {
	ai, bi := a.Index[i], b.Index[i]
	switch {
	case ai == nil && bi == nil:
		return nil, nil
	case bi == nil || (ai != nil && *ai > *bi):
		return a.Value[i], ai
	default:
		return b.Value[i], bi
	}
}

// RatioKey renders a ratio for column names: 0.618 becomes "0618".
func RatioKey(r float64) string {
	return strings.ReplaceAll(strconv.FormatFloat(r, 'f', -1, 64), ".", "")
}

// Columns returns the fibonacci feature columns.
func (s *FiboSeries) Columns() []domain.Column {
	var cols []domain.Column
	for _, lvl := range s.Swing {
		key := RatioKey(lvl.Ratio)
		cols = append(cols,
			domain.FloatColumn("fibo_swing_"+key, lvl.Bull),
			domain.FloatColumn("fibo_swing_"+key+"_bear", lvl.Bear),
		)
	}
	for _, lvl := range s.Range {
		key := RatioKey(lvl.Ratio)
		cols = append(cols, domain.FloatColumn("fibo_range_"+key, lvl.Level))
		if lvl.Ext != nil {
			cols = append(cols, domain.FloatColumn("fibo_range_ext_"+key, lvl.Ext))
		}
	}
	defined := make([]bool, len(s.Mid))
	for i, m := range s.Mid {
		defined[i] = m != nil
	}
	return append(cols,
		domain.FloatColumn("fibo_mid", s.Mid),
		domain.NullableBoolColumn("fibo_premium", s.Premium, defined),
		domain.NullableBoolColumn("fibo_discount", s.Discount, defined),
	)
}
