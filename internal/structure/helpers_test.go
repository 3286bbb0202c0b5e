package structure

import (
	"market-structure-lab/internal/domain"
)

var tri = []float64{0, 1, 2, 3, 2, 1}

// zigzag builds n bars oscillating around a trend line with the given slope.
// low = high-2, close = high-1, open = high-1.5, ATR = atr.
func zigzag(n int, base, slope float64, atr float64) *domain.BarSeries {
	sign := 1.0
	if slope < 0 {
		sign = -1.0
	}
	highs := make([]float64, n)
	for i := range highs {
		highs[i] = base + slope*float64(i) + sign*tri[i%len(tri)]*2
	}
	return fromHighs(highs, atr)
}

func fromHighs(highs []float64, atr float64) *domain.BarSeries {
	s := &domain.BarSeries{Symbol: "TEST", Timeframe: "1m"}
	for i, h := range highs {
		s.Bars = append(s.Bars, domain.Bar{
			TimestampMs: int64(i) * 60_000,
			Open:        h - 1.5,
			High:        h,
			Low:         h - 2,
			Close:       h - 1,
			Volume:      1,
			ATR:         ptr(atr),
		})
	}
	return s
}

// flat builds n identical bars around price with the given ATR.
func flat(n int, price, atr float64) *domain.BarSeries {
	s := &domain.BarSeries{Symbol: "TEST", Timeframe: "1m"}
	for i := 0; i < n; i++ {
		s.Bars = append(s.Bars, domain.Bar{
			TimestampMs: int64(i) * 60_000,
			Open:        price,
			High:        price + 1,
			Low:         price - 1,
			Close:       price,
			ATR:         ptr(atr),
		})
	}
	return s
}

// pivotSeriesFrom builds held pivot levels from a list of pivots.
func pivotSeriesFrom(n int, pivots ...Pivot) *PivotSeries {
	out := &PivotSeries{
		Kind:  make([]PivotKind, n),
		Price: make([]*float64, n),
		Body:  make([]*float64, n),
		HH:    newHeldLevel(n),
		LL:    newHeldLevel(n),
		LH:    newHeldLevel(n),
		HL:    newHeldLevel(n),
	}
	at := make(map[int]Pivot, len(pivots))
	for _, p := range pivots {
		at[p.BarIndex] = p
	}
	held := map[PivotKind]*HeldLevel{HH: &out.HH, LL: &out.LL, LH: &out.LH, HL: &out.HL}
	for i := 0; i < n; i++ {
		if p, ok := at[i]; ok {
			out.Kind[i] = p.Kind
			out.Price[i] = ptr(p.Price)
			out.Pivots = append(out.Pivots, p)
		}
		for k, lvl := range held {
			if p, ok := at[i]; ok && p.Kind == k {
				lvl.Value[i] = ptr(p.Price)
				lvl.Index[i] = ptr(i)
			} else if i > 0 {
				lvl.Value[i] = lvl.Value[i-1]
				lvl.Index[i] = lvl.Index[i-1]
			}
		}
	}
	return out
}

// emptyPriceAction returns four streams with no events.
func emptyPriceAction(n int) *PriceActionSeries {
	pa := &PriceActionSeries{Streams: make(map[EventKey]*EventSeries)}
	for _, key := range EventKeys {
		pa.Streams[key] = &EventSeries{
			Key:        key,
			Fired:      make([]bool, n),
			Level:      make([]*float64, n),
			EventIndex: make([]*int, n),
		}
	}
	return pa
}

// fire records an event on the stream and holds it to the end.
func fire(pa *PriceActionSeries, key EventKey, at int, level float64) {
	es := pa.Streams[key]
	es.Fired[at] = true
	es.Events = append(es.Events, Event{Key: key, Level: level, BarIndex: at})
	for i := at; i < len(es.Fired); i++ {
		es.Level[i] = ptr(level)
		es.EventIndex[i] = ptr(at)
	}
}

// emptyFollowThrough returns follow-through with nothing evaluated.
func emptyFollowThrough(n, lookahead int) *FollowThroughSeries {
	ft := &FollowThroughSeries{Lookahead: lookahead, Streams: make(map[EventKey]*FollowThrough)}
	for _, key := range EventKeys {
		ft.Streams[key] = &FollowThrough{
			Key:             key,
			DisplacementATR: make([]*float64, n),
			Valid:           make([]bool, n),
			Weak:            make([]bool, n),
		}
	}
	return ft
}

var (
	bosBull = EventKey{Kind: BOS, Direction: Bull}
	bosBear = EventKey{Kind: BOS, Direction: Bear}
	mssBull = EventKey{Kind: MSS, Direction: Bull}
	mssBear = EventKey{Kind: MSS, Direction: Bear}
)
