package structure

import (
	"market-structure-lab/internal/domain"
)

// PAContextSeries merges the four event streams into one held context.
// BOS always wins; an MSS counts only once a BOS has fired, and then only
// outside the guard window of the latest BOS.
type PAContextSeries struct {
	Kind                []*EventKind
	Direction           []*Direction
	EventIndex          []*int
	Level               []*float64
	BarsSince           []*int
	DistanceATR         []*float64
	CounterAllowed      []bool
	ContinuationAllowed []bool
}

// BuildPAContext folds the event streams into the unified context.
func BuildPAContext(series *domain.BarSeries, pa *PriceActionSeries, cfg PAContextConfig) *PAContextSeries {
	n := series.Len()
	out := &PAContextSeries{
		Kind:                make([]*EventKind, n),
		Direction:           make([]*Direction, n),
		EventIndex:          make([]*int, n),
		Level:               make([]*float64, n),
		BarsSince:           make([]*int, n),
		DistanceATR:         make([]*float64, n),
		CounterAllowed:      make([]bool, n),
		ContinuationAllowed: make([]bool, n),
	}

	var lastBOS, current Hold[Event]
	for i, b := range series.Bars {
		if ev, ok := pickEvent(pa, i, BOS); ok {
			lastBOS.Set(ev)
			current.Set(ev)
		} else if ev, ok := pickEvent(pa, i, MSS); ok {
			if bos := lastBOS.Get(); bos != nil && i-bos.BarIndex > cfg.BOSGuardBars {
				current.Set(ev)
			}
		}

		ev := current.Get()
		if ev == nil {
			continue
		}
		out.Kind[i] = ptr(ev.Key.Kind)
		out.Direction[i] = ptr(ev.Key.Direction)
		out.EventIndex[i] = ptr(ev.BarIndex)
		out.Level[i] = ptr(ev.Level)
		since := i - ev.BarIndex
		out.BarsSince[i] = ptr(since)
		dist := ratio(abs(b.Close-ev.Level), b.ATR)
		out.DistanceATR[i] = dist
		if dist == nil {
			continue
		}
		out.CounterAllowed[i] = since <= cfg.CounterMaxBars && *dist <= cfg.CounterATRMult
		out.ContinuationAllowed[i] = since >= cfg.ContMinBars && *dist >= cfg.ContMinATR && *dist <= cfg.ContMaxATR
	}
	return out
}

// pickEvent returns the event of the given kind fired at bar i.
// Bear wins when both directions fire.
func pickEvent(pa *PriceActionSeries, i int, kind EventKind) (Event, bool) {
	var ev Event
	found := false
	for _, dir := range []Direction{Bull, Bear} {
		es := pa.Stream(EventKey{Kind: kind, Direction: dir})
		if es.Fired[i] {
			ev = Event{Key: es.Key, Level: *es.Level[i], BarIndex: i}
			found = true
		}
	}
	return ev, found
}

// Columns returns the context columns.
func (s *PAContextSeries) Columns() []domain.Column {
	n := len(s.Kind)
	kinds := make([]string, n)
	dirs := make([]string, n)
	for i := 0; i < n; i++ {
		if s.Kind[i] != nil {
			kinds[i] = s.Kind[i].String()
			dirs[i] = s.Direction[i].String()
		}
	}
	return []domain.Column{
		domain.LabelColumn("pa_event_type", kinds),
		domain.LabelColumn("pa_event_dir", dirs),
		domain.IntColumn("pa_event_idx", s.EventIndex),
		domain.FloatColumn("pa_level", s.Level),
		domain.IntColumn("bars_since_pa", s.BarsSince),
		domain.FloatColumn("pa_dist_atr", s.DistanceATR),
		domain.BoolColumn("pa_counter_allowed", s.CounterAllowed),
		domain.BoolColumn("pa_continuation_allowed", s.ContinuationAllowed),
	}
}
