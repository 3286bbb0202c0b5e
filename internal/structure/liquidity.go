package structure

import (
	"market-structure-lab/internal/domain"
)

// LiquidityStream is the liquidity response of one event stream.
type LiquidityStream struct {
	Key            EventKey
	BarsSinceEvent []*int
	MaxDistanceATR []*float64 // legacy only
	Reaction       []ReactionType
	LiquidityGrab  []bool
	SRFlip         []bool
}

// LiquiditySeries holds the liquidity response for every stream.
type LiquiditySeries struct {
	Mode    LiquidityMode
	Streams map[EventKey]*LiquidityStream
}

// Stream returns the liquidity response for key.
func (s *LiquiditySeries) Stream(key EventKey) *LiquidityStream {
	return s.Streams[key]
}

// EvaluateLiquidity classifies reactions around every event level.
// Legacy mode needs follow-through; a nil ft leaves its flags false.
func EvaluateLiquidity(series *domain.BarSeries, pa *PriceActionSeries, ft *FollowThroughSeries, cfg LiquidityConfig) *LiquiditySeries {
	out := &LiquiditySeries{Mode: cfg.Mode, Streams: make(map[EventKey]*LiquidityStream, len(EventKeys))}
	for _, key := range EventKeys {
		es := pa.Stream(key)
		if cfg.Mode == LiquidityExperimental {
			out.Streams[key] = liquidityExperimental(series, es, cfg)
			continue
		}
		var f *FollowThrough
		if ft != nil {
			f = ft.Stream(key)
		}
		out.Streams[key] = liquidityLegacy(series, es, f, cfg)
	}
	return out
}

func liquidityLegacy(series *domain.BarSeries, es *EventSeries, ft *FollowThrough, cfg LiquidityConfig) *LiquidityStream {
	n := series.Len()
	ls := &LiquidityStream{
		Key:            es.Key,
		BarsSinceEvent: barsSince(es.EventIndex),
		MaxDistanceATR: make([]*float64, n),
		Reaction:       DetectLevelReaction(series, es.Level, es.Key.Direction, cfg.ReactionWindow, cfg.Reaction),
		LiquidityGrab:  make([]bool, n),
		SRFlip:         make([]bool, n),
	}

	var group *int
	var maxDist Hold[float64]
	flipped := false
	for i, b := range series.Bars {
		if idx := es.EventIndex[i]; idx == nil || group == nil || *idx != *group {
			group = idx
			maxDist.Reset()
		}
		if group != nil && es.Level[i] != nil {
			if d := ratio(abs(b.Close-*es.Level[i]), b.ATR); d != nil {
				if cur := maxDist.Get(); cur == nil || *d > *cur {
					maxDist.Set(*d)
				}
				ls.MaxDistanceATR[i] = maxDist.Get()
			}
		}

		since, dist := ls.BarsSinceEvent[i], ls.MaxDistanceATR[i]
		if ft == nil || since == nil || dist == nil {
			ls.SRFlip[i] = flipped
			continue
		}
		r := ls.Reaction[i]
		ls.LiquidityGrab[i] = ft.Weak[i] &&
			*since <= cfg.EarlyWindow &&
			*dist <= cfg.ATRDistMultGrab &&
			(r == Reclaim || r == WeakReject)
		if ft.Valid[i] &&
			*since >= cfg.LateWindow &&
			*dist >= cfg.ATRDistMultFlip &&
			(r == Reclaim || r == StrongCandle) {
			flipped = true
		}
		ls.SRFlip[i] = flipped
	}
	return ls
}

func liquidityExperimental(series *domain.BarSeries, es *EventSeries, cfg LiquidityConfig) *LiquidityStream {
	n := series.Len()
	w := cfg.ReactionWindow
	ls := &LiquidityStream{
		Key:            es.Key,
		BarsSinceEvent: barsSince(es.EventIndex),
		Reaction:       DetectLevelReaction(series, es.Level, es.Key.Direction, w, cfg.Reaction),
		LiquidityGrab:  make([]bool, n),
		SRFlip:         make([]bool, n),
	}
	highs := rollingMax(series.Highs(), w)
	lows := rollingMin(series.Lows(), w)
	means := rollingMean(series.Closes(), w)

	for i, b := range series.Bars {
		lvl, since := es.Level[i], ls.BarsSinceEvent[i]
		if lvl == nil || since == nil || means[i] == nil || b.ATR == nil {
			continue
		}
		broke := *lows[i] < *lvl
		if es.Key.Direction == Bear {
			broke = *highs[i] > *lvl
		}
		dist := abs(*means[i] - *lvl)
		reacted := ls.Reaction[i] != ReactionNone
		ls.LiquidityGrab[i] = broke && reacted && *since <= cfg.EarlyWindow && dist < *b.ATR*cfg.ATRDistMultGrab
		ls.SRFlip[i] = reacted && *since > cfg.LateWindow && dist > *b.ATR*cfg.ATRDistMultFlip
	}
	return ls
}

// Columns returns the liquidity columns in stream order. Experimental
// flags carry an _exp suffix.
func (s *LiquiditySeries) Columns() []domain.Column {
	var cols []domain.Column
	for _, key := range EventKeys {
		ls := s.Streams[key]
		p := key.Prefix()
		if s.Mode == LiquidityExperimental {
			cols = append(cols,
				domain.BoolColumn("liq_grab_"+p+"_exp", ls.LiquidityGrab),
				domain.BoolColumn("sr_flip_"+p+"_exp", ls.SRFlip),
			)
			continue
		}
		types := make([]string, len(ls.Reaction))
		strength := make([]*int, len(ls.Reaction))
		for i, r := range ls.Reaction {
			types[i] = r.String()
			strength[i] = ptr(r.Strength())
		}
		cols = append(cols,
			domain.BoolColumn("liq_grab_"+p, ls.LiquidityGrab),
			domain.BoolColumn("sr_flip_"+p, ls.SRFlip),
			domain.IntColumn(p+"_bars_since_event", ls.BarsSinceEvent),
			domain.FloatColumn(p+"_max_dist_atr", ls.MaxDistanceATR),
			domain.LabelColumn(p+"_reaction_type", types),
			domain.IntColumn(p+"_reaction_strength", strength),
		)
	}
	return cols
}
