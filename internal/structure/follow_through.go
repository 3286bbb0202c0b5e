package structure

import (
	"market-structure-lab/internal/domain"
)

// FollowThrough is the scored outcome of one event stream. Values appear
// only at bars exactly Lookahead bars after an event; Evaluated marks them.
type FollowThrough struct {
	Key             EventKey
	DisplacementATR []*float64
	Valid           []bool
	Weak            []bool
	Evaluated       []bool
}

// FollowThroughSeries holds follow-through for every stream.
type FollowThroughSeries struct {
	Lookahead int
	Streams   map[EventKey]*FollowThrough
}

// Stream returns the follow-through for key.
func (s *FollowThroughSeries) Stream(key EventKey) *FollowThrough {
	return s.Streams[key]
}

// EvaluateFollowThrough scores each event at bar e from the bars (e, e+L]
// and writes the result at bar e+L. Displacement is the excursion past the
// event level in units of ATR at bar e. An event without ATR is weak.
func EvaluateFollowThrough(series *domain.BarSeries, pa *PriceActionSeries, cfg FollowThroughConfig) *FollowThroughSeries {
	n := series.Len()
	L := cfg.Lookahead
	highN := rollingMax(series.Highs(), L)
	lowN := rollingMin(series.Lows(), L)
	atr := series.ATRs()

	out := &FollowThroughSeries{Lookahead: L, Streams: make(map[EventKey]*FollowThrough, len(EventKeys))}
	for _, key := range EventKeys {
		es := pa.Stream(key)
		ft := &FollowThrough{
			Key:             key,
			DisplacementATR: make([]*float64, n),
			Valid:           make([]bool, n),
			Weak:            make([]bool, n),
			Evaluated:       make([]bool, n),
		}
		for i := L; L > 0 && i < n; i++ {
			e := i - L
			if !es.Fired[e] {
				continue
			}
			var disp *float64
			if key.Direction == Bull {
				disp = ratio(*highN[i]-*es.Level[e], atr[e])
			} else {
				disp = ratio(*es.Level[e]-*lowN[i], atr[e])
			}
			ft.Evaluated[i] = true
			ft.DisplacementATR[i] = disp
			ft.Valid[i] = disp != nil && *disp >= cfg.ATRMult
			ft.Weak[i] = !ft.Valid[i]
		}
		out.Streams[key] = ft
	}
	return out
}

// Columns returns the follow-through columns in stream order.
func (s *FollowThroughSeries) Columns() []domain.Column {
	var cols []domain.Column
	for _, key := range EventKeys {
		ft := s.Streams[key]
		p := key.Prefix()
		cols = append(cols,
			domain.FloatColumn(p+"_ft_atr", ft.DisplacementATR),
			domain.NullableBoolColumn(p+"_ft_valid", ft.Valid, ft.Evaluated),
			domain.NullableBoolColumn(p+"_ft_weak", ft.Weak, ft.Evaluated),
		)
	}
	return cols
}
