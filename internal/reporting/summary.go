package reporting

import (
	"strconv"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/structure"
)

var (
	pivotKinds   = []structure.PivotKind{structure.HH, structure.LL, structure.LH, structure.HL}
	regimeLabels = []structure.Regime{structure.RegimeRange, structure.RegimeTrendUp, structure.RegimeTrendDown, structure.RegimeTransition}
)

// Summarize counts pivots, events and regimes in a feature table. Feature
// groups absent from the table are left empty.
func Summarize(t *domain.FeatureTable) *Summary {
	s := &Summary{
		Symbol:    t.Symbol,
		Timeframe: t.Timeframe,
		Bars:      t.Len(),
		Columns:   len(t.Columns),
	}
	if n := t.Len(); n > 0 {
		s.StartMs = t.Bars[0].TimestampMs
		s.EndMs = t.Bars[n-1].TimestampMs
	}

	if col, ok := t.Column("pivot"); ok {
		counts := make(map[string]int)
		for i := 0; i < col.Len(); i++ {
			if !col.IsNull(i) {
				counts[col.Format(i)]++
			}
		}
		for _, k := range pivotKinds {
			s.Pivots = append(s.Pivots, CountRow{Label: k.String(), Count: counts[strconv.Itoa(k.Code())]})
		}
	}

	for _, key := range structure.EventKeys {
		p := key.Prefix()
		col, ok := t.Column(p + "_event")
		if !ok {
			continue
		}
		s.Events = append(s.Events, EventRow{
			Stream:         p,
			Events:         countTrue(col),
			FollowValid:    countColumn(t, p+"_ft_valid"),
			LiquidityGrabs: countColumn(t, "liq_grab_"+p) + countColumn(t, "liq_grab_"+p+"_exp"),
			SRFlips:        countColumn(t, "sr_flip_"+p) + countColumn(t, "sr_flip_"+p+"_exp"),
		})
	}

	if col, ok := t.Column("trend_regime"); ok {
		counts := make(map[string]int)
		for _, l := range col.Labels {
			counts[l]++
		}
		for _, r := range regimeLabels {
			row := ShareRow{Label: r.String(), Count: counts[r.String()]}
			if s.Bars > 0 {
				row.Share = float64(row.Count) / float64(s.Bars)
			}
			s.Regimes = append(s.Regimes, row)
		}
	}
	return s
}

func countColumn(t *domain.FeatureTable, name string) int {
	col, ok := t.Column(name)
	if !ok {
		return 0
	}
	return countTrue(col)
}

func countTrue(col domain.Column) int {
	n := 0
	for _, v := range col.Bools {
		if v {
			n++
		}
	}
	return n
}
