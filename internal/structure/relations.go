package structure

import (
	"market-structure-lab/internal/domain"
)

// RelationSeries flags equal highs and equal lows.
type RelationSeries struct {
	EQH      []bool
	EQHLevel []*float64 // held
	EQL      []bool
	EQLLevel []*float64 // held
}

// DetectRelations flags a bar as EQH when a new HH lands within
// eqATRMult*ATR of the previous HH, or when a new LH printed after the last
// HH lands within tolerance of it. EQL mirrors with LL and HL.
// Bars without ATR never qualify.
func DetectRelations(p *PivotSeries, atr []*float64, eqATRMult float64) *RelationSeries {
	n := p.Len()
	out := &RelationSeries{
		EQH:      make([]bool, n),
		EQHLevel: make([]*float64, n),
		EQL:      make([]bool, n),
		EQLLevel: make([]*float64, n),
	}
	var eqh, eql Hold[float64]
	for i := 0; i < n; i++ {
		var thr *float64
		if atr[i] != nil {
			thr = ptr(*atr[i] * eqATRMult)
		}
		if thr != nil {
			if equalLevel(&p.HH, &p.LH, i, *thr) {
				out.EQH[i] = true
				eqh.Set(*p.HH.Value[i])
			}
			if equalLevel(&p.LL, &p.HL, i, *thr) {
				out.EQL[i] = true
				eql.Set(*p.LL.Value[i])
			}
		}
		out.EQHLevel[i] = eqh.Get()
		out.EQLLevel[i] = eql.Get()
	}
	return out
}

// equalLevel evaluates both equality conditions for one side at bar i.
// base is the trend-side level (HH or LL), minor the counter level (LH or HL).
func equalLevel(base, minor *HeldLevel, i int, thr float64) bool {
	// New base pivot versus the previous one.
	if i > 0 && base.Index[i] != nil && base.Index[i-1] != nil &&
		*base.Index[i] != *base.Index[i-1] &&
		abs(*base.Value[i]-*base.Value[i-1]) <= thr {
		return true
	}
	// Fresh minor pivot after the base, near it.
	if minor.Index[i] != nil && base.Index[i] != nil &&
		*minor.Index[i] > *base.Index[i] &&
		changedAt(minor.Index, i) &&
		abs(*minor.Value[i]-*base.Value[i]) <= thr {
		return true
	}
	return false
}

// changedAt reports whether the held index differs from the previous bar.
// A first value counts as a change.
func changedAt(idx []*int, i int) bool {
	if idx[i] == nil {
		return false
	}
	if i == 0 || idx[i-1] == nil {
		return true
	}
	return *idx[i] != *idx[i-1]
}

// Columns returns the relation feature columns.
func (s *RelationSeries) Columns() []domain.Column {
	return []domain.Column{
		domain.BoolColumn("EQH", s.EQH),
		domain.FloatColumn("EQH_level", s.EQHLevel),
		domain.BoolColumn("EQL", s.EQL),
		domain.FloatColumn("EQL_level", s.EQLLevel),
	}
}
