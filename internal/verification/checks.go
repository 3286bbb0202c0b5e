package verification

import (
	"fmt"
	"strconv"
	"strings"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/idhash"
	"market-structure-lab/internal/orchestrator"
)

// CheckDeterminism applies the engine twice and compares every cell and
// the table digests.
func CheckDeterminism(a Applier, series *domain.BarSeries, req orchestrator.Request) (CheckResult, error) {
	res := CheckResult{Name: CheckNameDeterminism, Passed: true}

	first, err := a.Apply(series, req)
	if err != nil {
		return res, fmt.Errorf("determinism run 1: %w", err)
	}
	second, err := a.Apply(series, req)
	if err != nil {
		return res, fmt.Errorf("determinism run 2: %w", err)
	}

	for _, d := range CompareTables(first.Table, second.Table, first.Table.Len()) {
		res.add(d)
	}
	res.Checked = first.Table.Len() * len(first.Table.Columns)
	if d1, d2 := idhash.TableDigest(first.Table), idhash.TableDigest(second.Table); d1 != d2 {
		res.add(Divergence{Column: "*", Bar: -1, Expected: d1, Actual: d2, Note: "table digest"})
	}
	return res, nil
}

// CheckCausality applies the engine to the full series and to every prefix
// series[:cut]; rows below cut must be identical.
func CheckCausality(a Applier, series *domain.BarSeries, req orchestrator.Request, cuts []int) (CheckResult, error) {
	res := CheckResult{Name: CheckNameCausality, Passed: true}

	full, err := a.Apply(series, req)
	if err != nil {
		return res, fmt.Errorf("causality full run: %w", err)
	}
	for _, cut := range cuts {
		if cut <= 0 || cut > series.Len() {
			continue
		}
		part, err := a.Apply(series.Truncate(cut), req)
		if err != nil {
			return res, fmt.Errorf("causality cut %d: %w", cut, err)
		}
		for _, d := range CompareTables(full.Table, part.Table, cut) {
			d.Note = "cut " + strconv.Itoa(cut)
			res.add(d)
		}
		res.Checked += cut * len(part.Table.Columns)
	}
	return res, nil
}

// CheckMonotonicity verifies that every held index column (*_idx) never
// decreases and never returns to NULL once defined.
func CheckMonotonicity(t *domain.FeatureTable) CheckResult {
	res := CheckResult{Name: CheckNameMonotonicity, Passed: true}
	for _, col := range t.Columns {
		if col.Kind != domain.KindInt || !strings.HasSuffix(col.Name, "_idx") {
			continue
		}
		res.Checked++
		var last *int
		for i, v := range col.Ints {
			switch {
			case v == nil && last != nil:
				res.add(Divergence{Column: col.Name, Bar: i, Expected: strconv.Itoa(*last), Note: "held index reset"})
			case v != nil && last != nil && *v < *last:
				res.add(Divergence{Column: col.Name, Bar: i, Expected: ">=" + strconv.Itoa(*last), Actual: strconv.Itoa(*v)})
			}
			if v != nil {
				last = v
			}
		}
	}
	return res
}

// Label vocabularies of the categorical columns. "" is undefined.
var (
	regimeLabels   = []string{"range", "trend_up", "trend_down", "transition"}
	reactionLabels = []string{"", "reclaim", "displacement", "strong_candle", "weak_reject"}
	volLabels      = []string{"", "low", "normal", "high"}
	eventTypes     = []string{"", "bos", "mss"}
	eventDirs      = []string{"", "bull", "bear"}
	pivotCodes     = []string{"", "3", "4", "5", "6"}
)

// vocabulary returns the allowed values of a column, nil if unchecked.
func vocabulary(name string) []string {
	switch {
	case name == "trend_regime":
		return regimeLabels
	case name == "pa_event_type":
		return eventTypes
	case name == "pa_event_dir":
		return eventDirs
	case name == "pivot":
		return pivotCodes
	case strings.HasSuffix(name, "_reaction_type"):
		return reactionLabels
	case strings.HasSuffix(name, "_struct_vol"):
		return volLabels
	default:
		return nil
	}
}

// CheckExclusivity verifies that every categorical column carries exactly
// one known label per bar, that trend_bias stays in [-3, 3] and that the
// pa_context type and direction are defined together.
func CheckExclusivity(t *domain.FeatureTable) CheckResult {
	res := CheckResult{Name: CheckNameExclusivity, Passed: true}
	for _, col := range t.Columns {
		allowed := vocabulary(col.Name)
		if allowed == nil {
			continue
		}
		res.Checked++
		for i := 0; i < col.Len(); i++ {
			v := col.Format(i)
			if !contains(allowed, v) {
				res.add(Divergence{Column: col.Name, Bar: i, Expected: strings.Join(allowed, "|"), Actual: v})
			}
		}
	}

	if bias, ok := t.Column("trend_bias"); ok {
		res.Checked++
		for i, v := range bias.Ints {
			if v == nil || *v < -3 || *v > 3 {
				res.add(Divergence{Column: bias.Name, Bar: i, Expected: "[-3,3]", Actual: bias.Format(i)})
			}
		}
	}

	kind, okKind := t.Column("pa_event_type")
	dir, okDir := t.Column("pa_event_dir")
	if okKind && okDir {
		for i := 0; i < kind.Len(); i++ {
			if kind.IsNull(i) != dir.IsNull(i) {
				res.add(Divergence{Column: "pa_event_dir", Bar: i, Expected: kind.Format(i), Actual: dir.Format(i), Note: "type/direction mismatch"})
			}
		}
	}
	return res
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
