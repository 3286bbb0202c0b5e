// Package verification checks the engine's structural guarantees on real
// input: repeated runs are byte-identical, truncating the input never
// changes earlier rows, held indices never move backwards and categorical
// columns carry exactly one known label per bar.
package verification

import (
	"fmt"
	"sort"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/orchestrator"
)

// MaxDivergences caps the divergences kept per check.
const MaxDivergences = 20

// Check names.
const (
	CheckNameDeterminism  = "determinism"
	CheckNameCausality    = "causality"
	CheckNameMonotonicity = "monotonicity"
	CheckNameExclusivity  = "exclusivity"
)

// Applier runs the engine. *orchestrator.Orchestrator implements it.
type Applier interface {
	Apply(series *domain.BarSeries, req orchestrator.Request) (*orchestrator.Result, error)
}

// Divergence is a single mismatching cell.
type Divergence struct {
	Column   string // column name
	Bar      int    // row index
	Expected string // reference value, "" for NULL
	Actual   string // observed value, "" for NULL
	Note     string // optional context, e.g. the truncation point
}

func (d Divergence) String() string {
	s := fmt.Sprintf("%s[%d]: expected %q, got %q", d.Column, d.Bar, d.Expected, d.Actual)
	if d.Note != "" {
		s += " (" + d.Note + ")"
	}
	return s
}

// CheckResult is the outcome of one check.
type CheckResult struct {
	Name        string
	Passed      bool
	Checked     int // cells or columns examined
	Divergences []Divergence
	Truncated   bool // more divergences than MaxDivergences
}

func (r *CheckResult) add(d Divergence) {
	r.Passed = false
	if len(r.Divergences) >= MaxDivergences {
		r.Truncated = true
		return
	}
	r.Divergences = append(r.Divergences, d)
}

// Report contains the results for one series.
type Report struct {
	Symbol    string
	Timeframe string
	Bars      int
	Results   []CheckResult
}

// Passed reports whether every check passed.
func (r *Report) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// Verify runs every check on one series.
func Verify(a Applier, series *domain.BarSeries, req orchestrator.Request, cuts []int) (*Report, error) {
	report := &Report{Symbol: series.Symbol, Timeframe: series.Timeframe, Bars: series.Len()}

	det, err := CheckDeterminism(a, series, req)
	if err != nil {
		return nil, err
	}
	report.Results = append(report.Results, det)

	if cuts == nil {
		cuts = DefaultCuts(series.Len())
	}
	causal, err := CheckCausality(a, series, req, cuts)
	if err != nil {
		return nil, err
	}
	report.Results = append(report.Results, causal)

	res, err := a.Apply(series, req)
	if err != nil {
		return nil, err
	}
	report.Results = append(report.Results, CheckMonotonicity(res.Table), CheckExclusivity(res.Table))
	return report, nil
}

// CompareTables reports cells that differ in the first upTo rows. Columns
// present in only one table are reported once with Bar -1.
func CompareTables(expected, actual *domain.FeatureTable, upTo int) []Divergence {
	var out []Divergence
	seen := make(map[string]bool, len(expected.Columns))
	for _, exp := range expected.Columns {
		seen[exp.Name] = true
		act, ok := actual.Column(exp.Name)
		if !ok {
			out = append(out, Divergence{Column: exp.Name, Bar: -1, Note: "column missing"})
			continue
		}
		n := min(upTo, exp.Len(), act.Len())
		for i := 0; i < n; i++ {
			if e, a := exp.Format(i), act.Format(i); e != a {
				out = append(out, Divergence{Column: exp.Name, Bar: i, Expected: e, Actual: a})
			}
		}
	}
	for _, act := range actual.Columns {
		if !seen[act.Name] {
			out = append(out, Divergence{Column: act.Name, Bar: -1, Note: "unexpected column"})
		}
	}
	return out
}

// DefaultCuts picks truncation points at quarters of the series.
func DefaultCuts(n int) []int {
	set := make(map[int]bool)
	for _, c := range []int{n / 4, n / 2, 3 * n / 4, n - 1} {
		if c > 0 && c < n {
			set[c] = true
		}
	}
	cuts := make([]int, 0, len(set))
	for c := range set {
		cuts = append(cuts, c)
	}
	sort.Ints(cuts)
	return cuts
}
