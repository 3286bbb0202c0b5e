package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/orchestrator"
)

func walk(n int, seed uint64) *domain.BarSeries {
	state := seed
	next := func() float64 {
		state = state*6364136223846793005 + 1442695040888963407
		return float64(state>>11) / float64(1<<53)
	}
	s := &domain.BarSeries{Symbol: "EURUSD", Timeframe: "M15"}
	price := 1.1
	for i := 0; i < n; i++ {
		open := price
		closePrice := open + (next()-0.5)*0.004
		s.Bars = append(s.Bars, domain.Bar{
			TimestampMs: int64(i) * 900_000,
			Open:        open,
			High:        max(open, closePrice) + next()*0.0015,
			Low:         min(open, closePrice) - next()*0.0015,
			Close:       closePrice,
		})
		price = closePrice
	}
	return s
}

func engine(t *testing.T) *orchestrator.Orchestrator {
	t.Helper()
	o, err := orchestrator.New(orchestrator.Options{})
	require.NoError(t, err)
	return o
}

func allFeatures() orchestrator.Request {
	return orchestrator.Request{Features: orchestrator.CanonicalOrder, PivotRange: 4}
}

func TestVerify_EnginePassesAllChecks(t *testing.T) {
	report, err := Verify(engine(t), walk(240, 11), allFeatures(), nil)
	require.NoError(t, err)

	require.Len(t, report.Results, 4)
	for _, r := range report.Results {
		assert.True(t, r.Passed, "%s: %v", r.Name, r.Divergences)
		assert.Positive(t, r.Checked, r.Name)
	}
	assert.True(t, report.Passed())
	assert.Equal(t, "EURUSD", report.Symbol)
	assert.Equal(t, 240, report.Bars)
}

// peekingApplier leaks the last close into every row, so truncation
// changes earlier rows.
type peekingApplier struct{}

func (peekingApplier) Apply(series *domain.BarSeries, _ orchestrator.Request) (*orchestrator.Result, error) {
	t := domain.NewFeatureTable(series)
	last := series.Bars[series.Len()-1].Close
	vals := make([]*float64, series.Len())
	for i := range vals {
		v := last
		vals[i] = &v
	}
	if err := t.Add(domain.FloatColumn("future_close", vals)); err != nil {
		return nil, err
	}
	return &orchestrator.Result{Table: t}, nil
}

func TestCheckCausality_DetectsLookahead(t *testing.T) {
	res, err := CheckCausality(peekingApplier{}, walk(100, 3), allFeatures(), []int{50})
	require.NoError(t, err)

	assert.False(t, res.Passed)
	require.NotEmpty(t, res.Divergences)
	assert.Equal(t, "future_close", res.Divergences[0].Column)
	assert.Equal(t, "cut 50", res.Divergences[0].Note)
	assert.Len(t, res.Divergences, MaxDivergences)
	assert.True(t, res.Truncated)
}

// countingApplier returns a different value on every call.
type countingApplier struct{ calls int }

func (c *countingApplier) Apply(series *domain.BarSeries, _ orchestrator.Request) (*orchestrator.Result, error) {
	c.calls++
	t := domain.NewFeatureTable(series)
	vals := make([]*int, series.Len())
	n := c.calls
	vals[0] = &n
	if err := t.Add(domain.IntColumn("calls", vals)); err != nil {
		return nil, err
	}
	return &orchestrator.Result{Table: t}, nil
}

func TestCheckDeterminism_DetectsDrift(t *testing.T) {
	res, err := CheckDeterminism(&countingApplier{}, walk(10, 1), allFeatures())
	require.NoError(t, err)

	assert.False(t, res.Passed)
	require.Len(t, res.Divergences, 2)
	assert.Equal(t, Divergence{Column: "calls", Bar: 0, Expected: "1", Actual: "2"}, res.Divergences[0])
	assert.Equal(t, "table digest", res.Divergences[1].Note)
}

func intPtr(v int) *int { return &v }

func TestCheckMonotonicity(t *testing.T) {
	series := walk(5, 1)
	table := domain.NewFeatureTable(series)
	require.NoError(t, table.Add(domain.IntColumn("HH_idx", []*int{nil, intPtr(1), intPtr(1), intPtr(3), intPtr(3)})))
	require.NoError(t, table.Add(domain.IntColumn("LL_idx", []*int{intPtr(0), intPtr(2), intPtr(1), nil, intPtr(4)})))
	require.NoError(t, table.Add(domain.IntColumn("bars_since_pa", []*int{intPtr(5), intPtr(0), nil, nil, nil})))

	res := CheckMonotonicity(table)

	assert.False(t, res.Passed)
	assert.Equal(t, 2, res.Checked)
	require.Len(t, res.Divergences, 2)
	assert.Equal(t, "LL_idx", res.Divergences[0].Column)
	assert.Equal(t, 2, res.Divergences[0].Bar)
	assert.Equal(t, 3, res.Divergences[1].Bar)
	assert.Equal(t, "held index reset", res.Divergences[1].Note)
}

func TestCheckExclusivity(t *testing.T) {
	table := domain.NewFeatureTable(walk(3, 1))
	require.NoError(t, table.Add(domain.LabelColumn("trend_regime", []string{"range", "", "sideways"})))
	require.NoError(t, table.Add(domain.IntColumn("trend_bias", []*int{intPtr(0), intPtr(4), intPtr(-3)})))
	require.NoError(t, table.Add(domain.LabelColumn("bos_bull_struct_vol", []string{"", "low", "high"})))
	require.NoError(t, table.Add(domain.LabelColumn("pa_event_type", []string{"", "bos", "mss"})))
	require.NoError(t, table.Add(domain.LabelColumn("pa_event_dir", []string{"", "bull", ""})))

	res := CheckExclusivity(table)

	assert.False(t, res.Passed)
	var got []string
	for _, d := range res.Divergences {
		got = append(got, d.String())
	}
	assert.Equal(t, []string{
		`trend_regime[1]: expected "range|trend_up|trend_down|transition", got ""`,
		`trend_regime[2]: expected "range|trend_up|trend_down|transition", got "sideways"`,
		`trend_bias[1]: expected "[-3,3]", got "4"`,
		`pa_event_dir[2]: expected "mss", got "" (type/direction mismatch)`,
	}, got)
}

func TestCompareTables_ColumnSetMismatch(t *testing.T) {
	s := walk(2, 1)
	a := domain.NewFeatureTable(s)
	b := domain.NewFeatureTable(s)
	require.NoError(t, a.Add(domain.BoolColumn("EQH", []bool{true, false})))
	require.NoError(t, b.Add(domain.BoolColumn("EQL", []bool{true, false})))

	divs := CompareTables(a, b, 2)

	require.Len(t, divs, 2)
	assert.Equal(t, "column missing", divs[0].Note)
	assert.Equal(t, "unexpected column", divs[1].Note)
}

func TestDefaultCuts(t *testing.T) {
	assert.Equal(t, []int{25, 50, 75, 99}, DefaultCuts(100))
	assert.Equal(t, []int{1}, DefaultCuts(2))
	assert.Empty(t, DefaultCuts(1))
}
