package reporting

import (
	"strings"
	"testing"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/verification"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func testTable(t *testing.T) *domain.FeatureTable {
	t.Helper()
	series := &domain.BarSeries{Symbol: "XAUUSD", Timeframe: "H1"}
	for i := 0; i < 4; i++ {
		series.Bars = append(series.Bars, domain.Bar{
			TimestampMs: int64(1000 * (i + 1)),
			Open:        10, High: 11.5, Low: 9.25, Close: 10.5, Volume: 3,
		})
	}
	series.Bars[3].ATR = fptr(0.75)

	table := domain.NewFeatureTable(series)
	cols := []domain.Column{
		domain.IntColumn("pivot", []*int{nil, iptr(3), iptr(6), iptr(3)}),
		domain.FloatColumn("pivotprice", []*float64{nil, fptr(11.5), nil, fptr(0.1)}),
		domain.BoolColumn("bos_bull_event", []bool{false, true, false, true}),
		domain.BoolColumn("bos_bull_ft_valid", []bool{false, false, true, false}),
		domain.BoolColumn("liq_grab_bos_bull", []bool{false, false, false, true}),
		domain.BoolColumn("sr_flip_bos_bull", []bool{false, false, false, false}),
		domain.LabelColumn("trend_regime", []string{"range", "range", "trend_up", "transition"}),
	}
	for _, c := range cols {
		if err := table.Add(c); err != nil {
			t.Fatalf("Add %s failed: %v", c.Name, err)
		}
	}
	return table
}

func TestRenderFeatureCSV(t *testing.T) {
	got := RenderFeatureCSV(testTable(t))

	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header + 4 rows, got %d lines", len(lines))
	}
	wantHeader := "timestamp_ms,open,high,low,close,volume,atr,pivot,pivotprice,bos_bull_event," +
		"bos_bull_ft_valid,liq_grab_bos_bull,sr_flip_bos_bull,trend_regime"
	if lines[0] != wantHeader {
		t.Errorf("header mismatch:\n got %s\nwant %s", lines[0], wantHeader)
	}
	if want := "1000,10,11.5,9.25,10.5,3,,,,false,false,false,false,range"; lines[1] != want {
		t.Errorf("row 0:\n got %s\nwant %s", lines[1], want)
	}
	if want := "4000,10,11.5,9.25,10.5,3,0.75,3,0.1,true,false,true,false,transition"; lines[4] != want {
		t.Errorf("row 3:\n got %s\nwant %s", lines[4], want)
	}
}

func TestRenderFeatureCSV_Deterministic(t *testing.T) {
	a := RenderFeatureCSV(testTable(t))
	b := RenderFeatureCSV(testTable(t))
	if a != b {
		t.Error("identical tables rendered differently")
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(testTable(t))

	if s.Bars != 4 || s.StartMs != 1000 || s.EndMs != 4000 || s.Columns != 7 {
		t.Errorf("unexpected data summary: %+v", s)
	}

	wantPivots := []CountRow{{"HH", 2}, {"LL", 0}, {"LH", 0}, {"HL", 1}}
	if len(s.Pivots) != len(wantPivots) {
		t.Fatalf("expected %d pivot rows, got %d", len(wantPivots), len(s.Pivots))
	}
	for i, want := range wantPivots {
		if s.Pivots[i] != want {
			t.Errorf("pivot row %d: got %+v, want %+v", i, s.Pivots[i], want)
		}
	}

	if len(s.Events) != 1 {
		t.Fatalf("expected only bos_bull stream, got %d", len(s.Events))
	}
	want := EventRow{Stream: "bos_bull", Events: 2, FollowValid: 1, LiquidityGrabs: 1}
	if s.Events[0] != want {
		t.Errorf("event row: got %+v, want %+v", s.Events[0], want)
	}

	if len(s.Regimes) != 4 {
		t.Fatalf("expected 4 regime rows, got %d", len(s.Regimes))
	}
	if s.Regimes[0].Label != "range" || s.Regimes[0].Count != 2 || s.Regimes[0].Share != 0.5 {
		t.Errorf("range row: %+v", s.Regimes[0])
	}
	if s.Regimes[2].Label != "trend_down" || s.Regimes[2].Count != 0 {
		t.Errorf("trend_down row: %+v", s.Regimes[2])
	}
}

func TestRenderSummary(t *testing.T) {
	md := RenderSummary(testTable(t))

	for _, want := range []string{
		"# XAUUSD H1",
		"| Bars | 4 |",
		"| HH | 2 |",
		"| bos_bull | 2 | 1 | 1 | 0 |",
		"| range | 2 | 50.00% |",
		"| transition | 1 | 25.00% |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestRenderSummary_EmptyTable(t *testing.T) {
	md := RenderSummary(domain.NewFeatureTable(&domain.BarSeries{Symbol: "X", Timeframe: "D1"}))

	for _, want := range []string{"| Bars | 0 |", "Pivots not computed.", "Price action not computed.", "Trend regime not computed."} {
		if !strings.Contains(md, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestRenderVerification(t *testing.T) {
	r := &verification.Report{
		Symbol: "XAUUSD", Timeframe: "H1", Bars: 10,
		Results: []verification.CheckResult{
			{Name: verification.CheckNameDeterminism, Passed: true, Checked: 40},
			{
				Name: verification.CheckNameCausality, Checked: 20, Truncated: true,
				Divergences: []verification.Divergence{{Column: "trend_bias", Bar: 3, Expected: "1", Actual: "2", Note: "cut 5"}},
			},
		},
	}

	md := RenderVerification(r)

	for _, want := range []string{
		"# Verification XAUUSD H1: FAIL",
		"| determinism | 40 | 0 | PASS |",
		"| causality | 20 | 1+ | FAIL |",
		`- trend_bias[3]: expected "1", got "2" (cut 5)`,
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q", want)
		}
	}
}
