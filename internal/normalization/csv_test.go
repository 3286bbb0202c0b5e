package normalization

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"market-structure-lab/internal/domain"
)

func TestReadCSV_Basic(t *testing.T) {
	input := `timestamp,open,high,low,close,volume,atr
3000,102,104,101,103,30,1.5
1000,100,101,99,100.5,10,
2000,100.5,103,100,102,20,NaN
`
	series, err := ReadCSV(strings.NewReader(input), "BTCUSDT", "1h")
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}

	if series.Symbol != "BTCUSDT" || series.Timeframe != "1h" {
		t.Errorf("Unexpected series identity: %s/%s", series.Symbol, series.Timeframe)
	}
	if series.Len() != 3 {
		t.Fatalf("Expected 3 bars, got %d", series.Len())
	}
	// Sorted by timestamp
	if series.Bars[0].TimestampMs != 1000 || series.Bars[2].TimestampMs != 3000 {
		t.Errorf("Bars not sorted: %+v", series.Bars)
	}
	if series.Bars[0].ATR != nil || series.Bars[1].ATR != nil {
		t.Error("Empty and NaN atr cells should be missing")
	}
	if series.Bars[2].ATR == nil || *series.Bars[2].ATR != 1.5 {
		t.Error("atr 1.5 should be parsed")
	}
	if series.Bars[1].Close != 102 || series.Bars[1].Volume != 20 {
		t.Errorf("Unexpected bar: %+v", series.Bars[1])
	}
}

func TestReadCSV_HeaderAliasesAndDates(t *testing.T) {
	input := "Date,Open,High,Low,Close\n2024-01-02,10,11,9,10.5\n2024-01-01 00:00:00,9,10,8,9.5\n"

	series, err := ReadCSV(strings.NewReader(input), "X", "1d")
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if series.Len() != 2 {
		t.Fatalf("Expected 2 bars, got %d", series.Len())
	}
	if series.Bars[0].TimestampMs != 1704067200000 {
		t.Errorf("Expected 2024-01-01 UTC in ms, got %d", series.Bars[0].TimestampMs)
	}
	if series.Bars[0].Volume != 0 {
		t.Error("Missing volume column should default to 0")
	}
	if series.HasATR() {
		t.Error("Series without atr column should report no ATR")
	}
}

func TestReadCSV_MissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("timestamp,open,high,close\n1,1,1,1\n"), "X", "1h")
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("Expected ErrMissingColumn, got %v", err)
	}
	if !strings.Contains(err.Error(), "low") {
		t.Errorf("Error should name the column: %v", err)
	}

	_, err = ReadCSV(strings.NewReader(""), "X", "1h")
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("Expected ErrMissingColumn for empty input, got %v", err)
	}
}

func TestReadCSV_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want error
	}{
		{"bad number", "1000,abc,2,0,1", ErrInvalidBar},
		{"bad timestamp", "yesterday,1,2,0,1", ErrInvalidBar},
		{"high below low", "1000,1,0,2,1", ErrInvalidBar},
		{"close above high", "1000,1,2,0,3", ErrInvalidBar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader("timestamp,open,high,low,close\n"+tt.row+"\n"), "X", "1h")
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestReadCSV_DuplicateTimestamp(t *testing.T) {
	input := "timestamp,open,high,low,close\n1000,1,2,0,1\n1000,1,2,0,1\n"

	_, err := ReadCSV(strings.NewReader(input), "X", "1h")

	if !errors.Is(err, ErrDuplicateTimestamp) {
		t.Errorf("Expected ErrDuplicateTimestamp, got %v", err)
	}
	var barErr *BarError
	if !errors.As(err, &barErr) || barErr.Index != 1 {
		t.Errorf("Expected BarError at index 1, got %v", err)
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	atr := 0.75
	series := &domain.BarSeries{Symbol: "X", Timeframe: "1h", Bars: []domain.Bar{
		{TimestampMs: 1000, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 3},
		{TimestampMs: 2000, Open: 1.5, High: 2.25, Low: 1, Close: 2, Volume: 4, ATR: &atr},
	}}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, series); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "timestamp_ms,open,high,low,close,volume,atr\n") {
		t.Errorf("Unexpected header: %q", buf.String())
	}

	back, err := ReadCSV(&buf, "X", "1h")
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if back.Bars[0].ATR != nil || back.Bars[1].ATR == nil || *back.Bars[1].ATR != 0.75 {
		t.Errorf("ATR did not survive: %+v", back.Bars)
	}
	if back.Bars[1].High != 2.25 {
		t.Errorf("Expected high 2.25, got %v", back.Bars[1].High)
	}
}

func TestReadCSVFile_SymbolFromName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ETHUSDT.csv")
	if err := os.WriteFile(path, []byte("timestamp,open,high,low,close\n1000,1,2,0,1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	series, err := ReadCSVFile(path, "", "4h")
	if err != nil {
		t.Fatalf("ReadCSVFile failed: %v", err)
	}
	if series.Symbol != "ETHUSDT" {
		t.Errorf("Expected symbol ETHUSDT, got %s", series.Symbol)
	}
}
