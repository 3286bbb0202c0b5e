package normalization

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"market-structure-lab/internal/domain"
)

// Accepted header names, lower case.
var columnAliases = map[string][]string{
	"timestamp": {"timestamp_ms", "timestamp", "time", "ts", "open_time", "datetime", "date"},
	"open":      {"open", "o"},
	"high":      {"high", "h"},
	"low":       {"low", "l"},
	"close":     {"close", "c"},
	"volume":    {"volume", "vol", "v"},
	"atr":       {"atr"},
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ReadCSV parses bars from r. The header row is required; timestamp, open,
// high, low and close are mandatory, volume and atr optional. Empty or NaN
// atr cells are missing. The result is normalized.
func ReadCSV(r io.Reader, symbol, timeframe string) (*domain.BarSeries, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty input", ErrMissingColumn)
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	series := &domain.BarSeries{Symbol: symbol, Timeframe: timeframe}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		b, err := parseRecord(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		series.Bars = append(series.Bars, b)
	}

	if err := Normalize(series); err != nil {
		return nil, err
	}
	return series, nil
}

// ReadCSVFile reads a bar file. An empty symbol defaults to the file name
// without extension.
func ReadCSVFile(path, symbol, timeframe string) (*domain.BarSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars: %w", err)
	}
	defer f.Close()

	if symbol == "" {
		symbol = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	series, err := ReadCSV(f, symbol, timeframe)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return series, nil
}

// WriteCSV writes bars in the format ReadCSV accepts. The atr column is
// written only when the series carries one.
func WriteCSV(w io.Writer, series *domain.BarSeries) error {
	cw := csv.NewWriter(w)
	withATR := series.HasATR()
	header := []string{"timestamp_ms", "open", "high", "low", "close", "volume"}
	if withATR {
		header = append(header, "atr")
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, b := range series.Bars {
		rec := []string{
			strconv.FormatInt(b.TimestampMs, 10),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			formatFloat(b.Volume),
		}
		if withATR {
			atr := ""
			if b.ATR != nil {
				atr = formatFloat(*b.ATR)
			}
			rec = append(rec, atr)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func mapColumns(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	cols := make(map[string]int, len(columnAliases))
	var missing []string
	for _, name := range []string{"timestamp", "open", "high", "low", "close", "volume", "atr"} {
		found := false
		for _, alias := range columnAliases[name] {
			if i, ok := index[alias]; ok {
				cols[name] = i
				found = true
				break
			}
		}
		if !found && name != "volume" && name != "atr" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseRecord(rec []string, cols map[string]int) (domain.Bar, error) {
	var b domain.Bar
	field := func(name string) (string, bool) {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return "", false
		}
		return strings.TrimSpace(rec[i]), true
	}

	raw, _ := field("timestamp")
	ts, err := parseTimestamp(raw)
	if err != nil {
		return b, err
	}
	b.TimestampMs = ts

	for _, p := range []struct {
		name string
		dst  *float64
	}{{"open", &b.Open}, {"high", &b.High}, {"low", &b.Low}, {"close", &b.Close}} {
		s, _ := field(p.name)
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return b, fmt.Errorf("%w: %s %q", ErrInvalidBar, p.name, s)
		}
		*p.dst = v
	}

	if s, ok := field("volume"); ok && s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return b, fmt.Errorf("%w: volume %q", ErrInvalidBar, s)
		}
		b.Volume = v
	}
	if s, ok := field("atr"); ok && s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return b, fmt.Errorf("%w: atr %q", ErrInvalidBar, s)
		}
		if !math.IsNaN(v) {
			b.ATR = &v
		}
	}
	return b, nil
}

// parseTimestamp accepts integer milliseconds or a date-time in UTC.
func parseTimestamp(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty timestamp", ErrInvalidBar)
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("%w: timestamp %q", ErrInvalidBar, s)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
