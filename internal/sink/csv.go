package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/reporting"
)

// CSVSink writes <symbol>_<timeframe>.csv files, plus a Markdown summary
// when enabled.
type CSVSink struct {
	dir     string
	summary bool
}

var _ Sink = (*CSVSink)(nil)

// NewCSVSink creates the output directory if needed.
func NewCSVSink(dir string, summary bool) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &CSVSink{dir: dir, summary: summary}, nil
}

// Name implements Sink.
func (s *CSVSink) Name() string { return "csv" }

// Path returns the CSV file path for a series.
func (s *CSVSink) Path(symbol, timeframe string) string {
	return filepath.Join(s.dir, fileStem(symbol, timeframe)+".csv")
}

// Write implements Sink.
func (s *CSVSink) Write(_ context.Context, run *domain.RunRecord, t *domain.FeatureTable) error {
	if run == nil || t == nil {
		return ErrNilTable
	}
	path := s.Path(t.Symbol, t.Timeframe)
	if err := os.WriteFile(path, []byte(reporting.RenderFeatureCSV(t)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if !s.summary {
		return nil
	}

	sum := reporting.Summarize(t)
	sum.RunID = run.RunID
	md := filepath.Join(s.dir, fileStem(t.Symbol, t.Timeframe)+".md")
	if err := os.WriteFile(md, []byte(reporting.RenderMarkdown(sum)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", md, err)
	}
	return nil
}

// Close implements Sink.
func (s *CSVSink) Close() error { return nil }

// fileStem keeps symbols such as "BTC/USDT" from escaping the directory.
func fileStem(symbol, timeframe string) string {
	clean := strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "_")
	return clean.Replace(symbol) + "_" + clean.Replace(timeframe)
}
