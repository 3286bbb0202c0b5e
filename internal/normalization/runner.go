package normalization

import (
	"context"
	"fmt"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/storage"
)

// Runner moves bars between CSV input and the bar store, normalizing on
// both paths.
type Runner struct {
	bars storage.BarStore
}

// NewRunner creates a new normalization runner.
func NewRunner(bars storage.BarStore) *Runner {
	return &Runner{bars: bars}
}

// Ingest normalizes a series and stores it. Fails on any duplicate bar.
func (r *Runner) Ingest(ctx context.Context, series *domain.BarSeries) (int, error) {
	if err := Normalize(series); err != nil {
		return 0, fmt.Errorf("normalize %s/%s: %w", series.Symbol, series.Timeframe, err)
	}
	if err := r.bars.InsertBulk(ctx, series.Symbol, series.Timeframe, series.Bars); err != nil {
		return 0, fmt.Errorf("store %s/%s: %w", series.Symbol, series.Timeframe, err)
	}
	return series.Len(), nil
}

// IngestFile reads a CSV file and stores its bars.
func (r *Runner) IngestFile(ctx context.Context, path, symbol, timeframe string) (int, error) {
	series, err := ReadCSVFile(path, symbol, timeframe)
	if err != nil {
		return 0, err
	}
	return r.Ingest(ctx, series)
}

// LoadSeries loads a stored series, optionally restricted to [start, end]
// when end > 0, and validates it.
func (r *Runner) LoadSeries(ctx context.Context, symbol, timeframe string, start, end int64) (*domain.BarSeries, error) {
	var series *domain.BarSeries
	var err error
	if end > 0 {
		series, err = r.bars.GetByTimeRange(ctx, symbol, timeframe, start, end)
	} else {
		series, err = r.bars.GetSeries(ctx, symbol, timeframe)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s/%s: %w", symbol, timeframe, err)
	}
	if err := Normalize(series); err != nil {
		return nil, fmt.Errorf("normalize %s/%s: %w", symbol, timeframe, err)
	}
	return series, nil
}
