package storage

import (
	"context"

	"market-structure-lab/internal/domain"
)

// BarStore provides access to bars storage.
type BarStore interface {
	// InsertBulk adds bars for one series atomically.
	// Fails the entire batch on a duplicate (symbol, timeframe, timestamp_ms).
	InsertBulk(ctx context.Context, symbol, timeframe string, bars []domain.Bar) error

	// GetSeries retrieves every bar of a series, ordered by timestamp ASC.
	// Returns ErrNotFound if the series has no bars.
	GetSeries(ctx context.Context, symbol, timeframe string) (*domain.BarSeries, error)

	// GetByTimeRange retrieves bars within [start, end] (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, symbol, timeframe string, start, end int64) (*domain.BarSeries, error)

	// ListSymbols returns the distinct symbols stored for a timeframe, sorted ASC.
	ListSymbols(ctx context.Context, timeframe string) ([]string, error)
}

// RunStore provides access to engine_runs storage.
type RunStore interface {
	// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.RunRecord) error

	// GetByID retrieves a run. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunRecord, error)

	// GetBySeries retrieves runs of a series, ordered by created_at ASC, run_id ASC.
	GetBySeries(ctx context.Context, symbol, timeframe string) ([]*domain.RunRecord, error)
}

// FeatureStore provides access to feature_values storage.
type FeatureStore interface {
	// InsertBulk adds cells. Fails the entire batch on a duplicate (run_id, bar_index, feature).
	InsertBulk(ctx context.Context, values []*domain.FeatureValue) error

	// GetByRunID retrieves every cell of a run, ordered by bar_index ASC, feature ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.FeatureValue, error)

	// GetByFeature retrieves one column of a run, ordered by bar_index ASC.
	GetByFeature(ctx context.Context, runID, feature string) ([]*domain.FeatureValue, error)
}
