package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/storage"
)

// BarStore implements storage.BarStore using PostgreSQL.
type BarStore struct {
	pool *Pool
}

// NewBarStore creates a new BarStore.
func NewBarStore(pool *Pool) *BarStore {
	return &BarStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// InsertBulk adds bars atomically. Fails entire batch on any duplicate.
func (s *BarStore) InsertBulk(ctx context.Context, symbol, timeframe string, bars []domain.Bar) (err error) {
	if symbol == "" || timeframe == "" {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}
	defer func(start time.Time) { s.pool.observe("insert_bars", start, err) }(time.Now())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO bars (
			symbol, timeframe, timestamp_ms, open, high, low, close, volume, atr
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(query, symbol, timeframe, b.TimestampMs, b.Open, b.High, b.Low, b.Close, b.Volume, b.ATR)
	}
	results := tx.SendBatch(ctx, batch)
	for range bars {
		if _, err := results.Exec(); err != nil {
			results.Close()
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert bar in bulk: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetSeries retrieves all bars of a series, ordered by timestamp ASC.
func (s *BarStore) GetSeries(ctx context.Context, symbol, timeframe string) (*domain.BarSeries, error) {
	query := `
		SELECT timestamp_ms, open, high, low, close, volume, atr
		FROM bars
		WHERE symbol = $1 AND timeframe = $2
		ORDER BY timestamp_ms ASC
	`

	series, err := s.query(ctx, "get_series", symbol, timeframe, query, symbol, timeframe)
	if err != nil {
		return nil, fmt.Errorf("get series: %w", err)
	}
	if series.Len() == 0 {
		return nil, storage.ErrNotFound
	}
	return series, nil
}

// GetByTimeRange retrieves bars within [start, end] (inclusive).
func (s *BarStore) GetByTimeRange(ctx context.Context, symbol, timeframe string, start, end int64) (*domain.BarSeries, error) {
	query := `
		SELECT timestamp_ms, open, high, low, close, volume, atr
		FROM bars
		WHERE symbol = $1 AND timeframe = $2 AND timestamp_ms >= $3 AND timestamp_ms <= $4
		ORDER BY timestamp_ms ASC
	`

	series, err := s.query(ctx, "get_bars_by_time_range", symbol, timeframe, query, symbol, timeframe, start, end)
	if err != nil {
		return nil, fmt.Errorf("get bars by time range: %w", err)
	}
	return series, nil
}

// ListSymbols returns stored symbols for a timeframe.
func (s *BarStore) ListSymbols(ctx context.Context, timeframe string) (symbols []string, err error) {
	defer func(start time.Time) { s.pool.observe("list_symbols", start, err) }(time.Now())

	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT symbol FROM bars WHERE timeframe = $1 ORDER BY symbol ASC
	`, timeframe)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	symbols, err = pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan symbol row: %w", err)
	}
	return symbols, nil
}

func (s *BarStore) query(ctx context.Context, op, symbol, timeframe, query string, args ...any) (series *domain.BarSeries, err error) {
	defer func(start time.Time) { s.pool.observe(op, start, err) }(time.Now())

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	series = &domain.BarSeries{Symbol: symbol, Timeframe: timeframe}
	for rows.Next() {
		var b domain.Bar
		if err := rows.Scan(&b.TimestampMs, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.ATR); err != nil {
			return nil, fmt.Errorf("scan bar row: %w", err)
		}
		series.Bars = append(series.Bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bar rows: %w", err)
	}
	return series, nil
}
