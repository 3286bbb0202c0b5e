package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

const runColumns = `
	run_id, symbol, timeframe, features, pivot_range, params, bar_count,
	first_bar_ms, last_bar_ms, table_digest, atr_computed, created_at
`

// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.RunRecord) (err error) {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}
	defer func(start time.Time) { s.pool.observe("insert_run", start, err) }(time.Now())

	query := `INSERT INTO engine_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	features := r.Features
	if features == nil {
		features = []string{}
	}
	_, err = s.pool.Exec(ctx, query,
		r.RunID,
		r.Symbol,
		r.Timeframe,
		features,
		r.PivotRange,
		r.ParamsJSON,
		r.BarCount,
		r.FirstBarMs,
		r.LastBarMs,
		r.TableDigest,
		r.ATRComputed,
		r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID retrieves a run. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (r *domain.RunRecord, err error) {
	defer func(start time.Time) { s.pool.observe("get_run", start, err) }(time.Now())

	row := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM engine_runs WHERE run_id = $1`, runID)
	r, err = scanRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run by id: %w", err)
	}
	return r, nil
}

// GetBySeries retrieves runs of a series, ordered by created_at ASC, run_id ASC.
func (s *RunStore) GetBySeries(ctx context.Context, symbol, timeframe string) (runs []*domain.RunRecord, err error) {
	defer func(start time.Time) { s.pool.observe("get_runs_by_series", start, err) }(time.Now())

	rows, err := s.pool.Query(ctx, `SELECT `+runColumns+`
		FROM engine_runs
		WHERE symbol = $1 AND timeframe = $2
		ORDER BY created_at ASC, run_id ASC`, symbol, timeframe)
	if err != nil {
		return nil, fmt.Errorf("get runs by series: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

func scanRun(row pgx.Row) (*domain.RunRecord, error) {
	var r domain.RunRecord
	err := row.Scan(
		&r.RunID,
		&r.Symbol,
		&r.Timeframe,
		&r.Features,
		&r.PivotRange,
		&r.ParamsJSON,
		&r.BarCount,
		&r.FirstBarMs,
		&r.LastBarMs,
		&r.TableDigest,
		&r.ATRComputed,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
