package clickhouse

import (
	"context"
	"fmt"
	"time"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/storage"
)

// FeatureStore implements storage.FeatureStore using ClickHouse.
// Cells are stored in the narrow feature_values table.
type FeatureStore struct {
	conn      *Conn
	batchSize int
}

// NewFeatureStore creates a new FeatureStore. batchSize <= 0 sends every
// cell in one batch.
func NewFeatureStore(conn *Conn, batchSize int) *FeatureStore {
	return &FeatureStore{conn: conn, batchSize: batchSize}
}

// Compile-time interface check.
var _ storage.FeatureStore = (*FeatureStore)(nil)

type featureKey struct {
	runID    string
	barIndex int
	feature  string
}

// InsertBulk adds cells. Fails entire batch on duplicate.
// MergeTree does not enforce keys, so duplicates are checked per run first.
func (s *FeatureStore) InsertBulk(ctx context.Context, values []*domain.FeatureValue) (err error) {
	if len(values) == 0 {
		return nil
	}
	defer func(start time.Time) { s.conn.observe("insert_feature_values", start, err) }(time.Now())

	seen := make(map[featureKey]struct{}, len(values))
	runs := make(map[string]struct{})
	for _, v := range values {
		if v == nil || v.RunID == "" || v.Feature == "" || v.BarIndex < 0 {
			return storage.ErrInvalidInput
		}
		k := featureKey{v.RunID, v.BarIndex, v.Feature}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
		runs[v.RunID] = struct{}{}
	}

	for runID := range runs {
		existing, err := s.keys(ctx, runID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		for k := range existing {
			if _, clash := seen[k]; clash {
				return storage.ErrDuplicateKey
			}
		}
	}

	size := s.batchSize
	if size <= 0 {
		size = len(values)
	}
	for start := 0; start < len(values); start += size {
		end := min(start+size, len(values))
		if err := s.send(ctx, values[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *FeatureStore) send(ctx context.Context, values []*domain.FeatureValue) error {
	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO feature_values (
			run_id, symbol, bar_index, timestamp_ms, feature, value, label
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	for _, v := range values {
		if err := batch.Append(
			v.RunID, v.Symbol, uint32(v.BarIndex), v.TimestampMs, v.Feature, v.Value, v.Label,
		); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRunID retrieves all cells of a run, ordered by bar_index ASC, feature ASC.
func (s *FeatureStore) GetByRunID(ctx context.Context, runID string) (values []*domain.FeatureValue, err error) {
	defer func(start time.Time) { s.conn.observe("get_feature_values", start, err) }(time.Now())

	rows, err := s.conn.Query(ctx, `
		SELECT run_id, symbol, bar_index, timestamp_ms, feature, value, label
		FROM feature_values
		WHERE run_id = ?
		ORDER BY bar_index ASC, feature ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run id: %w", err)
	}
	defer rows.Close()

	return scanFeatureValues(rows)
}

// GetByFeature retrieves one column of a run, ordered by bar_index ASC.
func (s *FeatureStore) GetByFeature(ctx context.Context, runID, feature string) (values []*domain.FeatureValue, err error) {
	defer func(start time.Time) { s.conn.observe("get_feature_column", start, err) }(time.Now())

	rows, err := s.conn.Query(ctx, `
		SELECT run_id, symbol, bar_index, timestamp_ms, feature, value, label
		FROM feature_values
		WHERE run_id = ? AND feature = ?
		ORDER BY bar_index ASC
	`, runID, feature)
	if err != nil {
		return nil, fmt.Errorf("query by feature: %w", err)
	}
	defer rows.Close()

	return scanFeatureValues(rows)
}

func (s *FeatureStore) keys(ctx context.Context, runID string) (map[featureKey]struct{}, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT bar_index, feature FROM feature_values WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[featureKey]struct{})
	for rows.Next() {
		var idx uint32
		var feature string
		if err := rows.Scan(&idx, &feature); err != nil {
			return nil, err
		}
		out[featureKey{runID, int(idx), feature}] = struct{}{}
	}
	return out, rows.Err()
}

func scanFeatureValues(rows chRows) ([]*domain.FeatureValue, error) {
	var values []*domain.FeatureValue
	for rows.Next() {
		var v domain.FeatureValue
		var barIndex uint32
		if err := rows.Scan(&v.RunID, &v.Symbol, &barIndex, &v.TimestampMs, &v.Feature, &v.Value, &v.Label); err != nil {
			return nil, fmt.Errorf("scan feature value row: %w", err)
		}
		v.BarIndex = int(barIndex)
		values = append(values, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feature value rows: %w", err)
	}
	return values, nil
}
