package sink

import (
	"context"
	"errors"
	"fmt"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/storage"
)

// StoreSink records the run in a RunStore and its cells in a FeatureStore.
// Run IDs are content hashes, so writing a run that is already fully
// recorded is a no-op.
type StoreSink struct {
	runs     storage.RunStore
	features storage.FeatureStore
}

var _ Sink = (*StoreSink)(nil)

// NewStoreSink creates a store-backed sink. features may be nil to record
// runs only.
func NewStoreSink(runs storage.RunStore, features storage.FeatureStore) *StoreSink {
	return &StoreSink{runs: runs, features: features}
}

// Name implements Sink.
func (s *StoreSink) Name() string { return "store" }

// Write implements Sink. Cells are stored before the run row, so a recorded
// run always has its features. A retry after a partial failure skips the
// cells that already landed.
func (s *StoreSink) Write(ctx context.Context, run *domain.RunRecord, t *domain.FeatureTable) error {
	if run == nil || t == nil {
		return ErrNilTable
	}
	if s.features != nil {
		if err := s.writeFeatures(ctx, run.RunID, t); err != nil {
			return err
		}
	}
	if err := s.runs.Insert(ctx, run); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil
		}
		return fmt.Errorf("insert run %s: %w", run.RunID, err)
	}
	return nil
}

func (s *StoreSink) writeFeatures(ctx context.Context, runID string, t *domain.FeatureTable) error {
	values := FeatureValues(runID, t)
	err := s.features.InsertBulk(ctx, values)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrDuplicateKey) {
		return fmt.Errorf("insert features of run %s: %w", runID, err)
	}
	stored, err := s.features.GetByRunID(ctx, runID)
	if err != nil {
		return fmt.Errorf("read features of run %s: %w", runID, err)
	}
	if len(stored) != len(values) {
		return fmt.Errorf("run %s has %d of %d feature cells stored: %w",
			runID, len(stored), len(values), storage.ErrDuplicateKey)
	}
	return nil
}

// Close implements Sink.
func (s *StoreSink) Close() error { return nil }
