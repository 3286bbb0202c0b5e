package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/storage"
)

// FeatureStore is an in-memory implementation of storage.FeatureStore.
type FeatureStore struct {
	mu   sync.RWMutex
	data map[string]*domain.FeatureValue // keyed by (run_id, bar_index, feature)
}

// NewFeatureStore creates a new in-memory feature store.
func NewFeatureStore() *FeatureStore {
	return &FeatureStore{data: make(map[string]*domain.FeatureValue)}
}

var _ storage.FeatureStore = (*FeatureStore)(nil)

func featureKey(runID string, barIndex int, feature string) string {
	return fmt.Sprintf("%s|%d|%s", runID, barIndex, feature)
}

// InsertBulk adds cells. Fails entire batch on duplicate.
func (s *FeatureStore) InsertBulk(_ context.Context, values []*domain.FeatureValue) error {
	if len(values) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == nil || v.RunID == "" || v.Feature == "" {
			return storage.ErrInvalidInput
		}
		key := featureKey(v.RunID, v.BarIndex, v.Feature)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, v := range values {
		s.data[featureKey(v.RunID, v.BarIndex, v.Feature)] = copyValue(v)
	}
	return nil
}

// GetByRunID retrieves all cells of a run, ordered by bar_index ASC, feature ASC.
func (s *FeatureStore) GetByRunID(_ context.Context, runID string) ([]*domain.FeatureValue, error) {
	return s.filter(func(v *domain.FeatureValue) bool { return v.RunID == runID }), nil
}

// GetByFeature retrieves one column of a run, ordered by bar_index ASC.
func (s *FeatureStore) GetByFeature(_ context.Context, runID, feature string) ([]*domain.FeatureValue, error) {
	return s.filter(func(v *domain.FeatureValue) bool { return v.RunID == runID && v.Feature == feature }), nil
}

func (s *FeatureStore) filter(keep func(*domain.FeatureValue) bool) []*domain.FeatureValue {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.FeatureValue
	for _, v := range s.data {
		if keep(v) {
			out = append(out, copyValue(v))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BarIndex != out[j].BarIndex {
			return out[i].BarIndex < out[j].BarIndex
		}
		return out[i].Feature < out[j].Feature
	})
	return out
}

func copyValue(v *domain.FeatureValue) *domain.FeatureValue {
	c := *v
	if v.Value != nil {
		f := *v.Value
		c.Value = &f
	}
	return &c
}
