package memory

import (
	"context"
	"sort"
	"sync"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/storage"
)

type seriesKey struct {
	symbol    string
	timeframe string
}

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu   sync.RWMutex
	data map[seriesKey]map[int64]domain.Bar
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{data: make(map[seriesKey]map[int64]domain.Bar)}
}

var _ storage.BarStore = (*BarStore)(nil)

// InsertBulk adds bars. Fails entire batch on duplicate.
func (s *BarStore) InsertBulk(_ context.Context, symbol, timeframe string, bars []domain.Bar) error {
	if symbol == "" || timeframe == "" {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := seriesKey{symbol, timeframe}
	existing := s.data[key]
	batch := make(map[int64]struct{}, len(bars))
	for _, b := range bars {
		if _, ok := existing[b.TimestampMs]; ok {
			return storage.ErrDuplicateKey
		}
		if _, ok := batch[b.TimestampMs]; ok {
			return storage.ErrDuplicateKey
		}
		batch[b.TimestampMs] = struct{}{}
	}

	if existing == nil {
		existing = make(map[int64]domain.Bar, len(bars))
		s.data[key] = existing
	}
	for _, b := range bars {
		existing[b.TimestampMs] = copyBar(b)
	}
	return nil
}

// GetSeries retrieves all bars of a series, ordered by timestamp ASC.
func (s *BarStore) GetSeries(_ context.Context, symbol, timeframe string) (*domain.BarSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bars, ok := s.data[seriesKey{symbol, timeframe}]
	if !ok || len(bars) == 0 {
		return nil, storage.ErrNotFound
	}
	return s.collect(symbol, timeframe, bars, func(int64) bool { return true }), nil
}

// GetByTimeRange retrieves bars within [start, end] (inclusive).
func (s *BarStore) GetByTimeRange(_ context.Context, symbol, timeframe string, start, end int64) (*domain.BarSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bars := s.data[seriesKey{symbol, timeframe}]
	return s.collect(symbol, timeframe, bars, func(ts int64) bool { return ts >= start && ts <= end }), nil
}

// ListSymbols returns stored symbols for a timeframe.
func (s *BarStore) ListSymbols(_ context.Context, timeframe string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for k := range s.data {
		if k.timeframe == timeframe {
			out = append(out, k.symbol)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *BarStore) collect(symbol, timeframe string, bars map[int64]domain.Bar, keep func(int64) bool) *domain.BarSeries {
	series := &domain.BarSeries{Symbol: symbol, Timeframe: timeframe}
	for ts, b := range bars {
		if keep(ts) {
			series.Bars = append(series.Bars, copyBar(b))
		}
	}
	sort.Slice(series.Bars, func(i, j int) bool {
		return series.Bars[i].TimestampMs < series.Bars[j].TimestampMs
	})
	return series
}

func copyBar(b domain.Bar) domain.Bar {
	if b.ATR != nil {
		v := *b.ATR
		b.ATR = &v
	}
	return b
}
