// Package sink writes finished feature tables to their destinations: a CSV
// directory, a Kafka topic or the run and feature stores.
package sink

import (
	"context"
	"errors"
	"fmt"

	"market-structure-lab/internal/domain"
)

// Sink receives one feature table per completed run.
// Implementations must be safe for concurrent use.
type Sink interface {
	// Name identifies the sink in logs and metrics.
	Name() string
	// Write stores a table under its run record.
	Write(ctx context.Context, run *domain.RunRecord, table *domain.FeatureTable) error
	// Close flushes and releases resources.
	Close() error
}

// ErrNilTable is returned when Write receives no table or run.
var ErrNilTable = errors.New("nil run or table")

// CloseAll closes every sink and joins the errors.
func CloseAll(sinks []Sink) error {
	var errs []error
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// FeatureValues flattens a table into one cell per (bar, column), in bar
// order then column order. Undefined cells are kept with a nil Value so
// every stored column stays aligned with the bars.
func FeatureValues(runID string, t *domain.FeatureTable) []*domain.FeatureValue {
	out := make([]*domain.FeatureValue, 0, t.Len()*len(t.Columns))
	for i, b := range t.Bars {
		for _, c := range t.Columns {
			v := &domain.FeatureValue{
				RunID:       runID,
				Symbol:      t.Symbol,
				BarIndex:    i,
				TimestampMs: b.TimestampMs,
				Feature:     c.Name,
			}
			if c.Kind == domain.KindLabel {
				v.Label = c.Labels[i]
			} else if f, ok := c.Float(i); ok {
				v.Value = &f
			}
			out = append(out, v)
		}
	}
	return out
}
