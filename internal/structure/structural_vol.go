package structure

import (
	"market-structure-lab/internal/domain"
)

// StructVolStream is the structural volatility of one event stream.
type StructVolStream struct {
	Key            EventKey
	BarsSinceEvent []*int
	RangeATR       []*float64 // nil outside the event window
	Class          []VolClass
}

// StructVolSeries holds structural volatility for every stream.
type StructVolSeries struct {
	Streams map[EventKey]*StructVolStream
}

// Stream returns the structural volatility for key.
func (s *StructVolSeries) Stream(key EventKey) *StructVolStream {
	return s.Streams[key]
}

// HighAt reports whether any stream is classified high at bar i.
// Undefined classes count as not high.
func (s *StructVolSeries) HighAt(i int) bool {
	for _, key := range EventKeys {
		if sv, ok := s.Streams[key]; ok && sv.Class[i] == VolHigh {
			return true
		}
	}
	return false
}

// ClassifyStructVol measures the high-low extent since the last event of
// each stream in ATR units. Bars more than cfg.Window bars after the event,
// bars before any event and bars without ATR stay undefined.
func ClassifyStructVol(series *domain.BarSeries, pa *PriceActionSeries, cfg StructVolConfig) *StructVolSeries {
	out := &StructVolSeries{Streams: make(map[EventKey]*StructVolStream, len(EventKeys))}
	for _, key := range EventKeys {
		out.Streams[key] = classifyStream(series, pa.Stream(key), cfg)
	}
	return out
}

func classifyStream(series *domain.BarSeries, es *EventSeries, cfg StructVolConfig) *StructVolStream {
	n := series.Len()
	sv := &StructVolStream{
		Key:            es.Key,
		BarsSinceEvent: barsSince(es.EventIndex),
		RangeATR:       make([]*float64, n),
		Class:          make([]VolClass, n),
	}
	var hi, lo float64
	for i, b := range series.Bars {
		if es.Fired[i] {
			hi, lo = b.High, b.Low
		} else {
			hi, lo = max(hi, b.High), min(lo, b.Low)
		}
		since := sv.BarsSinceEvent[i]
		if since == nil || *since > cfg.Window {
			continue
		}
		r := ratio(hi-lo, b.ATR)
		if r == nil {
			continue
		}
		sv.RangeATR[i] = r
		switch {
		case *r < cfg.LowThr:
			sv.Class[i] = VolLow
		case *r > cfg.HighThr:
			sv.Class[i] = VolHigh
		default:
			sv.Class[i] = VolNormal
		}
	}
	return sv
}

// Columns returns the structural volatility columns in stream order.
func (s *StructVolSeries) Columns() []domain.Column {
	var cols []domain.Column
	for _, key := range EventKeys {
		sv := s.Streams[key]
		labels := make([]string, len(sv.Class))
		for i, c := range sv.Class {
			labels[i] = c.String()
		}
		p := key.Prefix()
		cols = append(cols,
			domain.FloatColumn(p+"_struct_range_atr", sv.RangeATR),
			domain.LabelColumn(p+"_struct_vol", labels),
		)
	}
	return cols
}
