package structure

import (
	"market-structure-lab/internal/domain"
)

// Event is one BOS or MSS occurrence.
type Event struct {
	Key      EventKey
	Level    float64
	BarIndex int
}

// EventSeries is one event stream. Level and EventIndex hold between events.
type EventSeries struct {
	Key        EventKey
	Fired      []bool
	Level      []*float64
	EventIndex []*int
	Events     []Event
}

// PriceActionSeries holds the four event streams.
type PriceActionSeries struct {
	Streams map[EventKey]*EventSeries
}

// Stream returns the stream for key.
func (s *PriceActionSeries) Stream(key EventKey) *EventSeries {
	return s.Streams[key]
}

// sourceLevel maps a stream to the held pivot level it breaks.
func sourceLevel(p *PivotSeries, key EventKey) *HeldLevel {
	switch key {
	case EventKey{Kind: BOS, Direction: Bull}:
		return &p.HH
	case EventKey{Kind: BOS, Direction: Bear}:
		return &p.LL
	case EventKey{Kind: MSS, Direction: Bull}:
		return &p.LH
	default:
		return &p.HL
	}
}

// DetectPriceAction fires an event at bar i when close[i] crosses the level
// held at bar i while close[i-1] was on the other side (or on it).
func DetectPriceAction(p *PivotSeries, closes []float64) *PriceActionSeries {
	out := &PriceActionSeries{Streams: make(map[EventKey]*EventSeries, len(EventKeys))}
	for _, key := range EventKeys {
		out.Streams[key] = detectStream(key, sourceLevel(p, key), closes)
	}
	return out
}

func detectStream(key EventKey, src *HeldLevel, closes []float64) *EventSeries {
	n := len(closes)
	es := &EventSeries{
		Key:        key,
		Fired:      make([]bool, n),
		Level:      make([]*float64, n),
		EventIndex: make([]*int, n),
	}
	var level Hold[float64]
	var index Hold[int]
	for i := 0; i < n; i++ {
		if i > 0 && src.Value[i] != nil && crossed(key.Direction, closes[i-1], closes[i], *src.Value[i]) {
			es.Fired[i] = true
			level.Set(*src.Value[i])
			index.Set(i)
			es.Events = append(es.Events, Event{Key: key, Level: *src.Value[i], BarIndex: i})
		}
		es.Level[i] = level.Get()
		es.EventIndex[i] = index.Get()
	}
	return es
}

func crossed(dir Direction, prev, cur, level float64) bool {
	if dir == Bull {
		return cur > level && prev <= level
	}
	return cur < level && prev >= level
}

// Columns returns the event columns in stream order.
func (s *PriceActionSeries) Columns() []domain.Column {
	var cols []domain.Column
	for _, key := range EventKeys {
		es := s.Streams[key]
		p := key.Prefix()
		cols = append(cols,
			domain.BoolColumn(p+"_event", es.Fired),
			domain.FloatColumn(p+"_level", es.Level),
			domain.IntColumn(p+"_event_idx", es.EventIndex),
		)
	}
	return cols
}
