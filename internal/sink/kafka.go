package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"market-structure-lab/internal/domain"
)

// KafkaOptions configures the Kafka writer.
type KafkaOptions struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	WriteTimeout time.Duration
	RequiredAcks int
}

// messageWriter is the part of *kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes one JSON message per bar, keyed by symbol so a
// series stays on one partition and in bar order.
type KafkaSink struct {
	writer    messageWriter
	topic     string
	batchSize int
}

var _ Sink = (*KafkaSink)(nil)

// NewKafkaSink creates a synchronous writer with hash partitioning.
func NewKafkaSink(opts KafkaOptions) (*KafkaSink, error) {
	if len(opts.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if opts.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(opts.Brokers...),
		Topic:        opts.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequiredAcks(opts.RequiredAcks),
		Compression:  kafka.Gzip,
		MaxAttempts:  3,
		WriteTimeout: opts.WriteTimeout,
		BatchSize:    opts.BatchSize,
		BatchTimeout: time.Second,
	}
	return newKafkaSink(w, opts.Topic, opts.BatchSize), nil
}

func newKafkaSink(w messageWriter, topic string, batchSize int) *KafkaSink {
	return &KafkaSink{writer: w, topic: topic, batchSize: batchSize}
}

// Name implements Sink.
func (s *KafkaSink) Name() string { return "kafka" }

// RowMessage is the JSON payload of one bar.
type RowMessage struct {
	RunID       string         `json:"run_id"`
	Symbol      string         `json:"symbol"`
	Timeframe   string         `json:"timeframe"`
	BarIndex    int            `json:"bar_index"`
	TimestampMs int64          `json:"timestamp_ms"`
	Open        float64        `json:"open"`
	High        float64        `json:"high"`
	Low         float64        `json:"low"`
	Close       float64        `json:"close"`
	Volume      float64        `json:"volume"`
	ATR         *float64       `json:"atr"`
	Features    map[string]any `json:"features"`
}

// Write implements Sink. Messages are sent in chunks of batchSize.
func (s *KafkaSink) Write(ctx context.Context, run *domain.RunRecord, t *domain.FeatureTable) error {
	if run == nil || t == nil {
		return ErrNilTable
	}

	key := []byte(t.Symbol)
	batch := make([]kafka.Message, 0, s.batchSize)
	for i := range t.Bars {
		v, err := json.Marshal(rowMessage(run.RunID, t, i))
		if err != nil {
			return fmt.Errorf("marshal bar %d: %w", i, err)
		}
		batch = append(batch, kafka.Message{Key: key, Value: v})
		if len(batch) == s.batchSize {
			if err := s.writer.WriteMessages(ctx, batch...); err != nil {
				return fmt.Errorf("publish to %s: %w", s.topic, err)
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := s.writer.WriteMessages(ctx, batch...); err != nil {
			return fmt.Errorf("publish to %s: %w", s.topic, err)
		}
	}
	return nil
}

// Close implements Sink.
func (s *KafkaSink) Close() error {
	if s.writer != nil {
		return s.writer.Close()
	}
	return nil
}

func rowMessage(runID string, t *domain.FeatureTable, i int) RowMessage {
	b := t.Bars[i]
	features := make(map[string]any, len(t.Columns))
	for _, c := range t.Columns {
		switch {
		case c.IsNull(i):
			features[c.Name] = nil
		case c.Kind == domain.KindFloat:
			features[c.Name] = *c.Floats[i]
		case c.Kind == domain.KindInt:
			features[c.Name] = *c.Ints[i]
		case c.Kind == domain.KindBool:
			features[c.Name] = c.Bools[i]
		default:
			features[c.Name] = c.Labels[i]
		}
	}
	return RowMessage{
		RunID:       runID,
		Symbol:      t.Symbol,
		Timeframe:   t.Timeframe,
		BarIndex:    i,
		TimestampMs: b.TimestampMs,
		Open:        b.Open,
		High:        b.High,
		Low:         b.Low,
		Close:       b.Close,
		Volume:      b.Volume,
		ATR:         b.ATR,
		Features:    features,
	}
}
