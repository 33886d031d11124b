package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/crisislens-service/internal/config"
	"github.com/couchcryptid/crisislens-service/internal/domain"
)

// Writer produces analysis records to the sink topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	producer *kafkago.Writer
	logger   *slog.Logger
}

// NewWriter creates a producer for cfg.KafkaSinkTopic. Records are hashed by
// key, so repeats of one report land on the same partition.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	return &Writer{
		producer: &kafkago.Writer{
			Addr:         kafkago.TCP(cfg.KafkaBrokers...),
			Topic:        cfg.KafkaSinkTopic,
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireAll,
			BatchSize:    cfg.BatchSize,
			BatchTimeout: cfg.BatchFlushInterval,
		},
		logger: logger,
	}
}

// LoadBatch writes all records in one call and returns once every broker
// replica has acknowledged them.
func (w *Writer) LoadBatch(ctx context.Context, records []domain.OutputEvent) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, 0, len(records))
	for _, r := range records {
		msgs = append(msgs, toMessage(r))
	}
	if err := w.producer.WriteMessages(ctx, msgs...); err != nil {
		w.logger.Warn("kafka write failed", "topic", w.producer.Topic, "records", len(msgs), "error", err)
		return fmt.Errorf("write %d records: %w", len(msgs), err)
	}
	return nil
}

// Close flushes pending writes and releases the producer.
func (w *Writer) Close() error {
	return w.producer.Close()
}

// toMessage maps a record to a Kafka message with headers in key order.
func toMessage(r domain.OutputEvent) kafkago.Message {
	msg := kafkago.Message{Key: r.Key, Value: r.Value}
	for _, k := range slices.Sorted(maps.Keys(r.Headers)) {
		msg.Headers = append(msg.Headers, kafkago.Header{Key: k, Value: []byte(r.Headers[k])})
	}
	return msg
}
