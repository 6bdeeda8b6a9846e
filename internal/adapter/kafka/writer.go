package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/disaster-funding-service/internal/config"
	"github.com/couchcryptid/disaster-funding-service/internal/domain"
)

// messageWriter is the subset of kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// RegionSnapshot is the message body published per region.
type RegionSnapshot struct {
	domain.RegionAggregate
	LoadedAt time.Time `json:"loaded_at"`
}

// SnapshotWriter publishes the per-region funding aggregation to a Kafka
// topic. It implements pipeline.SnapshotPublisher.
type SnapshotWriter struct {
	writer messageWriter
	logger *slog.Logger
}

// NewSnapshotWriter creates a Kafka producer for the configured snapshot topic.
func NewSnapshotWriter(cfg *config.Config, logger *slog.Logger) *SnapshotWriter {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaSnapshotTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &SnapshotWriter{writer: w, logger: logger}
}

// PublishSnapshot writes one message per region in a single WriteMessages
// call. Messages are keyed by region code so each region lands on a stable
// partition.
func (w *SnapshotWriter) PublishSnapshot(ctx context.Context, loadedAt time.Time, regions []domain.RegionAggregate) error {
	if len(regions) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(regions))
	for i := range regions {
		msg, err := serializeToMessage(RegionSnapshot{RegionAggregate: regions[i], LoadedAt: loadedAt})
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	w.logger.Debug("snapshot written", "messages", len(msgs))
	return nil
}

func (w *SnapshotWriter) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a RegionSnapshot into a Kafka message.
func serializeToMessage(s RegionSnapshot) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize region snapshot: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(s.Region),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "region_name", Value: []byte(s.Name)},
			{Key: "loaded_at", Value: []byte(s.LoadedAt.Format(time.RFC3339))},
		},
	}, nil
}
