package outbound

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/metabridge-io/metabridge/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

// Publisher delivers envelopes best-effort. Callers treat delivery as
// fire-and-forget; retries and durability are the transport's concern.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

type KafkaPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewKafkaPublisher(brokers string, logger *slog.Logger) (*KafkaPublisher, error) {
	list := kafkax.SplitBrokers(brokers)
	if len(list) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  list,
		Balancer: &kafka.Hash{},
	})
	return &KafkaPublisher{writer: writer, logger: logger}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, env Envelope) error {
	msg := kafka.Message{
		Topic: env.EventType,
		Key:   []byte(env.AggregateID),
		Value: env.Payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(uuid.NewString())},
			{Key: "event_type", Value: []byte(env.EventType)},
		},
	}
	msg.Headers = kafkax.InjectTraceHeaders(ctx, msg.Headers)
	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
