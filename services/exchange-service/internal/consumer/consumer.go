// Package consumer runs the cohort topic read loop. Notifications are
// processed synchronously, in delivery order, with no buffering or
// deduplication; the classification engine owns all failure isolation, so
// the loop itself never stalls on a bad message.
package consumer

import (
	"context"
	"log/slog"
	"time"

	"github.com/metabridge-io/metabridge/libs/kafkax"
	"github.com/metabridge-io/metabridge/services/exchange-service/internal/classifier"
	"github.com/metabridge-io/metabridge/services/exchange-service/internal/omrs"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Consumer struct {
	reader *kafka.Reader
	engine *classifier.Engine
	logger *slog.Logger
}

type Config struct {
	Brokers string
	GroupID string
	Topic   string
}

func New(logger *slog.Logger, engine *classifier.Engine, cfg Config) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  kafkax.SplitBrokers(cfg.Brokers),
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: reader, engine: engine, logger: logger}
}

func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka read error", "err", err)
			time.Sleep(1 * time.Second)
			continue
		}

		ctxMsg := kafkax.ExtractTraceContext(ctx, msg)
		ctxSpan, span := otel.Tracer("kafka").Start(ctxMsg, "cohort.consume",
			trace.WithAttributes(
				attribute.String("messaging.system", "kafka"),
				attribute.String("messaging.destination", msg.Topic),
			),
		)

		notification, err := omrs.Decode(msg.Value)
		if err != nil {
			meta := kafkax.ExtractEventMeta(msg)
			c.logger.Error("invalid cohort notification",
				"err", err, "event_id", meta.EventID, "event_type", meta.EventType)
			span.RecordError(err)
			span.End()
			continue
		}

		c.engine.Process(ctxSpan, notification)
		span.End()
	}
}
