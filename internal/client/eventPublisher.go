package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/King12-D/hypegrow-boost/internal/config"
	"github.com/King12-D/hypegrow-boost/internal/model"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type EventPublisher interface {
	Publish(ctx context.Context, event model.OrderEvent) error
	Close() error
}

type kafkaPublisher struct {
	writer *kafka.Writer
	topic  string
	logger *zap.Logger
}

// NewEventPublisher returns a Kafka backed publisher, or a no-op one when no
// brokers are configured.
func NewEventPublisher(cfg *config.Kafka, l *zap.Logger) EventPublisher {
	if len(cfg.Brokers) == 0 {
		l.Info("kafka brokers not configured, order events disabled")
		return noopPublisher{}
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		Logger:                 zap.NewStdLog(l.With(zap.String("kafka_component", "producer"))),
	}

	l.Info("kafka producer initialized", zap.Strings("brokers", cfg.Brokers), zap.String("topic", cfg.Topic))
	return &kafkaPublisher{writer: writer, topic: cfg.Topic, logger: l}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event model.OrderEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.OrderID),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to produce %s event: %w", event.Type, err)
	}

	p.logger.Debug("produced order event",
		zap.String("type", event.Type),
		zap.String("order_id", event.OrderID))
	return nil
}

func (p *kafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	return nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, model.OrderEvent) error { return nil }
func (noopPublisher) Close() error                                  { return nil }
