package usecase

import (
	"context"
	"log/slog"

	"github.com/allisson/commerce-saga/internal/metrics"
	"github.com/allisson/commerce-saga/internal/outbox/domain"
)

// EventPublisher publishes an encoded event body with a routing key.
type EventPublisher interface {
	PublishRaw(ctx context.Context, routingKey string, body []byte) error
}

// AMQPEventProcessor publishes outbox events to the broker. The event type is
// used as the routing key, so subscribers bind with patterns like "order.*".
type AMQPEventProcessor struct {
	publisher EventPublisher
	metrics   metrics.MessagingMetrics
	logger    *slog.Logger
}

// NewAMQPEventProcessor creates a new AMQPEventProcessor
func NewAMQPEventProcessor(
	publisher EventPublisher,
	messagingMetrics metrics.MessagingMetrics,
	logger *slog.Logger,
) *AMQPEventProcessor {
	return &AMQPEventProcessor{
		publisher: publisher,
		metrics:   messagingMetrics,
		logger:    logger,
	}
}

// Process publishes a single outbox event.
func (p *AMQPEventProcessor) Process(ctx context.Context, event *domain.OutboxEvent) error {
	if err := p.publisher.PublishRaw(ctx, event.EventType, []byte(event.Payload)); err != nil {
		p.metrics.RecordPublished(ctx, event.EventType, "error")
		return err
	}

	p.metrics.RecordPublished(ctx, event.EventType, "success")
	p.logger.Info("event published",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.EventType),
	)
	return nil
}
