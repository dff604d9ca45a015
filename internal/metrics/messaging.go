package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MessagingMetrics defines the interface for recording message transport metrics.
// Tracks consumed commands per queue and published outcome events per event type.
type MessagingMetrics interface {
	// RecordConsumed records a consumed delivery with its disposition.
	// Disposition examples: "ack", "requeue", "reject"
	RecordConsumed(ctx context.Context, queue, disposition string)

	// RecordPublished records a published outcome event with its status.
	// Status examples: "success", "error"
	RecordPublished(ctx context.Context, eventType, status string)
}

// messagingMetrics implements MessagingMetrics using OpenTelemetry metrics.
type messagingMetrics struct {
	consumedCounter  metric.Int64Counter
	publishedCounter metric.Int64Counter
}

// NewMessagingMetrics creates a new MessagingMetrics implementation using the provided
// meter provider. The namespace parameter is used as a prefix for all metric names.
func NewMessagingMetrics(meterProvider metric.MeterProvider, namespace string) (MessagingMetrics, error) {
	meter := meterProvider.Meter(namespace)

	consumedCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_messages_consumed_total", namespace),
		metric.WithDescription("Total number of command deliveries consumed"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumed counter: %w", err)
	}

	publishedCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_events_published_total", namespace),
		metric.WithDescription("Total number of outcome events published"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create published counter: %w", err)
	}

	return &messagingMetrics{
		consumedCounter:  consumedCounter,
		publishedCounter: publishedCounter,
	}, nil
}

// RecordConsumed increments the consumed counter with queue and disposition labels.
func (m *messagingMetrics) RecordConsumed(ctx context.Context, queue, disposition string) {
	m.consumedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("queue", queue),
			attribute.String("disposition", disposition),
		),
	)
}

// RecordPublished increments the published counter with event_type and status labels.
func (m *messagingMetrics) RecordPublished(ctx context.Context, eventType, status string) {
	m.publishedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("event_type", eventType),
			attribute.String("status", status),
		),
	)
}

// NoOpMessagingMetrics is a no-op implementation of MessagingMetrics for when metrics are disabled.
type NoOpMessagingMetrics struct{}

// NewNoOpMessagingMetrics creates a no-op MessagingMetrics implementation.
func NewNoOpMessagingMetrics() MessagingMetrics {
	return &NoOpMessagingMetrics{}
}

// RecordConsumed does nothing when metrics are disabled.
func (n *NoOpMessagingMetrics) RecordConsumed(ctx context.Context, queue, disposition string) {
	// No-op
}

// RecordPublished does nothing when metrics are disabled.
func (n *NoOpMessagingMetrics) RecordPublished(ctx context.Context, eventType, status string) {
	// No-op
}
