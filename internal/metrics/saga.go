package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SagaMetrics defines the interface for recording saga processing metrics.
// Implementations track command counts and processing durations per saga type
// and outcome (completed, failed, duplicate, error).
type SagaMetrics interface {
	// RecordCommand records a processed command for a saga type with its outcome.
	// SagaType examples: "customer_creation", "order_creation", "order_status"
	// Outcome examples: "completed", "failed", "duplicate", "error"
	RecordCommand(ctx context.Context, sagaType, outcome string)

	// RecordDuration records the processing duration of a command with its outcome.
	// Duration is recorded in seconds as a histogram for percentile calculations.
	RecordDuration(ctx context.Context, sagaType string, duration time.Duration, outcome string)
}

// sagaMetrics implements SagaMetrics using OpenTelemetry metrics.
type sagaMetrics struct {
	commandCounter metric.Int64Counter
	durationHisto  metric.Float64Histogram
}

// NewSagaMetrics creates a new SagaMetrics implementation using the provided meter provider.
// The namespace parameter is used as a prefix for all metric names (e.g., "commerce").
// Returns error if meters cannot be initialized.
func NewSagaMetrics(meterProvider metric.MeterProvider, namespace string) (SagaMetrics, error) {
	meter := meterProvider.Meter(namespace)

	commandCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_saga_commands_total", namespace),
		metric.WithDescription("Total number of saga commands processed"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create command counter: %w", err)
	}

	durationHisto, err := meter.Float64Histogram(
		fmt.Sprintf("%s_saga_command_duration_seconds", namespace),
		metric.WithDescription("Duration of saga command processing in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &sagaMetrics{
		commandCounter: commandCounter,
		durationHisto:  durationHisto,
	}, nil
}

// RecordCommand increments the command counter with saga_type and outcome labels.
func (s *sagaMetrics) RecordCommand(ctx context.Context, sagaType, outcome string) {
	s.commandCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("saga_type", sagaType),
			attribute.String("outcome", outcome),
		),
	)
}

// RecordDuration records the command duration in seconds with saga_type and outcome labels.
func (s *sagaMetrics) RecordDuration(
	ctx context.Context,
	sagaType string,
	duration time.Duration,
	outcome string,
) {
	s.durationHisto.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("saga_type", sagaType),
			attribute.String("outcome", outcome),
		),
	)
}

// NoOpSagaMetrics is a no-op implementation of SagaMetrics for when metrics are disabled.
type NoOpSagaMetrics struct{}

// NewNoOpSagaMetrics creates a no-op SagaMetrics implementation.
func NewNoOpSagaMetrics() SagaMetrics {
	return &NoOpSagaMetrics{}
}

// RecordCommand does nothing when metrics are disabled.
func (n *NoOpSagaMetrics) RecordCommand(ctx context.Context, sagaType, outcome string) {
	// No-op
}

// RecordDuration does nothing when metrics are disabled.
func (n *NoOpSagaMetrics) RecordDuration(
	ctx context.Context,
	sagaType string,
	duration time.Duration,
	outcome string,
) {
	// No-op
}
