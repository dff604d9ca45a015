package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessagingMetrics(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	messagingMetrics, err := NewMessagingMetrics(provider.MeterProvider(), "test_app")

	require.NoError(t, err)
	assert.NotNil(t, messagingMetrics)
}

func TestMessagingMetrics_RecordConsumed(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	mm, err := NewMessagingMetrics(provider.MeterProvider(), "test_app")
	require.NoError(t, err)

	// Should not panic for any disposition label
	mm.RecordConsumed(context.Background(), "create_customer_commands", "ack")
	mm.RecordConsumed(context.Background(), "create_order_commands", "requeue")
	mm.RecordConsumed(context.Background(), "change_order_status_commands", "reject")
}

func TestMessagingMetrics_RecordPublished(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	mm, err := NewMessagingMetrics(provider.MeterProvider(), "test_app")
	require.NoError(t, err)

	mm.RecordPublished(context.Background(), "customer.created", "success")
	mm.RecordPublished(context.Background(), "order.created", "error")
}

func TestNewNoOpMessagingMetrics(t *testing.T) {
	noOpMetrics := NewNoOpMessagingMetrics()

	assert.NotNil(t, noOpMetrics)
	assert.IsType(t, &NoOpMessagingMetrics{}, noOpMetrics)

	// Should not panic or do anything
	noOpMetrics.RecordConsumed(context.Background(), "create_customer_commands", "ack")
	noOpMetrics.RecordPublished(context.Background(), "customer.created", "success")
}

func TestMessagingMetrics_Integration(t *testing.T) {
	provider, err := NewProvider("integration_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	mm, err := NewMessagingMetrics(provider.MeterProvider(), "integration_test")
	require.NoError(t, err)

	ctx := context.Background()

	mm.RecordConsumed(ctx, "create_customer_commands", "ack")
	mm.RecordConsumed(ctx, "create_customer_commands", "ack")
	mm.RecordConsumed(ctx, "create_order_commands", "requeue")

	mm.RecordPublished(ctx, "customer.created", "success")
	mm.RecordPublished(ctx, "order.created", "error")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	provider.Handler().ServeHTTP(w, req)

	output := w.Body.String()

	assertMetricLine(
		t,
		output,
		`integration_test_messages_consumed_total`,
		`disposition="ack".*queue="create_customer_commands"`,
		`2`,
	)
	assertMetricLine(
		t,
		output,
		`integration_test_messages_consumed_total`,
		`disposition="requeue".*queue="create_order_commands"`,
		`1`,
	)
	assertMetricLine(
		t,
		output,
		`integration_test_events_published_total`,
		`event_type="customer.created".*status="success"`,
		`1`,
	)
}
