package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/commerce-saga/internal/metrics"
)

func TestAMQPEventProcessor_Process_PublishesWithEventTypeRoutingKey(t *testing.T) {
	publisher := &MockEventPublisher{}
	processor := NewAMQPEventProcessor(publisher, metrics.NewNoOpMessagingMetrics(), newTestLogger())

	ctx := context.Background()
	event := newPendingEvent()

	publisher.On("PublishRaw", ctx, event.EventType, []byte(event.Payload)).Return(nil)

	err := processor.Process(ctx, event)

	require.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestAMQPEventProcessor_Process_PublishError(t *testing.T) {
	publisher := &MockEventPublisher{}
	processor := NewAMQPEventProcessor(publisher, metrics.NewNoOpMessagingMetrics(), newTestLogger())

	ctx := context.Background()
	event := newPendingEvent()

	publishErr := errors.New("channel closed")
	publisher.On("PublishRaw", ctx, event.EventType, []byte(event.Payload)).Return(publishErr)

	err := processor.Process(ctx, event)

	assert.ErrorIs(t, err, publishErr)
}
