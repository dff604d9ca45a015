package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/commerce-saga/internal/outbox/domain"
)

func newTestConfig() Config {
	return Config{
		Interval:   100 * time.Millisecond,
		BatchSize:  10,
		MaxRetries: 3,
	}
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPendingEvent() *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: "customer.created",
		Payload:   `{"customer_id":"00000000-0000-0000-0000-000000000001"}`,
		Status:    domain.OutboxEventStatusPending,
	}
}

func TestOutboxUseCase_ProcessEvents_Success(t *testing.T) {
	txManager := &MockTxManager{}
	outboxRepo := &MockOutboxEventRepository{}
	processor := &MockEventProcessor{}
	uc := NewOutboxUseCase(newTestConfig(), txManager, outboxRepo, processor, newTestLogger())

	ctx := context.Background()
	event := newPendingEvent()

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	outboxRepo.On("GetPendingEvents", ctx, 10).Return([]*domain.OutboxEvent{event}, nil)
	processor.On("Process", ctx, event).Return(nil)
	outboxRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.OutboxEvent) bool {
		return e.ID == event.ID &&
			e.Status == domain.OutboxEventStatusProcessed &&
			e.ProcessedAt != nil
	})).Return(nil)

	err := uc.ProcessEvents(ctx)

	require.NoError(t, err)
	outboxRepo.AssertExpectations(t)
	processor.AssertExpectations(t)
}

func TestOutboxUseCase_ProcessEvents_NoEvents(t *testing.T) {
	txManager := &MockTxManager{}
	outboxRepo := &MockOutboxEventRepository{}
	processor := &MockEventProcessor{}
	uc := NewOutboxUseCase(newTestConfig(), txManager, outboxRepo, processor, newTestLogger())

	ctx := context.Background()

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	outboxRepo.On("GetPendingEvents", ctx, 10).Return([]*domain.OutboxEvent{}, nil)

	err := uc.ProcessEvents(ctx)

	require.NoError(t, err)
	processor.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
	outboxRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestOutboxUseCase_ProcessEvents_PublishFailureIncrementsRetries(t *testing.T) {
	txManager := &MockTxManager{}
	outboxRepo := &MockOutboxEventRepository{}
	processor := &MockEventProcessor{}
	uc := NewOutboxUseCase(newTestConfig(), txManager, outboxRepo, processor, newTestLogger())

	ctx := context.Background()
	event := newPendingEvent()

	publishErr := errors.New("broker unavailable")
	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	outboxRepo.On("GetPendingEvents", ctx, 10).Return([]*domain.OutboxEvent{event}, nil)
	processor.On("Process", ctx, event).Return(publishErr)
	outboxRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.OutboxEvent) bool {
		return e.Retries == 1 &&
			e.Status == domain.OutboxEventStatusPending &&
			e.LastError != nil && *e.LastError == "broker unavailable"
	})).Return(nil)

	err := uc.ProcessEvents(ctx)

	require.NoError(t, err)
	outboxRepo.AssertExpectations(t)
}

func TestOutboxUseCase_ProcessEvents_MaxRetriesMarksFailed(t *testing.T) {
	txManager := &MockTxManager{}
	outboxRepo := &MockOutboxEventRepository{}
	processor := &MockEventProcessor{}
	uc := NewOutboxUseCase(newTestConfig(), txManager, outboxRepo, processor, newTestLogger())

	ctx := context.Background()
	event := newPendingEvent()
	event.Retries = 2

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	outboxRepo.On("GetPendingEvents", ctx, 10).Return([]*domain.OutboxEvent{event}, nil)
	processor.On("Process", ctx, event).Return(errors.New("broker unavailable"))
	outboxRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.OutboxEvent) bool {
		return e.Retries == 3 && e.Status == domain.OutboxEventStatusFailed
	})).Return(nil)

	err := uc.ProcessEvents(ctx)

	require.NoError(t, err)
	outboxRepo.AssertExpectations(t)
}

func TestOutboxUseCase_ProcessEvents_FailureDoesNotStopBatch(t *testing.T) {
	txManager := &MockTxManager{}
	outboxRepo := &MockOutboxEventRepository{}
	processor := &MockEventProcessor{}
	uc := NewOutboxUseCase(newTestConfig(), txManager, outboxRepo, processor, newTestLogger())

	ctx := context.Background()
	failing := newPendingEvent()
	healthy := newPendingEvent()

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	outboxRepo.On("GetPendingEvents", ctx, 10).Return([]*domain.OutboxEvent{failing, healthy}, nil)
	processor.On("Process", ctx, failing).Return(errors.New("broker unavailable"))
	processor.On("Process", ctx, healthy).Return(nil)
	outboxRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.OutboxEvent) bool {
		return e.ID == failing.ID && e.Retries == 1
	})).Return(nil)
	outboxRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.OutboxEvent) bool {
		return e.ID == healthy.ID && e.Status == domain.OutboxEventStatusProcessed
	})).Return(nil)

	err := uc.ProcessEvents(ctx)

	require.NoError(t, err)
	processor.AssertExpectations(t)
	outboxRepo.AssertExpectations(t)
}

func TestOutboxUseCase_ProcessEvents_RepositoryError(t *testing.T) {
	txManager := &MockTxManager{}
	outboxRepo := &MockOutboxEventRepository{}
	processor := &MockEventProcessor{}
	uc := NewOutboxUseCase(newTestConfig(), txManager, outboxRepo, processor, newTestLogger())

	ctx := context.Background()

	storeErr := errors.New("connection refused")
	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	outboxRepo.On("GetPendingEvents", ctx, 10).Return(nil, storeErr)

	err := uc.ProcessEvents(ctx)

	assert.ErrorIs(t, err, storeErr)
}

func TestOutboxUseCase_Start_StopsOnContextCancel(t *testing.T) {
	txManager := &MockTxManager{}
	outboxRepo := &MockOutboxEventRepository{}
	processor := &MockEventProcessor{}
	uc := NewOutboxUseCase(newTestConfig(), txManager, outboxRepo, processor, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())

	txManager.On("WithTx", mock.Anything, mock.AnythingOfType("func(context.Context) error")).
		Return(nil).Maybe()
	outboxRepo.On("GetPendingEvents", mock.Anything, 10).
		Return([]*domain.OutboxEvent{}, nil).Maybe()

	done := make(chan error, 1)
	go func() {
		done <- uc.Start(ctx)
	}()

	time.Sleep(250 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("outbox relay did not stop after context cancellation")
	}
}
