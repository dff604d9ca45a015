package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	outboxDomain "github.com/allisson/commerce-saga/internal/outbox/domain"
	"github.com/allisson/commerce-saga/internal/testutil"
)

func newStoredEvent(eventType string) *outboxDomain.OutboxEvent {
	return &outboxDomain.OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: eventType,
		Payload:   `{"correlation_id":"00000000-0000-0000-0000-000000000001"}`,
		Status:    outboxDomain.OutboxEventStatusPending,
	}
}

func TestNewPostgreSQLOutboxEventRepository(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)

	repo := NewPostgreSQLOutboxEventRepository(db)
	assert.NotNil(t, repo)
	assert.IsType(t, &PostgreSQLOutboxEventRepository{}, repo)
}

func TestPostgreSQLOutboxEventRepository_CreateAndGetPendingEvents(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLOutboxEventRepository(db)
	ctx := context.Background()

	event := newStoredEvent("customer.created")
	require.NoError(t, repo.Create(ctx, event))

	events, err := repo.GetPendingEvents(ctx, 10)
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, event.ID, events[0].ID)
	assert.Equal(t, "customer.created", events[0].EventType)
	assert.Equal(t, event.Payload, events[0].Payload)
	assert.Equal(t, outboxDomain.OutboxEventStatusPending, events[0].Status)
	assert.Equal(t, 0, events[0].Retries)
	assert.Nil(t, events[0].ProcessedAt)
}

func TestPostgreSQLOutboxEventRepository_GetPendingEvents_Limit(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLOutboxEventRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, newStoredEvent("order.created")))
	}

	events, err := repo.GetPendingEvents(ctx, 3)
	require.NoError(t, err)

	assert.Len(t, events, 3)
}

func TestPostgreSQLOutboxEventRepository_GetPendingEvents_SkipsNonPending(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLOutboxEventRepository(db)
	ctx := context.Background()

	pending := newStoredEvent("order.created")
	require.NoError(t, repo.Create(ctx, pending))

	now := time.Now()
	processed := newStoredEvent("order.created")
	processed.Status = outboxDomain.OutboxEventStatusProcessed
	processed.ProcessedAt = &now
	require.NoError(t, repo.Create(ctx, processed))

	failed := newStoredEvent("order.created")
	failed.Status = outboxDomain.OutboxEventStatusFailed
	require.NoError(t, repo.Create(ctx, failed))

	events, err := repo.GetPendingEvents(ctx, 10)
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, pending.ID, events[0].ID)
}

func TestPostgreSQLOutboxEventRepository_Update(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLOutboxEventRepository(db)
	ctx := context.Background()

	event := newStoredEvent("order.status_changed")
	require.NoError(t, repo.Create(ctx, event))

	now := time.Now()
	lastError := "broker unavailable"
	event.Status = outboxDomain.OutboxEventStatusProcessed
	event.Retries = 2
	event.LastError = &lastError
	event.ProcessedAt = &now

	err := repo.Update(ctx, event)
	require.NoError(t, err)

	// The processed event no longer shows up in the pending batch.
	events, err := repo.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
