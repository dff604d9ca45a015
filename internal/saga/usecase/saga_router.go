// Package usecase implements the saga orchestration logic: the correlation
// router and the three workflow processors.
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/commerce-saga/internal/database"
	"github.com/allisson/commerce-saga/internal/messaging"
	"github.com/allisson/commerce-saga/internal/metrics"

	apperrors "github.com/allisson/commerce-saga/internal/errors"
	outboxDomain "github.com/allisson/commerce-saga/internal/outbox/domain"
	"github.com/allisson/commerce-saga/internal/saga/domain"
)

// Outcome labels recorded on saga metrics.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeDuplicate = "duplicate"
	OutcomeError     = "error"
)

// InstanceRepository defines saga instance repository operations
type InstanceRepository interface {
	GetByKey(ctx context.Context, sagaType domain.Type, correlationID uuid.UUID) (*domain.Instance, error)
	Create(ctx context.Context, instance *domain.Instance) error
	Update(ctx context.Context, instance *domain.Instance) error
}

// OutboxEventRepository defines outbox event repository operations
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// processResult is the outcome a processor hands back to the router. A
// non-empty failureReason marks a business failure; event is nil when no
// outcome event must be emitted.
type processResult struct {
	failureReason string
	eventType     string
	event         any
	data          domain.Data
}

// processFunc runs a processor's validation and mutation inside the router's
// transaction.
type processFunc func(ctx context.Context) (*processResult, error)

// CommitConflictError reports a mutation that failed at execution time after
// the read pass had validated it, such as a stock decrement losing a race or
// an email unique index firing. The surrounding transaction must roll back so
// earlier writes are undone; the router then records the business failure in
// a fresh transaction.
type CommitConflictError struct {
	Reason string
	result *processResult
}

// Error implements the error interface.
func (e *CommitConflictError) Error() string {
	return e.Reason
}

// Router correlates inbound commands to saga instances and drives each
// command through exactly one atomic unit of work. It implements
// messaging.CommandHandler.
type Router struct {
	txManager    database.TxManager
	instanceRepo InstanceRepository
	outboxRepo   OutboxEventRepository
	customerSaga *CustomerCreationSaga
	orderSaga    *OrderCreationSaga
	statusSaga   *OrderStatusSaga
	locks        *keyedMutex
	metrics      metrics.SagaMetrics
	logger       *slog.Logger
}

// NewRouter creates a new Router
func NewRouter(
	txManager database.TxManager,
	instanceRepo InstanceRepository,
	outboxRepo OutboxEventRepository,
	customerSaga *CustomerCreationSaga,
	orderSaga *OrderCreationSaga,
	statusSaga *OrderStatusSaga,
	sagaMetrics metrics.SagaMetrics,
	logger *slog.Logger,
) *Router {
	return &Router{
		txManager:    txManager,
		instanceRepo: instanceRepo,
		outboxRepo:   outboxRepo,
		customerSaga: customerSaga,
		orderSaga:    orderSaga,
		statusSaga:   statusSaga,
		locks:        newKeyedMutex(),
		metrics:      sagaMetrics,
		logger:       logger,
	}
}

// HandleCreateCustomer routes a create-customer command to the customer
// creation saga.
func (r *Router) HandleCreateCustomer(ctx context.Context, cmd messaging.CreateCustomerCommand) error {
	return r.handle(ctx, domain.TypeCustomerCreation, cmd.CorrelationID, func(ctx context.Context) (*processResult, error) {
		return r.customerSaga.Process(ctx, cmd)
	})
}

// HandleCreateOrder routes a create-order command to the order creation saga.
func (r *Router) HandleCreateOrder(ctx context.Context, cmd messaging.CreateOrderCommand) error {
	return r.handle(ctx, domain.TypeOrderCreation, cmd.CorrelationID, func(ctx context.Context) (*processResult, error) {
		return r.orderSaga.Process(ctx, cmd)
	})
}

// HandleChangeOrderStatus routes a change-order-status command to the order
// status saga.
func (r *Router) HandleChangeOrderStatus(ctx context.Context, cmd messaging.ChangeOrderStatusCommand) error {
	return r.handle(ctx, domain.TypeOrderStatus, cmd.CorrelationID, func(ctx context.Context) (*processResult, error) {
		return r.statusSaga.Process(ctx, cmd)
	})
}

// handle drives one command through the saga lifecycle: per-correlation lock,
// load-or-create the instance, terminal short-circuit, processor dispatch,
// and atomic persistence of the transition plus outcome event.
func (r *Router) handle(
	ctx context.Context,
	sagaType domain.Type,
	correlationID uuid.UUID,
	process processFunc,
) error {
	r.locks.Lock(string(sagaType), correlationID)
	defer r.locks.Unlock(string(sagaType), correlationID)

	start := time.Now()
	outcome := OutcomeError
	defer func() {
		r.metrics.RecordCommand(ctx, string(sagaType), outcome)
		r.metrics.RecordDuration(ctx, string(sagaType), time.Since(start), outcome)
	}()

	err := r.runOnce(ctx, sagaType, correlationID, process, &outcome)

	// A commit-time conflict aborts the whole transaction so earlier writes
	// roll back. The failure outcome is then recorded on its own.
	var conflictErr *CommitConflictError
	if errors.As(err, &conflictErr) {
		r.logger.Warn("commit conflict detected, recording failure",
			slog.String("saga_type", string(sagaType)),
			slog.String("correlation_id", correlationID.String()),
			slog.String("reason", conflictErr.Reason),
		)
		err = r.runOnce(ctx, sagaType, correlationID, func(ctx context.Context) (*processResult, error) {
			return conflictErr.result, nil
		}, &outcome)
	}

	// A concurrent delivery from another process won the instance insert and
	// recorded the outcome first; this delivery is a duplicate.
	if apperrors.Is(err, domain.ErrInstanceAlreadyExists) {
		outcome = OutcomeDuplicate
		r.logger.Info("concurrent duplicate command ignored",
			slog.String("saga_type", string(sagaType)),
			slog.String("correlation_id", correlationID.String()),
		)
		return nil
	}
	if err != nil {
		return err
	}

	r.logger.Info("command handled",
		slog.String("saga_type", string(sagaType)),
		slog.String("correlation_id", correlationID.String()),
		slog.String("outcome", outcome),
	)
	return nil
}

// runOnce executes one atomic unit of work for a command.
func (r *Router) runOnce(
	ctx context.Context,
	sagaType domain.Type,
	correlationID uuid.UUID,
	process processFunc,
	outcome *string,
) error {
	return r.txManager.WithTx(ctx, func(ctx context.Context) error {
		exists := true
		instance, err := r.instanceRepo.GetByKey(ctx, sagaType, correlationID)
		if err != nil {
			if !apperrors.Is(err, domain.ErrInstanceNotFound) {
				return err
			}
			instance = domain.NewInstance(sagaType, correlationID)
			exists = false
		}

		if instance.CurrentState.Terminal() {
			*outcome = OutcomeDuplicate
			return nil
		}

		result, err := process(ctx)
		if err != nil {
			return err
		}

		instance.Data = result.data
		if result.failureReason != "" {
			instance.Fail(result.failureReason)
			*outcome = OutcomeFailed
		} else {
			instance.Complete()
			*outcome = OutcomeCompleted
		}

		if exists {
			if err := r.instanceRepo.Update(ctx, instance); err != nil {
				return err
			}
		} else {
			if err := r.instanceRepo.Create(ctx, instance); err != nil {
				return err
			}
		}

		if result.event == nil {
			return nil
		}

		payloadJSON, err := json.Marshal(result.event)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal event payload")
		}

		outboxEvent := &outboxDomain.OutboxEvent{
			ID:        uuid.Must(uuid.NewV7()),
			EventType: result.eventType,
			Payload:   string(payloadJSON),
			Status:    outboxDomain.OutboxEventStatusPending,
			Retries:   0,
		}
		if err := r.outboxRepo.Create(ctx, outboxEvent); err != nil {
			return apperrors.Wrap(err, "failed to create outbox event")
		}

		return nil
	})
}
