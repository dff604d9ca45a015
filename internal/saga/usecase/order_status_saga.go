package usecase

import (
	"context"
	"fmt"

	"github.com/allisson/commerce-saga/internal/messaging"

	apperrors "github.com/allisson/commerce-saga/internal/errors"
	orderDomain "github.com/allisson/commerce-saga/internal/order/domain"
	sagaDomain "github.com/allisson/commerce-saga/internal/saga/domain"
)

// OrderStatusSaga applies a single status transition to an order. The
// correlation id equals the order id.
type OrderStatusSaga struct {
	orderRepo OrderRepository
}

// NewOrderStatusSaga creates a new OrderStatusSaga
func NewOrderStatusSaga(orderRepo OrderRepository) *OrderStatusSaga {
	return &OrderStatusSaga{
		orderRepo: orderRepo,
	}
}

// Process runs the status change workflow inside the router's transaction.
func (s *OrderStatusSaga) Process(
	ctx context.Context,
	cmd messaging.ChangeOrderStatusCommand,
) (*processResult, error) {
	newStatus := string(cmd.NewStatus)
	data := sagaDomain.Data{OrderID: &cmd.OrderID, NewStatus: &newStatus}

	fail := func(reason string) *processResult {
		return &processResult{
			failureReason: reason,
			eventType:     messaging.EventTypeOrderStatusChangeFailed,
			event: messaging.OrderStatusChangeFailed{
				CorrelationID: cmd.CorrelationID,
				OrderID:       cmd.OrderID,
				Reason:        reason,
			},
			data: data,
		}
	}

	order, err := s.orderRepo.GetByID(ctx, cmd.OrderID)
	if err != nil {
		if apperrors.Is(err, orderDomain.ErrOrderNotFound) {
			return fail("Order not found"), nil
		}
		return nil, err
	}

	// Requesting the current status is an idempotent success: no mutation,
	// same event as a real change.
	if order.Status == cmd.NewStatus {
		return &processResult{
			eventType: messaging.EventTypeOrderStatusChanged,
			event: messaging.OrderStatusChanged{
				CorrelationID: cmd.CorrelationID,
				OrderID:       cmd.OrderID,
				NewStatus:     order.Status,
			},
			data: data,
		}, nil
	}

	if !order.Status.CanTransitionTo(cmd.NewStatus) {
		return fail(fmt.Sprintf("Invalid transition from %s to %s", order.Status, cmd.NewStatus)), nil
	}

	if err := s.orderRepo.UpdateStatus(ctx, cmd.OrderID, cmd.NewStatus); err != nil {
		return nil, err
	}

	return &processResult{
		eventType: messaging.EventTypeOrderStatusChanged,
		event: messaging.OrderStatusChanged{
			CorrelationID: cmd.CorrelationID,
			OrderID:       cmd.OrderID,
			NewStatus:     cmd.NewStatus,
		},
		data: data,
	}, nil
}
