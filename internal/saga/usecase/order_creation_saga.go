package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/allisson/commerce-saga/internal/messaging"

	customerDomain "github.com/allisson/commerce-saga/internal/customer/domain"
	apperrors "github.com/allisson/commerce-saga/internal/errors"
	orderDomain "github.com/allisson/commerce-saga/internal/order/domain"
	productDomain "github.com/allisson/commerce-saga/internal/product/domain"
	sagaDomain "github.com/allisson/commerce-saga/internal/saga/domain"
)

// ProductRepository defines product repository operations
type ProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*productDomain.Product, error)
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error
}

// OrderRepository defines order repository operations
type OrderRepository interface {
	Create(ctx context.Context, order *orderDomain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status orderDomain.Status) error
}

// OrderCreationSaga creates an order with fail-fast validation: every item is
// validated before any stock is touched, so a late failure never leaves a
// partial decrement behind. The correlation id equals the order id.
type OrderCreationSaga struct {
	customerRepo CustomerRepository
	productRepo  ProductRepository
	orderRepo    OrderRepository
}

// NewOrderCreationSaga creates a new OrderCreationSaga
func NewOrderCreationSaga(
	customerRepo CustomerRepository,
	productRepo ProductRepository,
	orderRepo OrderRepository,
) *OrderCreationSaga {
	return &OrderCreationSaga{
		customerRepo: customerRepo,
		productRepo:  productRepo,
		orderRepo:    orderRepo,
	}
}

// Process runs the order creation workflow inside the router's transaction.
func (s *OrderCreationSaga) Process(
	ctx context.Context,
	cmd messaging.CreateOrderCommand,
) (*processResult, error) {
	data := sagaDomain.Data{CustomerID: &cmd.CustomerID}

	fail := func(reason string) *processResult {
		return &processResult{
			failureReason: reason,
			eventType:     messaging.EventTypeOrderCreationFailed,
			event: messaging.OrderCreationFailed{
				CorrelationID: cmd.CorrelationID,
				OrderID:       cmd.OrderID,
				Reason:        reason,
			},
			data: data,
		}
	}

	if _, err := s.customerRepo.GetByID(ctx, cmd.CustomerID); err != nil {
		if apperrors.Is(err, customerDomain.ErrCustomerNotFound) {
			return fail("Customer not found"), nil
		}
		return nil, err
	}

	// Read pass: validate every item in input order before touching stock.
	products := make([]*productDomain.Product, 0, len(cmd.Items))
	for _, item := range cmd.Items {
		if item.Quantity <= 0 {
			return fail("Product quantities must be greater than zero"), nil
		}

		product, err := s.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			if apperrors.Is(err, productDomain.ErrProductNotFound) {
				return fail(fmt.Sprintf("Product %s not found", item.ProductID)), nil
			}
			return nil, err
		}

		if product.StockQuantity < item.Quantity {
			return fail(fmt.Sprintf("Insufficient stock for product %s", product.Name)), nil
		}

		products = append(products, product)
	}

	// Mutate pass. The conditional update re-validates stock at execution
	// time; a concurrent winner surfaces as a commit conflict here.
	for i, item := range cmd.Items {
		if err := s.productRepo.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			if apperrors.Is(err, productDomain.ErrInsufficientStock) {
				reason := fmt.Sprintf("Insufficient stock for product %s", products[i].Name)
				return nil, &CommitConflictError{Reason: reason, result: fail(reason)}
			}
			return nil, err
		}
	}

	order := &orderDomain.Order{
		ID:         cmd.OrderID,
		CustomerID: cmd.CustomerID,
		Status:     orderDomain.StatusPending,
	}
	for i, item := range cmd.Items {
		order.TotalAmount += products[i].Price * float64(item.Quantity)
		order.Items = append(order.Items, orderDomain.OrderItem{
			ID:        uuid.Must(uuid.NewV7()),
			OrderID:   cmd.OrderID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: products[i].Price,
		})
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	return &processResult{
		eventType: messaging.EventTypeOrderCreated,
		event: messaging.OrderCreated{
			CorrelationID: cmd.CorrelationID,
			OrderID:       cmd.OrderID,
			TotalAmount:   order.TotalAmount,
		},
		data: data,
	}, nil
}
