package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/commerce-saga/internal/messaging"

	customerDomain "github.com/allisson/commerce-saga/internal/customer/domain"
	apperrors "github.com/allisson/commerce-saga/internal/errors"
	sagaDomain "github.com/allisson/commerce-saga/internal/saga/domain"
)

// CustomerRepository defines customer repository operations
type CustomerRepository interface {
	Create(ctx context.Context, customer *customerDomain.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*customerDomain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*customerDomain.Customer, error)
}

// CustomerCreationSaga creates a customer and emits the outcome event. The
// correlation id equals the customer id.
type CustomerCreationSaga struct {
	customerRepo CustomerRepository
}

// NewCustomerCreationSaga creates a new CustomerCreationSaga
func NewCustomerCreationSaga(customerRepo CustomerRepository) *CustomerCreationSaga {
	return &CustomerCreationSaga{
		customerRepo: customerRepo,
	}
}

// Process runs the customer creation workflow inside the router's transaction.
func (s *CustomerCreationSaga) Process(
	ctx context.Context,
	cmd messaging.CreateCustomerCommand,
) (*processResult, error) {
	data := sagaDomain.Data{CustomerID: &cmd.CustomerID}
	email := strings.TrimSpace(strings.ToLower(cmd.Email))

	// Email uniqueness check. Taken by any customer, including a different
	// id, is a business failure.
	_, err := s.customerRepo.GetByEmail(ctx, email)
	if err == nil {
		return &processResult{
			failureReason: "Email already exists",
			eventType:     messaging.EventTypeCustomerCreationFailed,
			event: messaging.CustomerCreationFailed{
				CorrelationID: cmd.CorrelationID,
				Reason:        "Email already exists",
			},
			data: data,
		}, nil
	}
	if !apperrors.Is(err, customerDomain.ErrCustomerNotFound) {
		return nil, err
	}

	// Idempotent replay: the customer row already exists for this id. Record
	// the pre-existing id and finalize without emitting any event.
	existing, err := s.customerRepo.GetByID(ctx, cmd.CustomerID)
	if err == nil {
		data.CustomerID = &existing.ID
		return &processResult{data: data}, nil
	}
	if !apperrors.Is(err, customerDomain.ErrCustomerNotFound) {
		return nil, err
	}

	customer := &customerDomain.Customer{
		ID:          cmd.CustomerID,
		Name:        strings.TrimSpace(cmd.Name),
		Email:       email,
		PhoneNumber: cmd.PhoneNumber,
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		// The unique index closes the race between the email check and the
		// insert. The violation aborts the transaction, so the business
		// failure is recorded by the router in a fresh one.
		if apperrors.Is(err, customerDomain.ErrEmailTaken) {
			return nil, &CommitConflictError{
				Reason: "Email already exists",
				result: &processResult{
					failureReason: "Email already exists",
					eventType:     messaging.EventTypeCustomerCreationFailed,
					event: messaging.CustomerCreationFailed{
						CorrelationID: cmd.CorrelationID,
						Reason:        "Email already exists",
					},
					data: data,
				},
			}
		}
		return nil, err
	}

	return &processResult{
		eventType: messaging.EventTypeCustomerCreated,
		event: messaging.CustomerCreated{
			CorrelationID: cmd.CorrelationID,
			CustomerID:    customer.ID,
		},
		data: data,
	}, nil
}
