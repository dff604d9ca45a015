// Package messaging defines the command and event contracts of the saga
// worker and the AMQP transport that carries them.
package messaging

import (
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	orderDomain "github.com/allisson/commerce-saga/internal/order/domain"
	appValidation "github.com/allisson/commerce-saga/internal/validation"
)

// Queue names and routing keys for inbound commands.
const (
	QueueCreateCustomer    = "create_customer_commands"
	QueueCreateOrder       = "create_order_commands"
	QueueChangeOrderStatus = "change_order_status_commands"

	RoutingKeyCreateCustomer    = "command.customer.create"
	RoutingKeyCreateOrder       = "command.order.create"
	RoutingKeyChangeOrderStatus = "command.order.change_status"
)

// Event types of outcome events. Also used as publish routing keys.
const (
	EventTypeCustomerCreated         = "customer.created"
	EventTypeCustomerCreationFailed  = "customer.creation_failed"
	EventTypeOrderCreated            = "order.created"
	EventTypeOrderCreationFailed     = "order.creation_failed"
	EventTypeOrderStatusChanged      = "order.status_changed"
	EventTypeOrderStatusChangeFailed = "order.status_change_failed"
)

// OrderItemInput is one (product, quantity) line of a create-order command.
type OrderItemInput struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// CreateCustomerCommand requests creation of a customer. The correlation id
// equals the customer id.
type CreateCustomerCommand struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	PhoneNumber   *string   `json:"phone_number,omitempty"`
}

// Validate checks the command shape. Business rules (email uniqueness) are
// the saga's concern, not the consumer boundary's.
func (c CreateCustomerCommand) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.CorrelationID, appValidation.RequiredUUID),
		validation.Field(&c.CustomerID, appValidation.RequiredUUID),
		validation.Field(&c.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
		validation.Field(&c.Email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank,
			appValidation.Email,
		),
	)
	return appValidation.WrapValidationError(err)
}

// CreateOrderCommand requests creation of an order. The correlation id equals
// the order id.
type CreateOrderCommand struct {
	CorrelationID uuid.UUID        `json:"correlation_id"`
	OrderID       uuid.UUID        `json:"order_id"`
	CustomerID    uuid.UUID        `json:"customer_id"`
	Items         []OrderItemInput `json:"items"`
}

// Validate checks the command shape. Item quantities are validated by the
// saga so a non-positive quantity produces the documented failure event
// rather than a rejected delivery.
func (c CreateOrderCommand) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.CorrelationID, appValidation.RequiredUUID),
		validation.Field(&c.OrderID, appValidation.RequiredUUID),
		validation.Field(&c.CustomerID, appValidation.RequiredUUID),
		validation.Field(&c.Items,
			validation.Required.Error("items must not be empty"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// ChangeOrderStatusCommand requests an order status transition. The
// correlation id equals the order id.
type ChangeOrderStatusCommand struct {
	CorrelationID uuid.UUID          `json:"correlation_id"`
	OrderID       uuid.UUID          `json:"order_id"`
	NewStatus     orderDomain.Status `json:"new_status"`
}

// Validate checks the command shape, including that the requested status is
// a known label. Whether the transition edge exists is the saga's concern.
func (c ChangeOrderStatusCommand) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.CorrelationID, appValidation.RequiredUUID),
		validation.Field(&c.OrderID, appValidation.RequiredUUID),
		validation.Field(&c.NewStatus, validation.By(func(value interface{}) error {
			s, ok := value.(orderDomain.Status)
			if !ok || !s.Valid() {
				return validation.NewError("validation_order_status", "must be a known order status")
			}
			return nil
		})),
	)
	return appValidation.WrapValidationError(err)
}

// CustomerCreated is the success outcome of customer creation.
type CustomerCreated struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
}

// CustomerCreationFailed is the failure outcome of customer creation.
type CustomerCreationFailed struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	Reason        string    `json:"reason"`
}

// OrderCreated is the success outcome of order creation.
type OrderCreated struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	OrderID       uuid.UUID `json:"order_id"`
	TotalAmount   float64   `json:"total_amount"`
}

// OrderCreationFailed is the failure outcome of order creation.
type OrderCreationFailed struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	OrderID       uuid.UUID `json:"order_id"`
	Reason        string    `json:"reason"`
}

// OrderStatusChanged is the success outcome of an order status transition.
type OrderStatusChanged struct {
	CorrelationID uuid.UUID          `json:"correlation_id"`
	OrderID       uuid.UUID          `json:"order_id"`
	NewStatus     orderDomain.Status `json:"new_status"`
}

// OrderStatusChangeFailed is the failure outcome of an order status transition.
type OrderStatusChangeFailed struct {
	CorrelationID uuid.UUID          `json:"correlation_id"`
	OrderID       uuid.UUID          `json:"order_id"`
	Reason        string             `json:"reason"`
}
