// Package domain defines the core order domain entities and the order status
// transition graph.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/commerce-saga/internal/errors"
)

// Status represents the lifecycle state of an order. The string values are
// the wire and storage labels.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusPaid      Status = "Paid"
	StatusShipped   Status = "Shipped"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

// statusTransitions is the closed transition graph. Delivered and Cancelled
// are terminal and have no outgoing edges.
var statusTransitions = map[Status][]Status{
	StatusPending: {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusShipped, StatusCancelled},
	StatusShipped: {StatusDelivered},
}

// Valid reports whether s is one of the known status labels.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the edge (s, next) exists in the transition graph.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order represents a customer order. TotalAmount equals the sum of item
// quantity times unit price captured at order time.
type Order struct {
	ID          uuid.UUID
	CustomerID  uuid.UUID
	TotalAmount float64
	Status      Status
	Items       []OrderItem
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderItem represents a single line of an order. UnitPrice is a snapshot of
// the product price at order time and is never recomputed afterwards.
type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	UnitPrice float64
}

// Domain-specific errors for order operations.
var (
	// ErrOrderNotFound indicates the requested order does not exist.
	ErrOrderNotFound = errors.Wrap(errors.ErrNotFound, "order not found")

	// ErrOrderAlreadyExists indicates an order with the same id already exists.
	ErrOrderAlreadyExists = errors.Wrap(errors.ErrConflict, "order already exists")
)
