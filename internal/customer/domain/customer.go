// Package domain defines the core customer domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/commerce-saga/internal/errors"
)

// Customer represents a customer in the system
type Customer struct {
	ID          uuid.UUID
	Name        string
	Email       string
	PhoneNumber *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Domain-specific errors for customer operations.
var (
	// ErrCustomerNotFound indicates the requested customer does not exist.
	ErrCustomerNotFound = errors.Wrap(errors.ErrNotFound, "customer not found")

	// ErrEmailTaken indicates a customer with the same email already exists.
	ErrEmailTaken = errors.Wrap(errors.ErrConflict, "email already exists")
)
