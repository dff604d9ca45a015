// Package domain defines the core product domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/commerce-saga/internal/errors"
)

// Product represents a product in the catalog. StockQuantity is never
// negative; decrements go through the repository's conditional update so a
// concurrent order cannot overcommit stock.
type Product struct {
	ID            uuid.UUID
	Name          string
	Price         float64
	StockQuantity int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Domain-specific errors for product operations.
var (
	// ErrProductNotFound indicates the requested product does not exist.
	ErrProductNotFound = errors.Wrap(errors.ErrNotFound, "product not found")

	// ErrInsufficientStock indicates the stock precondition failed at commit time.
	ErrInsufficientStock = errors.Wrap(errors.ErrConflict, "insufficient stock")
)
