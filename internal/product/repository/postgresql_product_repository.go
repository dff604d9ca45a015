// Package repository provides data persistence implementations for product entities.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/commerce-saga/internal/database"
	"github.com/allisson/commerce-saga/internal/product/domain"

	apperrors "github.com/allisson/commerce-saga/internal/errors"
)

// PostgreSQLProductRepository handles product persistence for PostgreSQL
type PostgreSQLProductRepository struct {
	db *sql.DB
}

// NewPostgreSQLProductRepository creates a new PostgreSQLProductRepository
func NewPostgreSQLProductRepository(db *sql.DB) *PostgreSQLProductRepository {
	return &PostgreSQLProductRepository{
		db: db,
	}
}

// GetByID retrieves a product by ID
func (r *PostgreSQLProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var product domain.Product
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, price, stock_quantity, created_at, updated_at
			  FROM products WHERE id = $1`

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&product.ID, &product.Name, &product.Price, &product.StockQuantity,
		&product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get product by id")
	}

	return &product, nil
}

// DecrementStock decrements the product stock by quantity with the
// precondition stock_quantity >= quantity re-evaluated at commit time. When a
// concurrent order wins the race the update matches zero rows and
// ErrInsufficientStock is returned, so stock can never go negative.
func (r *PostgreSQLProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE products
			  SET stock_quantity = stock_quantity - $1, updated_at = NOW()
			  WHERE id = $2 AND stock_quantity >= $1`

	result, err := querier.ExecContext(ctx, query, quantity, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to decrement stock")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read rows affected")
	}
	if affected == 0 {
		return domain.ErrInsufficientStock
	}

	return nil
}
