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

// MySQLProductRepository handles product persistence for MySQL
type MySQLProductRepository struct {
	db *sql.DB
}

// NewMySQLProductRepository creates a new MySQLProductRepository
func NewMySQLProductRepository(db *sql.DB) *MySQLProductRepository {
	return &MySQLProductRepository{
		db: db,
	}
}

// GetByID retrieves a product by ID
func (r *MySQLProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var product domain.Product
	var idBytes []byte
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, price, stock_quantity, created_at, updated_at
			  FROM products WHERE id = ?`

	queryID, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	err = querier.QueryRowContext(ctx, query, queryID).Scan(
		&idBytes, &product.Name, &product.Price, &product.StockQuantity,
		&product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get product by id")
	}

	product.ID, err = uuid.FromBytes(idBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}

	return &product, nil
}

// DecrementStock decrements the product stock by quantity with the
// precondition stock_quantity >= quantity re-evaluated at commit time.
func (r *MySQLProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE products
			  SET stock_quantity = stock_quantity - ?, updated_at = NOW()
			  WHERE id = ? AND stock_quantity >= ?`

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	result, err := querier.ExecContext(ctx, query, quantity, idBytes, quantity)
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
