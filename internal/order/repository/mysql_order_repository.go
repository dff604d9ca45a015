// Package repository provides data persistence implementations for order entities.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/commerce-saga/internal/database"
	"github.com/allisson/commerce-saga/internal/order/domain"

	apperrors "github.com/allisson/commerce-saga/internal/errors"
)

// MySQLOrderRepository handles order persistence for MySQL
type MySQLOrderRepository struct {
	db *sql.DB
}

// NewMySQLOrderRepository creates a new MySQLOrderRepository
func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{
		db: db,
	}
}

// Create inserts an order and its items
func (r *MySQLOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	querier := database.GetTx(ctx, r.db)

	orderQuery := `INSERT INTO orders (id, customer_id, total_amount, status, created_at, updated_at)
				   VALUES (?, ?, ?, ?, NOW(), NOW())`

	orderID, err := order.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}
	customerID, err := order.CustomerID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	_, err = querier.ExecContext(ctx, orderQuery, orderID, customerID, order.TotalAmount, order.Status)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrOrderAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create order")
	}

	itemQuery := `INSERT INTO order_items (id, order_id, product_id, quantity, unit_price)
				  VALUES (?, ?, ?, ?, ?)`

	for i := range order.Items {
		item := &order.Items[i]

		itemID, err := item.ID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal UUID")
		}
		productID, err := item.ProductID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal UUID")
		}

		_, err = querier.ExecContext(ctx, itemQuery,
			itemID, orderID, productID, item.Quantity, item.UnitPrice)
		if err != nil {
			return apperrors.Wrap(err, "failed to create order item")
		}
	}

	return nil
}

// GetByID retrieves an order with its items
func (r *MySQLOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var order domain.Order
	querier := database.GetTx(ctx, r.db)

	queryID, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	orderQuery := `SELECT id, customer_id, total_amount, status, created_at, updated_at
				   FROM orders WHERE id = ?`

	var orderIDBytes, customerIDBytes []byte
	err = querier.QueryRowContext(ctx, orderQuery, queryID).Scan(
		&orderIDBytes, &customerIDBytes, &order.TotalAmount, &order.Status,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get order by id")
	}

	order.ID, err = uuid.FromBytes(orderIDBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	order.CustomerID, err = uuid.FromBytes(customerIDBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}

	itemQuery := `SELECT id, order_id, product_id, quantity, unit_price
				  FROM order_items WHERE order_id = ? ORDER BY id`

	rows, err := querier.QueryContext(ctx, itemQuery, queryID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get order items")
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var item domain.OrderItem
		var itemIDBytes, itemOrderIDBytes, productIDBytes []byte

		err := rows.Scan(&itemIDBytes, &itemOrderIDBytes, &productIDBytes, &item.Quantity, &item.UnitPrice)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan order item")
		}

		item.ID, err = uuid.FromBytes(itemIDBytes)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		item.OrderID, err = uuid.FromBytes(itemOrderIDBytes)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		item.ProductID, err = uuid.FromBytes(productIDBytes)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}

		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate order items")
	}

	return &order, nil
}

// UpdateStatus sets the order status
func (r *MySQLOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `UPDATE orders SET status = ?, updated_at = NOW() WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, status, idBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to update order status")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read rows affected")
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}

	return nil
}

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "error 1062")
}
