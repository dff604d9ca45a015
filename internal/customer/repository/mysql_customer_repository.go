// Package repository provides data persistence implementations for customer entities.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/commerce-saga/internal/customer/domain"
	"github.com/allisson/commerce-saga/internal/database"

	apperrors "github.com/allisson/commerce-saga/internal/errors"
)

// MySQLCustomerRepository handles customer persistence for MySQL
type MySQLCustomerRepository struct {
	db *sql.DB
}

// NewMySQLCustomerRepository creates a new MySQLCustomerRepository
func NewMySQLCustomerRepository(db *sql.DB) *MySQLCustomerRepository {
	return &MySQLCustomerRepository{
		db: db,
	}
}

// Create inserts a new customer
func (r *MySQLCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO customers (id, name, email, phone_number, created_at, updated_at)
			  VALUES (?, ?, ?, ?, NOW(), NOW())`

	// Convert UUID to bytes for MySQL BINARY(16)
	uuidBytes, err := customer.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	_, err = querier.ExecContext(ctx, query, uuidBytes, customer.Name, customer.Email, customer.PhoneNumber)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return apperrors.Wrap(err, "failed to create customer")
	}
	return nil
}

// GetByID retrieves a customer by ID
func (r *MySQLCustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, email, phone_number, created_at, updated_at
			  FROM customers WHERE id = ?`

	uuidBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	return scanMySQLCustomer(querier.QueryRowContext(ctx, query, uuidBytes))
}

// GetByEmail retrieves a customer by email
func (r *MySQLCustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, email, phone_number, created_at, updated_at
			  FROM customers WHERE email = ?`

	return scanMySQLCustomer(querier.QueryRowContext(ctx, query, email))
}

// scanMySQLCustomer scans a customer row, decoding the BINARY(16) id.
func scanMySQLCustomer(row *sql.Row) (*domain.Customer, error) {
	var customer domain.Customer
	var idBytes []byte

	err := row.Scan(
		&idBytes, &customer.Name, &customer.Email, &customer.PhoneNumber,
		&customer.CreatedAt, &customer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get customer")
	}

	customer.ID, err = uuid.FromBytes(idBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}

	return &customer, nil
}

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// MySQL: "Error 1062 (23000): Duplicate entry ..."
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "error 1062")
}
