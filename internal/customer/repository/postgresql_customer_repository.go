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

// PostgreSQLCustomerRepository handles customer persistence for PostgreSQL
type PostgreSQLCustomerRepository struct {
	db *sql.DB
}

// NewPostgreSQLCustomerRepository creates a new PostgreSQLCustomerRepository
func NewPostgreSQLCustomerRepository(db *sql.DB) *PostgreSQLCustomerRepository {
	return &PostgreSQLCustomerRepository{
		db: db,
	}
}

// Create inserts a new customer. The unique index on email closes the race
// between the saga's uniqueness check and the insert.
func (r *PostgreSQLCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO customers (id, name, email, phone_number, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, customer.ID, customer.Name, customer.Email, customer.PhoneNumber)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return apperrors.Wrap(err, "failed to create customer")
	}
	return nil
}

// GetByID retrieves a customer by ID
func (r *PostgreSQLCustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	var customer domain.Customer
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, email, phone_number, created_at, updated_at
			  FROM customers WHERE id = $1`

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&customer.ID, &customer.Name, &customer.Email, &customer.PhoneNumber,
		&customer.CreatedAt, &customer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get customer by id")
	}

	return &customer, nil
}

// GetByEmail retrieves a customer by email
func (r *PostgreSQLCustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	var customer domain.Customer
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, email, phone_number, created_at, updated_at
			  FROM customers WHERE email = $1`

	err := querier.QueryRowContext(ctx, query, email).Scan(
		&customer.ID, &customer.Name, &customer.Email, &customer.PhoneNumber,
		&customer.CreatedAt, &customer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get customer by email")
	}

	return &customer, nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// PostgreSQL: "duplicate key value violates unique constraint" or "pq: duplicate key"
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
