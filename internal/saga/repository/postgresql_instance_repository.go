// Package repository provides data persistence implementations for saga instances.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/commerce-saga/internal/database"
	"github.com/allisson/commerce-saga/internal/saga/domain"

	apperrors "github.com/allisson/commerce-saga/internal/errors"
)

// PostgreSQLInstanceRepository handles saga instance persistence for PostgreSQL
type PostgreSQLInstanceRepository struct {
	db *sql.DB
}

// NewPostgreSQLInstanceRepository creates a new PostgreSQLInstanceRepository
func NewPostgreSQLInstanceRepository(db *sql.DB) *PostgreSQLInstanceRepository {
	return &PostgreSQLInstanceRepository{
		db: db,
	}
}

// GetByKey retrieves the saga instance for (saga type, correlation id). When
// called inside a transaction the row is locked FOR UPDATE so concurrent
// deliveries of the same correlation id serialize at the store.
func (r *PostgreSQLInstanceRepository) GetByKey(
	ctx context.Context,
	sagaType domain.Type,
	correlationID uuid.UUID,
) (*domain.Instance, error) {
	var instance domain.Instance
	var dataJSON []byte
	querier := database.GetTx(ctx, r.db)

	query := `SELECT correlation_id, saga_type, current_state, data, last_error, created_at, updated_at
			  FROM saga_instances
			  WHERE saga_type = $1 AND correlation_id = $2
			  FOR UPDATE`

	err := querier.QueryRowContext(ctx, query, sagaType, correlationID).Scan(
		&instance.CorrelationID, &instance.SagaType, &instance.CurrentState,
		&dataJSON, &instance.LastError, &instance.CreatedAt, &instance.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInstanceNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get saga instance")
	}

	if err := json.Unmarshal(dataJSON, &instance.Data); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal saga instance data")
	}

	return &instance, nil
}

// Create inserts a new saga instance
func (r *PostgreSQLInstanceRepository) Create(ctx context.Context, instance *domain.Instance) error {
	querier := database.GetTx(ctx, r.db)

	dataJSON, err := json.Marshal(instance.Data)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal saga instance data")
	}

	query := `INSERT INTO saga_instances (correlation_id, saga_type, current_state, data, last_error, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, NOW(), NOW())`

	_, err = querier.ExecContext(ctx, query,
		instance.CorrelationID, instance.SagaType, instance.CurrentState, dataJSON, instance.LastError)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrInstanceAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create saga instance")
	}
	return nil
}

// Update updates the state, data, and last error of a saga instance
func (r *PostgreSQLInstanceRepository) Update(ctx context.Context, instance *domain.Instance) error {
	querier := database.GetTx(ctx, r.db)

	dataJSON, err := json.Marshal(instance.Data)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal saga instance data")
	}

	query := `UPDATE saga_instances
			  SET current_state = $1, data = $2, last_error = $3, updated_at = NOW()
			  WHERE saga_type = $4 AND correlation_id = $5`

	_, err = querier.ExecContext(ctx, query,
		instance.CurrentState, dataJSON, instance.LastError, instance.SagaType, instance.CorrelationID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update saga instance")
	}
	return nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
