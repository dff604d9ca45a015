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

// MySQLInstanceRepository handles saga instance persistence for MySQL
type MySQLInstanceRepository struct {
	db *sql.DB
}

// NewMySQLInstanceRepository creates a new MySQLInstanceRepository
func NewMySQLInstanceRepository(db *sql.DB) *MySQLInstanceRepository {
	return &MySQLInstanceRepository{
		db: db,
	}
}

// GetByKey retrieves the saga instance for (saga type, correlation id),
// locking the row FOR UPDATE when called inside a transaction.
func (r *MySQLInstanceRepository) GetByKey(
	ctx context.Context,
	sagaType domain.Type,
	correlationID uuid.UUID,
) (*domain.Instance, error) {
	var instance domain.Instance
	var correlationIDBytes, dataJSON []byte
	querier := database.GetTx(ctx, r.db)

	queryID, err := correlationID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	query := `SELECT correlation_id, saga_type, current_state, data, last_error, created_at, updated_at
			  FROM saga_instances
			  WHERE saga_type = ? AND correlation_id = ?
			  FOR UPDATE`

	err = querier.QueryRowContext(ctx, query, sagaType, queryID).Scan(
		&correlationIDBytes, &instance.SagaType, &instance.CurrentState,
		&dataJSON, &instance.LastError, &instance.CreatedAt, &instance.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInstanceNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get saga instance")
	}

	instance.CorrelationID, err = uuid.FromBytes(correlationIDBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}

	if err := json.Unmarshal(dataJSON, &instance.Data); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal saga instance data")
	}

	return &instance, nil
}

// Create inserts a new saga instance
func (r *MySQLInstanceRepository) Create(ctx context.Context, instance *domain.Instance) error {
	querier := database.GetTx(ctx, r.db)

	correlationIDBytes, err := instance.CorrelationID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	dataJSON, err := json.Marshal(instance.Data)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal saga instance data")
	}

	query := `INSERT INTO saga_instances (correlation_id, saga_type, current_state, data, last_error, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, NOW(), NOW())`

	_, err = querier.ExecContext(ctx, query,
		correlationIDBytes, instance.SagaType, instance.CurrentState, dataJSON, instance.LastError)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrInstanceAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create saga instance")
	}
	return nil
}

// Update updates the state, data, and last error of a saga instance
func (r *MySQLInstanceRepository) Update(ctx context.Context, instance *domain.Instance) error {
	querier := database.GetTx(ctx, r.db)

	correlationIDBytes, err := instance.CorrelationID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	dataJSON, err := json.Marshal(instance.Data)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal saga instance data")
	}

	query := `UPDATE saga_instances
			  SET current_state = ?, data = ?, last_error = ?, updated_at = NOW()
			  WHERE saga_type = ? AND correlation_id = ?`

	_, err = querier.ExecContext(ctx, query,
		instance.CurrentState, dataJSON, instance.LastError, instance.SagaType, correlationIDBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to update saga instance")
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
