// Package domain defines the persisted saga instance model shared by the
// three workflow processors.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/commerce-saga/internal/errors"
)

// State is the saga instance state label. Every saga in this system is a
// single-transition machine: Initial moves to Completed or Failed, both
// terminal, and a terminal instance is never reopened.
type State string

const (
	StateInitial   State = "initial"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Type identifies the workflow that owns a saga instance.
type Type string

const (
	TypeCustomerCreation Type = "customer_creation"
	TypeOrderCreation    Type = "order_creation"
	TypeOrderStatus      Type = "order_status"
)

// Data holds the type-specific fields of a saga instance. It is persisted as
// a JSON document; only the fields relevant to the owning saga type are set.
type Data struct {
	CustomerID *uuid.UUID `json:"customer_id,omitempty"`
	OrderID    *uuid.UUID `json:"order_id,omitempty"`
	NewStatus  *string    `json:"new_status,omitempty"`
}

// Instance is one persisted saga instance. Exactly one instance exists per
// (saga type, correlation id) pair; the correlation id equals the target
// entity id for all three workflows.
type Instance struct {
	CorrelationID uuid.UUID
	SagaType      Type
	CurrentState  State
	Data          Data
	LastError     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewInstance creates an instance in the Initial state for the given key.
func NewInstance(sagaType Type, correlationID uuid.UUID) *Instance {
	return &Instance{
		CorrelationID: correlationID,
		SagaType:      sagaType,
		CurrentState:  StateInitial,
	}
}

// Complete transitions the instance to the Completed terminal state.
func (i *Instance) Complete() {
	i.CurrentState = StateCompleted
}

// Fail transitions the instance to the Failed terminal state and records the
// business failure reason.
func (i *Instance) Fail(reason string) {
	i.CurrentState = StateFailed
	i.LastError = &reason
}

// Domain-specific errors for saga instance operations.
var (
	// ErrInstanceNotFound indicates no instance exists for the key.
	ErrInstanceNotFound = errors.Wrap(errors.ErrNotFound, "saga instance not found")

	// ErrInstanceAlreadyExists indicates a concurrent delivery created the
	// instance first.
	ErrInstanceAlreadyExists = errors.Wrap(errors.ErrConflict, "saga instance already exists")
)
