package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_Valid(t *testing.T) {
	for _, status := range []Status{
		StatusPending,
		StatusPaid,
		StatusShipped,
		StatusDelivered,
		StatusCancelled,
	} {
		assert.True(t, status.Valid(), "expected %s to be valid", status)
	}

	assert.False(t, Status("Refunded").Valid())
	assert.False(t, Status("pending").Valid())
	assert.False(t, Status("").Valid())
}

func TestStatus_CanTransitionTo(t *testing.T) {
	allowed := map[Status][]Status{
		StatusPending: {StatusPaid, StatusCancelled},
		StatusPaid:    {StatusShipped, StatusCancelled},
		StatusShipped: {StatusDelivered},
	}

	all := []Status{StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, next := range allowed[from] {
				if next == to {
					want = true
					break
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "edge %s -> %s", from, to)
		}
	}
}

func TestStatus_TerminalStatesHaveNoOutgoingEdges(t *testing.T) {
	all := []Status{StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled}

	for _, to := range all {
		assert.False(t, StatusDelivered.CanTransitionTo(to))
		assert.False(t, StatusCancelled.CanTransitionTo(to))
	}
}

func TestStatus_SelfTransitionIsNotAnEdge(t *testing.T) {
	for _, status := range []Status{StatusPending, StatusPaid, StatusShipped} {
		assert.False(t, status.CanTransitionTo(status))
	}
}
