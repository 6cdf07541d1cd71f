package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusWaitingForProposals, OrderStatusWaitingForSelection, true},
		{OrderStatusWaitingForProposals, OrderStatusExpired, true},
		{OrderStatusWaitingForProposals, OrderStatusCancelled, true},
		{OrderStatusWaitingForProposals, OrderStatusWaitingForArrival, false},
		{OrderStatusWaitingForProposals, OrderStatusPaid, false},

		{OrderStatusWaitingForSelection, OrderStatusWaitingForArrival, true},
		{OrderStatusWaitingForSelection, OrderStatusCancelled, true},
		{OrderStatusWaitingForSelection, OrderStatusExpired, false},
		{OrderStatusWaitingForSelection, OrderStatusStarted, false},

		{OrderStatusWaitingForArrival, OrderStatusStarted, true},
		{OrderStatusWaitingForArrival, OrderStatusCompleted, true},
		{OrderStatusWaitingForArrival, OrderStatusPaid, false},

		{OrderStatusStarted, OrderStatusCompleted, true},
		{OrderStatusStarted, OrderStatusWaitingForArrival, false},

		{OrderStatusCompleted, OrderStatusPaid, true},
		{OrderStatusCompleted, OrderStatusStarted, false},

		{OrderStatusPaid, OrderStatusCompleted, false},
		{OrderStatusCancelled, OrderStatusWaitingForProposals, false},
		{OrderStatusExpired, OrderStatusWaitingForProposals, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	terminal := []OrderStatus{OrderStatusPaid, OrderStatusCancelled, OrderStatusExpired}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), "%s", s)
	}

	active := []OrderStatus{
		OrderStatusWaitingForProposals,
		OrderStatusWaitingForSelection,
		OrderStatusWaitingForArrival,
		OrderStatusStarted,
		OrderStatusCompleted,
	}
	for _, s := range active {
		assert.False(t, s.IsTerminal(), "%s", s)
	}
}

func TestOrderStatus_AcceptsProposals(t *testing.T) {
	assert.True(t, OrderStatusWaitingForProposals.AcceptsProposals())
	assert.True(t, OrderStatusWaitingForSelection.AcceptsProposals())

	for _, s := range []OrderStatus{
		OrderStatusWaitingForArrival, OrderStatusStarted, OrderStatusCompleted,
		OrderStatusPaid, OrderStatusCancelled, OrderStatusExpired,
	} {
		assert.False(t, s.AcceptsProposals(), "%s", s)
	}
}

func TestOrderStatus_IsValid(t *testing.T) {
	assert.True(t, OrderStatusStarted.IsValid())
	assert.False(t, OrderStatus("unknown").IsValid())
}
