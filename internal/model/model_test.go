package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{OrderStatusPending, OrderStatusApproved, true},
		{OrderStatusPending, OrderStatusRejected, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusApproved, OrderStatusConfirmed, true},
		{OrderStatusApproved, OrderStatusCancelled, true},
		{OrderStatusApproved, OrderStatusRejected, false},
		{OrderStatusConfirmed, OrderStatusShipped, true},
		{OrderStatusConfirmed, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, true},
		{OrderStatusDelivered, OrderStatusPending, false},
		{OrderStatusPending, OrderStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestTerminalStatusesHaveNoTransitions(t *testing.T) {
	terminal := []OrderStatus{OrderStatusRejected, OrderStatusDelivered, OrderStatusCancelled}
	all := []OrderStatus{
		OrderStatusPending, OrderStatusApproved, OrderStatusRejected,
		OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered,
		OrderStatusCancelled,
	}

	for _, from := range terminal {
		assert.True(t, IsTerminalStatus(from), "%s must be terminal", from)
		for _, to := range all {
			assert.False(t, CanTransition(from, to), "%s -> %s must be rejected", from, to)
		}
	}

	for _, s := range []OrderStatus{OrderStatusPending, OrderStatusApproved, OrderStatusConfirmed, OrderStatusShipped} {
		assert.False(t, IsTerminalStatus(s), "%s must not be terminal", s)
	}
}

func TestIsValidStatus(t *testing.T) {
	assert.True(t, IsValidStatus(OrderStatusPending))
	assert.True(t, IsValidStatus(OrderStatusDelivered))
	assert.False(t, IsValidStatus("paid"))
	assert.False(t, IsValidStatus(""))
	assert.False(t, IsTerminalStatus("paid"))
}
