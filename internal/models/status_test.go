package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	for _, s := range []string{"pending", "processing", "shipped", "delivered", "cancelled"} {
		st, err := ParseOrderStatus(s)
		require.NoError(t, err)
		require.EqualValues(t, s, st)
	}

	_, err := ParseOrderStatus("refunded")
	require.Error(t, err)
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to OrderStatus }{
		{StatusPending, StatusProcessing},
		{StatusPending, StatusCancelled},
		{StatusProcessing, StatusShipped},
		{StatusProcessing, StatusCancelled},
		{StatusShipped, StatusDelivered},
	}
	for _, tc := range allowed {
		require.True(t, CanTransition(tc.from, tc.to), "%s -> %s must be allowed", tc.from, tc.to)
	}

	denied := []struct{ from, to OrderStatus }{
		{StatusPending, StatusShipped},
		{StatusPending, StatusDelivered},
		{StatusShipped, StatusCancelled},
		{StatusDelivered, StatusPending},
		{StatusDelivered, StatusCancelled},
		{StatusCancelled, StatusPending},
		{StatusCancelled, StatusProcessing},
	}
	for _, tc := range denied {
		require.False(t, CanTransition(tc.from, tc.to), "%s -> %s must be rejected", tc.from, tc.to)
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, terminal := range []OrderStatus{StatusDelivered, StatusCancelled} {
		for _, to := range []OrderStatus{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
			require.False(t, CanTransition(terminal, to))
		}
	}
}

func TestTransition(t *testing.T) {
	next, err := Transition(StatusPending, StatusProcessing)
	require.NoError(t, err)
	require.Equal(t, StatusProcessing, next)

	same, err := Transition(StatusDelivered, StatusPending)
	require.Error(t, err)
	require.Equal(t, StatusDelivered, same)
}
