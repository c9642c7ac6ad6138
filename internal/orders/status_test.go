package orders

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderStatusTransitionTable(t *testing.T) {
	require.True(t, StatusPending.CanTransitionTo(StatusVendorSourcing))
	require.True(t, StatusVendorSourcing.CanTransitionTo(StatusVendorNegotiation))
	require.True(t, StatusAwaitingPayment.CanTransitionTo(StatusFullPayment))
	require.True(t, StatusCompleted.CanTransitionTo(StatusRefunded))

	require.False(t, StatusPending.CanTransitionTo(StatusCompleted))
	require.False(t, StatusPending.CanTransitionTo(StatusPending))
	require.False(t, StatusCancelled.CanTransitionTo(StatusPending))
	require.False(t, StatusRefunded.CanTransitionTo(StatusPending))
}

func TestOrderStatusClosure(t *testing.T) {
	all := []OrderStatus{
		StatusPending, StatusVendorSourcing, StatusVendorNegotiation, StatusCustomerQuote,
		StatusAwaitingPayment, StatusPartialPayment, StatusFullPayment, StatusInProduction,
		StatusQualityControl, StatusShipping, StatusCompleted, StatusCancelled, StatusRefunded,
	}
	for _, from := range all {
		allowed := make(map[OrderStatus]bool)
		for _, next := range from.AllowedTransitions() {
			allowed[next] = true
		}
		for _, to := range all {
			require.Equal(t, allowed[to], from.CanTransitionTo(to), "from %s to %s", from, to)
		}
		// No status transitions to itself.
		require.False(t, from.CanTransitionTo(from))
	}
}

func TestOrderStatusPredicates(t *testing.T) {
	require.True(t, StatusCancelled.IsFinal())
	require.True(t, StatusRefunded.IsFinal())
	require.False(t, StatusCompleted.IsFinal()) // refundable for 30 days

	require.False(t, StatusCompleted.IsActive())
	require.False(t, StatusCancelled.IsActive())
	require.True(t, StatusInProduction.IsActive())

	require.True(t, StatusPending.AllowsVendorAssignment())
	require.True(t, StatusVendorSourcing.AllowsVendorAssignment())
	require.False(t, StatusInProduction.AllowsVendorAssignment())

	require.True(t, StatusAwaitingPayment.AllowsPayment())
	require.True(t, StatusPartialPayment.AllowsPayment())
	require.False(t, StatusShipping.AllowsPayment())
}

func TestDerivePaymentStatus(t *testing.T) {
	require.Equal(t, PaymentUnpaid, derivePaymentStatus(0, 100))
	require.Equal(t, PaymentPartiallyPaid, derivePaymentStatus(50, 100))
	require.Equal(t, PaymentPaid, derivePaymentStatus(100, 100))
}

func TestOrderStatusLabels(t *testing.T) {
	require.Equal(t, "In Production", StatusInProduction.Label())
	require.NotEmpty(t, StatusInProduction.Description())
	require.Equal(t, "Partially Paid", PaymentPartiallyPaid.Label())
}
