package refunds

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRefundTransitions(t *testing.T) {
	cases := []struct {
		from    RefundStatus
		to      RefundStatus
		allowed bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusProcessing, false},
		{StatusPending, StatusCompleted, false},
		{StatusApproved, StatusProcessing, true},
		{StatusApproved, StatusRejected, true},
		{StatusApproved, StatusCompleted, false},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusRejected, false},
		{StatusFailed, StatusPending, true},
		{StatusFailed, StatusRejected, true},
		{StatusFailed, StatusCompleted, false},
		{StatusRejected, StatusPending, false},
		{StatusCompleted, StatusPending, false},
	}
	for _, tc := range cases {
		require.Equalf(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestRefundStatusPredicates(t *testing.T) {
	require.True(t, StatusRejected.IsFinal())
	require.True(t, StatusCompleted.IsFinal())
	for _, s := range []RefundStatus{StatusPending, StatusApproved, StatusProcessing, StatusFailed} {
		require.Falsef(t, s.IsFinal(), "%s", s)
		require.Truef(t, s.IsActive(), "%s", s)
	}
	require.Empty(t, StatusRejected.AllowedTransitions())
	require.Empty(t, StatusCompleted.AllowedTransitions())
}

func TestParseDecision(t *testing.T) {
	for _, raw := range []string{"approved", "rejected", "escalated"} {
		_, ok := ParseDecision(raw)
		require.Truef(t, ok, "%s", raw)
	}
	// Bookkeeping values cannot be submitted by an approver.
	for _, raw := range []string{"pending", "skipped", "maybe", ""} {
		_, ok := ParseDecision(raw)
		require.Falsef(t, ok, "%s", raw)
	}
}
