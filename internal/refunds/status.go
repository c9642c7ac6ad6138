package refunds

// RefundStatus enumerates refund request lifecycle states.
type RefundStatus string

const (
	StatusPending    RefundStatus = "PENDING"
	StatusApproved   RefundStatus = "APPROVED"
	StatusRejected   RefundStatus = "REJECTED"
	StatusProcessing RefundStatus = "PROCESSING"
	StatusCompleted  RefundStatus = "COMPLETED"
	StatusFailed     RefundStatus = "FAILED"
)

// refundTransitions is the authoritative adjacency table for refund statuses.
var refundTransitions = map[RefundStatus][]RefundStatus{
	StatusPending:    {StatusApproved, StatusRejected},
	StatusApproved:   {StatusProcessing, StatusRejected},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusRejected:   {},
	StatusCompleted:  {},
	StatusFailed:     {StatusPending, StatusRejected},
}

// AllowedTransitions returns the valid next statuses.
func (s RefundStatus) AllowedTransitions() []RefundStatus {
	return refundTransitions[s]
}

// CanTransitionTo reports whether the transition is in the table.
func (s RefundStatus) CanTransitionTo(target RefundStatus) bool {
	for _, next := range refundTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsFinal reports whether the refund reached a terminal status.
func (s RefundStatus) IsFinal() bool {
	return s == StatusRejected || s == StatusCompleted
}

// IsActive reports whether the refund still occupies the order. An active
// refund blocks a second request on the same order.
func (s RefundStatus) IsActive() bool {
	return !s.IsFinal()
}

// ParseRefundStatus validates a raw status string.
func ParseRefundStatus(raw string) (RefundStatus, bool) {
	s := RefundStatus(raw)
	_, ok := refundTransitions[s]
	return s, ok
}

// Decision records an approver's verdict at one level of the chain.
type Decision string

const (
	DecisionPending   Decision = "pending"
	DecisionApproved  Decision = "approved"
	DecisionRejected  Decision = "rejected"
	DecisionEscalated Decision = "escalated"
	DecisionSkipped   Decision = "skipped"
)

// ParseDecision validates a raw decision submitted by an approver. Only
// approved, rejected and escalated can be submitted; pending and skipped are
// bookkeeping values.
func ParseDecision(raw string) (Decision, bool) {
	switch Decision(raw) {
	case DecisionApproved, DecisionRejected, DecisionEscalated:
		return Decision(raw), true
	}
	return "", false
}
