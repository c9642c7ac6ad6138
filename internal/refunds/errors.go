package refunds

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the refund request does not exist.
	ErrNotFound = errors.New("refunds: refund request not found")
	// ErrTenantMismatch indicates the refund belongs to a different tenant.
	ErrTenantMismatch = errors.New("refunds: refund belongs to a different tenant")
	// ErrOrderNotFound indicates the referenced order does not exist.
	ErrOrderNotFound = errors.New("refunds: order not found")
	// ErrNotEligible indicates the order cannot be refunded right now.
	ErrNotEligible = errors.New("refunds: order not eligible for refund")
	// ErrDuplicateActive indicates the order already has an open refund.
	ErrDuplicateActive = errors.New("refunds: order already has an active refund request")
	// ErrUnauthorizedApprover indicates the caller may not decide at the
	// current chain level.
	ErrUnauthorizedApprover = errors.New("refunds: approver not authorized for current level")
	// ErrNotEditable indicates the request left the editable PENDING state.
	ErrNotEditable = errors.New("refunds: request no longer editable")
	// ErrInvalidTransition indicates a status change outside the table.
	ErrInvalidTransition = errors.New("refunds: invalid status transition")
	// ErrCannotEscalate indicates escalation above the executive level.
	ErrCannotEscalate = errors.New("refunds: no level above executive")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("refunds: invalid input")
)

// TransitionError carries the offending states of a rejected transition.
type TransitionError struct {
	From RefundStatus
	To   RefundStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("refunds: cannot change status from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// EligibilityError reports why an order cannot be refunded.
type EligibilityError struct {
	Reason string
}

func (e *EligibilityError) Error() string {
	return "refunds: " + e.Reason
}

func (e *EligibilityError) Unwrap() error { return ErrNotEligible }
