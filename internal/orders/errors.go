package orders

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the order does not exist.
	ErrNotFound = errors.New("orders: order not found")
	// ErrTenantMismatch indicates the order belongs to a different tenant.
	ErrTenantMismatch = errors.New("orders: order belongs to a different tenant")
	// ErrInvalidTransition indicates a status change outside the adjacency table.
	ErrInvalidTransition = errors.New("orders: invalid status transition")
	// ErrInvalidVendorAssignment indicates vendor assignment in a wrong status.
	ErrInvalidVendorAssignment = errors.New("orders: vendor assignment not allowed")
	// ErrInvalidPaymentAmount indicates a non-positive or excessive payment.
	ErrInvalidPaymentAmount = errors.New("orders: invalid payment amount")
	// ErrPaymentNotAccepted indicates the order state blocks payments.
	ErrPaymentNotAccepted = errors.New("orders: payment not accepted")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("orders: invalid input")
)

// TransitionError carries the offending states of a rejected transition.
type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("orders: cannot change status from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// VendorAssignmentError reports the status that blocked vendor assignment.
type VendorAssignmentError struct {
	Status OrderStatus
}

func (e *VendorAssignmentError) Error() string {
	return fmt.Sprintf("orders: cannot assign vendor while order is %s", e.Status)
}

func (e *VendorAssignmentError) Unwrap() error { return ErrInvalidVendorAssignment }

// PaymentStateError reports the state that blocked a payment.
type PaymentStateError struct {
	Status        OrderStatus
	PaymentStatus PaymentStatus
}

func (e *PaymentStateError) Error() string {
	return fmt.Sprintf("orders: order in %s with payment status %s accepts no payments", e.Status, e.PaymentStatus)
}

func (e *PaymentStateError) Unwrap() error { return ErrPaymentNotAccepted }

// PaymentAmountError reports why a payment was rejected.
type PaymentAmountError struct {
	Amount    int64
	Remaining int64
	Currency  string
	Reason    string
}

func (e *PaymentAmountError) Error() string {
	return fmt.Sprintf("orders: %s: amount %d %s, remaining %d", e.Reason, e.Amount, e.Currency, e.Remaining)
}

func (e *PaymentAmountError) Unwrap() error { return ErrInvalidPaymentAmount }
