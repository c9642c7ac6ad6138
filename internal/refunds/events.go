package refunds

import (
	"time"

	"github.com/google/uuid"
)

// Event is a refund domain event drained after commit.
type Event interface {
	EventName() string
}

// EventMeta identifies an event instance for at-least-once consumers.
type EventMeta struct {
	EventID    uuid.UUID
	OccurredAt time.Time
}

func newEventMeta(at time.Time) EventMeta {
	return EventMeta{EventID: uuid.New(), OccurredAt: at}
}

// RefundRequested is raised when a refund request is opened.
type RefundRequested struct {
	EventMeta
	RefundID uuid.UUID
	TenantID uuid.UUID
	OrderID  uuid.UUID
	Amount   int64
	Currency string
	Category ReasonCategory
	Levels   int
}

func (RefundRequested) EventName() string { return "refunds.requested" }

// RefundDecisionRecorded is raised for every approver verdict on the chain.
type RefundDecisionRecorded struct {
	EventMeta
	RefundID   uuid.UUID
	TenantID   uuid.UUID
	OrderID    uuid.UUID
	Level      int
	Role       string
	ApproverID int64
	Decision   Decision
}

func (RefundDecisionRecorded) EventName() string { return "refunds.decision_recorded" }

// RefundStatusChanged is raised on every status transition.
type RefundStatusChanged struct {
	EventMeta
	RefundID uuid.UUID
	TenantID uuid.UUID
	OrderID  uuid.UUID
	Previous RefundStatus
	Current  RefundStatus
	Reason   string
}

func (RefundStatusChanged) EventName() string { return "refunds.status_changed" }
