package orders

import (
	"time"

	"github.com/google/uuid"
)

// Event is a domain event buffered on the aggregate until the caller drains
// it after a successful commit. Consumers deduplicate on EventID.
type Event interface {
	EventName() string
}

// EventMeta carries the identity shared by every domain event.
type EventMeta struct {
	EventID    uuid.UUID
	OccurredAt time.Time
}

func newEventMeta(at time.Time) EventMeta {
	return EventMeta{EventID: uuid.New(), OccurredAt: at}
}

// OrderCreated is raised exactly once when an order is created. Reconstituting
// an order from storage does not re-raise it.
type OrderCreated struct {
	EventMeta
	OrderID     uuid.UUID
	TenantID    uuid.UUID
	Number      string
	CustomerID  int64
	TotalAmount int64
	Currency    string
}

func (OrderCreated) EventName() string { return "orders.created" }

// VendorAssigned is raised when a vendor is attached to the order.
type VendorAssigned struct {
	EventMeta
	OrderID     uuid.UUID
	TenantID    uuid.UUID
	VendorID    int64
	QuoteAmount int64
	Currency    string
}

func (VendorAssigned) EventName() string { return "orders.vendor_assigned" }

// CustomerQuoted is raised when the customer quote is priced from the vendor
// quote and the order moves into CUSTOMER_QUOTE.
type CustomerQuoted struct {
	EventMeta
	OrderID    uuid.UUID
	TenantID   uuid.UUID
	Strategy   string
	BaseCost   int64
	FinalPrice int64
	Currency   string
}

func (CustomerQuoted) EventName() string { return "orders.customer_quoted" }

// PaymentReceived is raised for every successfully recorded payment.
type PaymentReceived struct {
	EventMeta
	OrderID       uuid.UUID
	TenantID      uuid.UUID
	Amount        int64
	Currency      string
	Method        string
	Reference     string
	Kind          string
	PaymentStatus PaymentStatus
}

func (PaymentReceived) EventName() string { return "orders.payment_received" }

// OrderStatusChanged is raised on every status transition, including the
// automatic ones triggered by payments.
type OrderStatusChanged struct {
	EventMeta
	OrderID  uuid.UUID
	TenantID uuid.UUID
	Previous OrderStatus
	Current  OrderStatus
	Reason   string
}

func (OrderStatusChanged) EventName() string { return "orders.status_changed" }
